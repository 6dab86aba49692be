// Package opencv binds the capture, display, detection and recognition
// collaborators of the controller to OpenCV through gocv.
//
// Camera, Window and HaarDetector hold native resources and must be closed
// once the controller has returned.
package opencv
