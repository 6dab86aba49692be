package learnrec

import (
	"image"

	"github.com/disintegration/imaging"
)

// Crop copies the pixels of the region r out of the frame. The region is
// clipped to the frame bounds; nil is returned when nothing is left.
func Crop(frame image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(frame.Bounds())
	if r.Empty() {
		return nil
	}
	return imaging.Crop(frame, r)
}

// cropAll crops every region, skipping the ones lying outside of the frame.
func cropAll(frame image.Image, regions []image.Rectangle) []image.Image {
	crops := make([]image.Image, 0, len(regions))
	for _, r := range regions {
		if c := Crop(frame, r); c != nil {
			crops = append(crops, c)
		}
	}
	return crops
}
