package learnrec

import "errors"

var (
	// ErrRecognizerNotInitialized is returned by a recognizer asked to update
	// or predict before it has ever been trained.
	ErrRecognizerNotInitialized = errors.New("recognizer has not been trained yet")

	// ErrSubjectNotFound is returned by a registry when no subject matches the lookup.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrSubjectExists is returned by a registry on a duplicate subject name.
	ErrSubjectExists = errors.New("subject already exists")

	// ErrSourceUnavailable is returned when the video source could not be opened.
	ErrSourceUnavailable = errors.New("video source is not available")

	// ErrSourceExhausted is returned by a video source with no more frames to deliver.
	ErrSourceExhausted = errors.New("video source exhausted")

	// ErrInvalidSubject is returned when the user fails to designate a usable subject.
	ErrInvalidSubject = errors.New("invalid subject")
)
