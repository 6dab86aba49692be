package learnrec

import "image"

// DefaultFlushThreshold is the number of buffered samples which has to be
// exceeded before the buffer is submitted to the recognizer.
const DefaultFlushThreshold = 30

// SampleBuffer accumulates the face crops of the active subject.
// It is append-only until drained. Copies of a buffer never share the
// storage appended to.
type SampleBuffer struct {
	samples []image.Image
}

// Append adds the crops of one frame.
func (b *SampleBuffer) Append(samples ...image.Image) {
	n := len(b.samples)
	b.samples = append(b.samples[:n:n], samples...)
}

// Len returns the number of buffered samples.
func (b *SampleBuffer) Len() int {
	return len(b.samples)
}

// Exceeds reports whether the buffer holds more samples than threshold.
func (b *SampleBuffer) Exceeds(threshold int) bool {
	return len(b.samples) > threshold
}

// Drain empties the buffer and returns its content. The returned slice is
// never written by the buffer afterwards.
func (b *SampleBuffer) Drain() []image.Image {
	s := b.samples
	b.samples = nil
	return s
}

// Batch is a labeled set of samples submitted to the recognizer at once.
type Batch struct {
	Samples []image.Image
	Labels  []int
}

// Len returns the number of samples of the batch.
func (b Batch) Len() int { return len(b.Samples) }

// newBatch labels every sample with id.
func newBatch(samples []image.Image, id int) Batch {
	labels := make([]int, len(samples))
	for i := range labels {
		labels[i] = id
	}
	return Batch{Samples: samples, Labels: labels}
}
