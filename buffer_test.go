package learnrec

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_ShouldExceedOnlyAboveThreshold(t *testing.T) {
	var b SampleBuffer

	b.Append(fill(DefaultFlushThreshold)...)
	assert.Equal(t, DefaultFlushThreshold, b.Len())
	assert.False(t, b.Exceeds(DefaultFlushThreshold))

	b.Append(fill(1)...)
	assert.True(t, b.Exceeds(DefaultFlushThreshold))
}

func TestBuffer_DrainShouldEmptyTheBuffer(t *testing.T) {
	var b SampleBuffer
	samples := fill(5)
	b.Append(samples...)

	drained := b.Drain()
	assert.Equal(t, samples, drained)
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Drain())

	b.Append(fill(2)...)
	assert.Len(t, drained, 5)
}

func TestBuffer_BatchShouldLabelEverySample(t *testing.T) {
	b := newBatch(fill(4), 7)

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, []int{7, 7, 7, 7}, b.Labels)
}

func TestBuffer_CopiesShouldNotShareAppends(t *testing.T) {
	var b SampleBuffer
	b.Append(fill(3)...)
	b.Append(fill(1)...)

	left, right := b, b
	a := image.NewGray(image.Rect(0, 0, 1, 1))
	c := image.NewGray(image.Rect(0, 0, 2, 2))
	left.Append(a)
	right.Append(c)

	assert.Equal(t, 4, b.Len())
	assert.Same(t, a, left.samples[4])
	assert.Same(t, c, right.samples[4])
}
