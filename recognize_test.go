package learnrec

import (
	"context"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGate_DistanceSemantics(t *testing.T) {
	g := DefaultGate()

	assert.True(t, g.Valid(12.5))
	assert.True(t, g.Valid(DefaultValidityThreshold))
	assert.False(t, g.Valid(80))
}

func TestGate_HigherIsBetter(t *testing.T) {
	g := ConfidenceGate{Threshold: 0.6, HigherIsBetter: true}

	assert.True(t, g.Valid(0.9))
	assert.False(t, g.Valid(0.3))
}

func newIdentifier(rec Recognizer, reg Registry) identifier {
	return identifier{rec: rec, reg: reg, gate: DefaultGate(), logger: discardLogger()}
}

func TestIdentify_EmptyRecognizerShouldNotBeQueried(t *testing.T) {
	rec := &fakeRecognizer{}
	id := newIdentifier(rec, &fakeRegistry{})

	regions := []image.Rectangle{image.Rect(0, 0, 20, 20), image.Rect(30, 30, 60, 60)}
	labels := id.identify(context.Background(), testFrame(100, 100), regions)

	require.Len(t, labels, 2)
	for _, l := range labels {
		assert.Equal(t, UnknownName, l.Name)
		assert.Equal(t, "-", l.ConfidenceText())
		assert.False(t, l.Identified)
	}
	assert.Zero(t, rec.predicts)
}

func TestIdentify_ShouldResolveValidClassification(t *testing.T) {
	rec := &fakeRecognizer{trained: true, label: 2, confidence: 41.237}
	reg := &fakeRegistry{subjects: []Subject{{ID: 1, Name: "ann"}, {ID: 2, Name: "bob"}}}
	id := newIdentifier(rec, reg)

	labels := id.identify(context.Background(), testFrame(100, 100), []image.Rectangle{image.Rect(10, 10, 50, 50)})

	require.Len(t, labels, 1)
	assert.Equal(t, "bob", labels[0].Name)
	assert.Equal(t, 2, labels[0].SubjectID)
	assert.Equal(t, "41.24", labels[0].ConfidenceText())
	assert.True(t, labels[0].Identified)
}

func TestIdentify_GateShouldHideRawPrediction(t *testing.T) {
	rec := &fakeRecognizer{trained: true, label: 2, confidence: 90}
	reg := &fakeRegistry{subjects: []Subject{{ID: 2, Name: "bob"}}}
	id := newIdentifier(rec, reg)

	labels := id.identify(context.Background(), testFrame(100, 100), []image.Rectangle{image.Rect(10, 10, 50, 50)})

	require.Len(t, labels, 1)
	assert.Equal(t, UnknownName, labels[0].Name)
	assert.False(t, labels[0].Identified)
	assert.Equal(t, "90.00", labels[0].ConfidenceText())
}

func TestIdentify_UnknownSubjectShouldRenderFallback(t *testing.T) {
	rec := &fakeRecognizer{trained: true, label: 9, confidence: 10}
	id := newIdentifier(rec, &fakeRegistry{})

	labels := id.identify(context.Background(), testFrame(100, 100), []image.Rectangle{image.Rect(10, 10, 50, 50)})

	require.Len(t, labels, 1)
	assert.Equal(t, FallbackName, labels[0].Name)
}

func TestIdentify_PredictionFailureShouldRenderPlaceholder(t *testing.T) {
	rec := &fakeRecognizer{trained: true, predictErr: errBoom}
	id := newIdentifier(rec, &fakeRegistry{})

	labels := id.identify(context.Background(), testFrame(100, 100), []image.Rectangle{image.Rect(10, 10, 50, 50)})

	require.Len(t, labels, 1)
	assert.Equal(t, UnknownName, labels[0].Name)
	assert.Equal(t, "-", labels[0].ConfidenceText())
}

func TestIdentify_RegionOutsideFrame(t *testing.T) {
	rec := &fakeRecognizer{trained: true, label: 1}
	id := newIdentifier(rec, &fakeRegistry{})

	labels := id.identify(context.Background(), testFrame(100, 100), []image.Rectangle{image.Rect(200, 200, 240, 240)})

	require.Len(t, labels, 1)
	assert.Equal(t, UnknownName, labels[0].Name)
	assert.Zero(t, rec.predicts)
}

func TestCrop_ShouldClipToFrame(t *testing.T) {
	frame := testFrame(100, 80)

	c := Crop(frame, image.Rect(80, 60, 120, 100))
	require.NotNil(t, c)
	assert.Equal(t, 20, c.Bounds().Dx())
	assert.Equal(t, 20, c.Bounds().Dy())

	assert.Nil(t, Crop(frame, image.Rect(100, 0, 110, 10)))
	assert.Len(t, cropAll(frame, []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(-20, -20, -5, -5)}), 1)
}
