package learnrec

import (
	"context"
	"errors"
	"image"
	"log/slog"
)

// DefaultValidityThreshold is the largest LBPH distance accepted as a match.
const DefaultValidityThreshold = 65.0

// ConfidenceGate decides whether a classification is trustworthy enough to be
// displayed. By default the confidence is a distance: lower values are better
// and a classification passes when its confidence does not exceed Threshold.
type ConfidenceGate struct {
	Threshold      float64
	HigherIsBetter bool
}

// DefaultGate returns the gate matching the LBPH distance scale.
func DefaultGate() ConfidenceGate {
	return ConfidenceGate{Threshold: DefaultValidityThreshold}
}

// Valid reports whether a classification with the given confidence passes the gate.
func (g ConfidenceGate) Valid(confidence float64) bool {
	if g.HigherIsBetter {
		return confidence >= g.Threshold
	}
	return confidence <= g.Threshold
}

// identifier turns detected faces into overlay labels.
type identifier struct {
	rec    Recognizer
	reg    Registry
	gate   ConfidenceGate
	logger *slog.Logger
}

// identify labels every region of the frame. An empty recognizer is never
// queried: every face gets the placeholder.
func (id identifier) identify(ctx context.Context, frame image.Image, regions []image.Rectangle) []Label {
	labels := make([]Label, 0, len(regions))
	empty := id.rec.Empty()
	for _, r := range regions {
		if empty {
			labels = append(labels, Label{Rect: r, Name: UnknownName})
			continue
		}
		labels = append(labels, id.label(ctx, frame, r))
	}
	return labels
}

func (id identifier) label(ctx context.Context, frame image.Image, r image.Rectangle) Label {
	l := Label{Rect: r, Name: UnknownName}

	face := Crop(frame, r)
	if face == nil {
		return l
	}
	subject, conf, err := id.rec.Predict(face)
	if err != nil {
		id.logger.Warn("classification failed", "region", r.String(), "error", err)
		return l
	}
	l.Confidence, l.Scored = conf, true
	if subject < 0 || !id.gate.Valid(conf) {
		return l
	}

	name, err := id.reg.Name(ctx, subject)
	switch {
	case errors.Is(err, ErrSubjectNotFound):
		name = FallbackName
	case err != nil:
		id.logger.Warn("subject lookup failed", "subject", subject, "error", err)
		name = FallbackName
	}
	l.Name, l.SubjectID, l.Identified = name, subject, true
	return l
}
