package learnrec

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDraw_ShouldNotAlterSourceFrame(t *testing.T) {
	frame := testFrame(120, 90)
	before := frame.(*image.NRGBA).Pix[0]

	out := Annotate(frame, Overlay{
		Mode:   Scan,
		Phase:  PhaseScanning,
		Labels: []Label{{Rect: image.Rect(20, 20, 60, 60), Name: "ann", Identified: true, Scored: true, Confidence: 12}},
	})

	assert.Equal(t, frame.Bounds(), out.Bounds())
	assert.Equal(t, before, frame.(*image.NRGBA).Pix[0])
}

func TestDraw_ShouldOutlineFaces(t *testing.T) {
	frame := testFrame(120, 90)
	r := image.Rect(40, 40, 80, 80)

	scan := Annotate(frame, Overlay{Mode: Scan, Labels: []Label{{Rect: r, Name: UnknownName}}})
	assert.Equal(t, color.NRGBAModel.Convert(UnknownColor), scan.At(60, 79))

	known := Annotate(frame, Overlay{Mode: Scan, Labels: []Label{{Rect: r, Name: "ann", Identified: true}}})
	assert.Equal(t, color.NRGBAModel.Convert(IdentifiedColor), known.At(40, 60))

	learn := Annotate(frame, Overlay{Mode: Learn, Phase: PhaseLearning, Labels: []Label{{Rect: r, Name: "ann"}}})
	assert.Equal(t, color.NRGBAModel.Convert(LearnColor), learn.At(79, 60))

	// Inside the rectangle the frame is left untouched.
	assert.Equal(t, frame.At(60, 60), color.Color(learn.At(60, 60)))
}

func TestDraw_ShouldClipRegionsOutsideFrame(t *testing.T) {
	frame := testFrame(50, 50)

	assert.NotPanics(t, func() {
		Annotate(frame, Overlay{Mode: Scan, Labels: []Label{{Rect: image.Rect(40, -10, 90, 30), Name: "far away subject"}}})
	})
}

func TestOverlay_Status(t *testing.T) {
	bob := Subject{ID: 3, Name: "bob"}

	assert.Equal(t, "SCAN", Overlay{Phase: PhaseScanning}.Status())
	assert.Equal(t, "SCAN in 2s", Overlay{Phase: PhaseScanCountdown, Countdown: 1100 * time.Millisecond}.Status())
	assert.Equal(t, "LEARN in 7s", Overlay{Phase: PhaseLearnCountdown, Countdown: 7 * time.Second}.Status())
	assert.Equal(t, "LEARN bob [4]", Overlay{Phase: PhaseLearning, Subject: bob, Buffered: 4}.Status())
}

func TestKey_FromCode(t *testing.T) {
	assert.Equal(t, KeyNone, KeyFromCode(-1))
	assert.Equal(t, KeyLearn, KeyFromCode('l'))
	assert.Equal(t, KeyStop, KeyFromCode('s'))
	assert.Equal(t, KeyStop, KeyFromCode(' '))
	assert.Equal(t, KeyQuit, KeyFromCode('q'))
	assert.Equal(t, KeyQuit, KeyFromCode(27))
	assert.Equal(t, KeyQuit, KeyFromCode(0x100000|'q'))
	assert.Equal(t, KeyNone, KeyFromCode('x'))
}
