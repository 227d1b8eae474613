package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/Jdelg140/psychology-facts-bot/05_geometry"
	"github.com/Jdelg140/psychology-facts-bot/06_captions"
	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

// Compositor assembles the background, narration and captions into a Timeline
type Compositor struct {
	canvasW       int
	canvasH       int
	sideMarginPx  int
	loopMarginSec float64
	titleFontSize int
	factFontSize  int
}

// NewCompositor creates a Compositor from the canvas, caption and timeline settings in cfg
func NewCompositor(cfg *config.Config) *Compositor {
	return &Compositor{
		canvasW:       cfg.Canvas.Width,
		canvasH:       cfg.Canvas.Height,
		sideMarginPx:  cfg.Captions.SideMarginPx,
		loopMarginSec: cfg.Timeline.LoopMarginSec,
		titleFontSize: cfg.Captions.TitleFontSize,
		factFontSize:  cfg.Captions.FactFontSize,
	}
}

// Compose builds the Timeline for one run. The background is looped in whole
// plays until it covers totalSec plus the loop margin, then trimmed to
// [0, totalSec]. Any disagreement between the parts and totalSec is fatal.
func (c *Compositor) Compose(runID string, asset types.MediaAsset, plan types.GeometryPlan, windows []types.CaptionWindow, totalSec float64, audio types.AudioHandle) (*types.Timeline, error) {
	if !(totalSec > 0) || math.IsInf(totalSec, 0) {
		return nil, fmt.Errorf("%w: total duration %v", types.ErrTimelineDurationMismatch, totalSec)
	}

	w, h, err := geometry.Apply(plan)
	if err != nil {
		return nil, err
	}
	if w != c.canvasW || h != c.canvasH {
		return nil, fmt.Errorf("%w: geometry yields %dx%d, canvas is %dx%d", types.ErrInvalidGeometry, w, h, c.canvasW, c.canvasH)
	}

	loops, err := LoopCount(asset.DurationSec, totalSec, c.loopMarginSec)
	if err != nil {
		return nil, err
	}
	bg := types.BackgroundTrack{
		Asset:        asset,
		Plan:         plan,
		LoopCount:    loops,
		LoopedSec:    float64(loops) * asset.DurationSec,
		TrimStartSec: 0,
		TrimEndSec:   totalSec,
	}
	if bg.LoopedSec < totalSec {
		return nil, fmt.Errorf("%w: looped background %.3fs shorter than %.3fs", types.ErrTimelineDurationMismatch, bg.LoopedSec, totalSec)
	}

	safe := c.SafeArea()
	layered, err := c.layer(windows, safe.W)
	if err != nil {
		return nil, err
	}
	if err := captions.Verify(layered, totalSec); err != nil {
		return nil, err
	}

	tl := &types.Timeline{
		RunID:            runID,
		TotalDurationSec: totalSec,
		Background:       bg,
		Audio:            audio,
		Captions:         layered,
		SafeArea:         safe,
	}
	if err := checkSpan(tl, totalSec); err != nil {
		return nil, err
	}
	return tl, nil
}

// SafeArea is the horizontally centred band captions must stay within
func (c *Compositor) SafeArea() types.Rect {
	return types.Rect{X: c.sideMarginPx, Y: 0, W: c.canvasW - 2*c.sideMarginPx, H: c.canvasH}
}

// layer copies the windows into start order and wraps their text to the safe width
func (c *Compositor) layer(windows []types.CaptionWindow, safeW int) ([]types.CaptionWindow, error) {
	if safeW <= 0 {
		return nil, fmt.Errorf("%w: side margins leave no safe area", types.ErrInvalidGeometry)
	}
	out := make([]types.CaptionWindow, len(windows))
	copy(out, windows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartSec < out[j].StartSec })

	for i := range out {
		size := c.factFontSize
		if out[i].Kind == types.CaptionTitle {
			size = c.titleFontSize
		}
		out[i].Lines = captions.Wrap(out[i].Text, captions.MaxCharsPerLine(safeW, size))
	}
	return out, nil
}

// LoopCount is the smallest number of whole plays of a srcSec clip that
// covers totalSec plus marginSec.
func LoopCount(srcSec, totalSec, marginSec float64) (int, error) {
	if !(srcSec > 0) || math.IsInf(srcSec, 0) {
		return 0, fmt.Errorf("%w: background duration unknown (%v)", types.ErrTimelineDurationMismatch, srcSec)
	}
	if marginSec < 0 {
		marginSec = 0
	}
	need := totalSec + marginSec
	n := int(math.Ceil(need / srcSec))
	if n < 1 {
		n = 1
	}
	for float64(n)*srcSec < need {
		n++
	}
	for n > 1 && float64(n-1)*srcSec >= need {
		n--
	}
	return n, nil
}

func checkSpan(tl *types.Timeline, totalSec float64) error {
	if tl.TotalDurationSec != totalSec {
		return fmt.Errorf("%w: timeline %v, narration %v", types.ErrTimelineDurationMismatch, tl.TotalDurationSec, totalSec)
	}
	if span := tl.Background.TrimEndSec - tl.Background.TrimStartSec; span != totalSec {
		return fmt.Errorf("%w: trimmed background spans %v, want %v", types.ErrTimelineDurationMismatch, span, totalSec)
	}
	return nil
}
