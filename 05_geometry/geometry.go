package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

// DefaultPadColor fills the side bars of narrow sources
const DefaultPadColor = "black"

// Normalizer fits arbitrary footage into the configured canvas
type Normalizer struct {
	targetW  int
	targetH  int
	padColor string
}

// New creates a Normalizer for the canvas in cfg
func New(cfg *config.Config) *Normalizer {
	return &Normalizer{
		targetW:  cfg.Canvas.Width,
		targetH:  cfg.Canvas.Height,
		padColor: cfg.Canvas.PadColor,
	}
}

// Plan maps a source frame onto the configured canvas
func (n *Normalizer) Plan(sourceW, sourceH int) (types.GeometryPlan, error) {
	plan, err := PlanGeometry(sourceW, sourceH, n.targetW, n.targetH)
	if err != nil {
		return plan, err
	}
	if plan.Pad != nil && n.padColor != "" {
		plan.Pad.Color = n.padColor
	}
	return plan, nil
}

// PlanGeometry decides between crop, pad and plain scale.
//
// Wider sources lose their sides to a centred crop at full height. Narrower
// sources are never cropped: they get symmetric bars so no content is lost.
// Ratios are compared by cross-multiplication so equal ratios stay equal.
func PlanGeometry(sourceW, sourceH, targetW, targetH int) (types.GeometryPlan, error) {
	plan := types.GeometryPlan{
		SourceWidth:  sourceW,
		SourceHeight: sourceH,
		TargetWidth:  targetW,
		TargetHeight: targetH,
	}
	if sourceW <= 0 || sourceH <= 0 || targetW <= 0 || targetH <= 0 {
		return plan, fmt.Errorf("%w: source %dx%d, target %dx%d", types.ErrInvalidGeometry, sourceW, sourceH, targetW, targetH)
	}

	src := int64(sourceW) * int64(targetH)
	dst := int64(targetW) * int64(sourceH)

	switch {
	case src > dst:
		w := clamp(nearestEven(float64(sourceH)*float64(targetW)/float64(targetH)), 1, sourceW)
		plan.Mode = types.GeometryCrop
		plan.Crop = &types.Rect{X: (sourceW - w) / 2, Y: 0, W: w, H: sourceH}
	case src < dst:
		w := nearestEven(float64(sourceH) * float64(targetW) / float64(targetH))
		if w < sourceW {
			w = sourceW
		}
		total := w - sourceW
		plan.Mode = types.GeometryPad
		plan.Pad = &types.PadMargins{Left: total / 2, Right: total - total/2, Color: DefaultPadColor}
	default:
		plan.Mode = types.GeometryScale
	}
	return plan, nil
}

// Apply returns the frame size produced by running the plan on a source frame.
// It fails when the plan's crop or pad does not fit the source it was built for,
// or when the frame handed to the final scale is more than 1px off the target
// aspect ratio.
func Apply(plan types.GeometryPlan) (int, int, error) {
	w, h := plan.SourceWidth, plan.SourceHeight
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: empty source", types.ErrInvalidGeometry)
	}

	switch plan.Mode {
	case types.GeometryCrop:
		c := plan.Crop
		if c == nil || c.X < 0 || c.Y < 0 || c.W <= 0 || c.H <= 0 || c.X+c.W > w || c.Y+c.H > h {
			return 0, 0, fmt.Errorf("%w: crop %+v outside %dx%d", types.ErrInvalidGeometry, c, w, h)
		}
		w, h = c.W, c.H
	case types.GeometryPad:
		p := plan.Pad
		if p == nil || p.Left < 0 || p.Right < 0 {
			return 0, 0, fmt.Errorf("%w: pad %+v", types.ErrInvalidGeometry, p)
		}
		w += p.Left + p.Right
	case types.GeometryScale:
	default:
		return 0, 0, fmt.Errorf("%w: unknown mode %q", types.ErrInvalidGeometry, plan.Mode)
	}

	// final uniform scale onto the canvas
	if plan.TargetWidth <= 0 || plan.TargetHeight <= 0 {
		return 0, 0, fmt.Errorf("%w: empty target", types.ErrInvalidGeometry)
	}
	tw, th := int64(plan.TargetWidth), int64(plan.TargetHeight)
	if off := int64(w)*th - int64(h)*tw; off > th || off < -th {
		return 0, 0, fmt.Errorf("%w: %dx%d is not %d:%d before scaling", types.ErrInvalidGeometry, w, h, plan.TargetWidth, plan.TargetHeight)
	}
	return plan.TargetWidth, plan.TargetHeight, nil
}

// Filter is one ffmpeg video filter with positional arguments
type Filter struct {
	Name string
	Args []string
}

func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	return f.Name + "=" + strings.Join(f.Args, ":")
}

// Filters returns the ffmpeg filter chain that realises the plan
func Filters(plan types.GeometryPlan) []Filter {
	var chain []Filter
	switch plan.Mode {
	case types.GeometryCrop:
		c := plan.Crop
		chain = append(chain, Filter{Name: "crop", Args: itoa(c.W, c.H, c.X, c.Y)})
	case types.GeometryPad:
		p := plan.Pad
		args := itoa(plan.SourceWidth+p.Left+p.Right, plan.SourceHeight, p.Left, 0)
		color := p.Color
		if color == "" {
			color = DefaultPadColor
		}
		chain = append(chain, Filter{Name: "pad", Args: append(args, color)})
	}
	chain = append(chain,
		Filter{Name: "scale", Args: itoa(plan.TargetWidth, plan.TargetHeight)},
		Filter{Name: "setsar", Args: []string{"1"}},
	)
	return chain
}

// Chain joins filters into a single -vf expression
func Chain(filters []Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

func itoa(vals ...int) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.Itoa(v)
	}
	return out
}

// nearestEven rounds v to the closest even pixel count, so it is never
// more than 1px away
func nearestEven(v float64) int { return 2 * int(math.Round(v/2)) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
