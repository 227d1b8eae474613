package captions

import (
	"fmt"
	"math"
	"strings"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

// contiguityEpsilon bounds the gap allowed between one window's end and the next start
const contiguityEpsilon = 1e-9

// Scheduler lays out the title and fact captions against the narration
type Scheduler struct {
	titleSec     float64
	crossfadeSec float64
	uppercase    bool
}

// New creates a Scheduler from the caption settings in cfg
func New(cfg *config.Config) *Scheduler {
	return &Scheduler{
		titleSec:     cfg.Captions.TitleWindowSec,
		crossfadeSec: cfg.Captions.CrossfadeSec,
		uppercase:    cfg.Captions.UppercaseFacts,
	}
}

// Schedule builds the caption windows for one short
func (s *Scheduler) Schedule(title string, facts []string, totalSec float64) ([]types.CaptionWindow, error) {
	if s.uppercase {
		upper := make([]string, len(facts))
		for i, f := range facts {
			upper[i] = strings.ToUpper(f)
		}
		facts = upper
	}
	return Schedule(title, facts, totalSec, s.titleSec, s.crossfadeSec)
}

// Schedule splits totalSec into a title window followed by one window per fact.
// Fact windows share the remaining time equally; the last one is stretched or
// shrunk so that it ends exactly at totalSec.
func Schedule(title string, facts []string, totalSec, titleSec, crossfadeSec float64) ([]types.CaptionWindow, error) {
	switch {
	case len(facts) == 0:
		return nil, fmt.Errorf("%w: no facts to schedule", types.ErrInvalidScheduleConfig)
	case !(totalSec > 0) || math.IsInf(totalSec, 0):
		return nil, fmt.Errorf("%w: total duration %v", types.ErrInvalidScheduleConfig, totalSec)
	case !(titleSec > 0):
		return nil, fmt.Errorf("%w: title window %v", types.ErrInvalidScheduleConfig, titleSec)
	case titleSec >= totalSec:
		return nil, fmt.Errorf("%w: title window %.3fs does not fit in %.3fs", types.ErrInvalidScheduleConfig, titleSec, totalSec)
	case !(crossfadeSec >= 0):
		return nil, fmt.Errorf("%w: crossfade %v", types.ErrInvalidScheduleConfig, crossfadeSec)
	}

	windows := make([]types.CaptionWindow, 0, len(facts)+1)
	windows = append(windows, newWindow(types.CaptionTitle, title, 0, titleSec, crossfadeSec))

	step := (totalSec - titleSec) / float64(len(facts))
	for i, fact := range facts {
		start := titleSec + float64(i)*step
		dur := step
		if i == len(facts)-1 {
			start, dur = lastSpan(start, totalSec)
		}
		windows = append(windows, newWindow(types.CaptionFact, fact, start, dur, crossfadeSec))
	}

	if err := Verify(windows, totalSec); err != nil {
		return nil, err
	}
	return windows, nil
}

func newWindow(kind types.CaptionKind, text string, start, dur, crossfade float64) types.CaptionWindow {
	fade := math.Min(crossfade, dur/2)
	return types.CaptionWindow{
		Kind:        kind,
		Text:        text,
		StartSec:    start,
		DurationSec: dur,
		FadeInSec:   fade,
		FadeOutSec:  fade,
	}
}

// spanTo returns d such that start+d == end in float64 arithmetic.
// end-start alone can be off by an ulp once start and end are far apart.
func spanTo(start, end float64) float64 {
	d := end - start
	for i := 0; i < 4 && start+d != end; i++ {
		if start+d < end {
			d = math.Nextafter(d, math.Inf(1))
		} else {
			d = math.Nextafter(d, math.Inf(-1))
		}
	}
	return d
}

// lastSpan returns the start and duration of the window closing at end.
// When no duration from start lands exactly on end, start moves by a few
// ulps instead, which stays well inside contiguityEpsilon.
func lastSpan(start, end float64) (float64, float64) {
	d := spanTo(start, end)
	if start+d == end {
		return start, d
	}
	d = end - start
	s := end - d
	for i := 0; i < 4 && s+d != end; i++ {
		if s+d < end {
			s = math.Nextafter(s, math.Inf(1))
		} else {
			s = math.Nextafter(s, math.Inf(-1))
		}
	}
	return s, d
}

// Verify checks the schedule invariants independently of how the windows
// were built: the title starts at zero, windows are contiguous and in order,
// none runs past totalSec, fades fit inside their window, and the last
// window ends exactly at totalSec.
func Verify(windows []types.CaptionWindow, totalSec float64) error {
	if len(windows) == 0 {
		return fmt.Errorf("%w: empty schedule", types.ErrTimelineDurationMismatch)
	}
	if windows[0].StartSec != 0 {
		return fmt.Errorf("%w: first window starts at %v", types.ErrTimelineDurationMismatch, windows[0].StartSec)
	}
	for i, w := range windows {
		if !(w.DurationSec > 0) {
			return fmt.Errorf("%w: window %d has duration %v", types.ErrTimelineDurationMismatch, i, w.DurationSec)
		}
		if w.EndSec() > totalSec {
			return fmt.Errorf("%w: window %d ends at %v past %v", types.ErrTimelineDurationMismatch, i, w.EndSec(), totalSec)
		}
		if w.FadeInSec < 0 || w.FadeOutSec < 0 || w.FadeInSec > w.DurationSec/2 || w.FadeOutSec > w.DurationSec/2 {
			return fmt.Errorf("%w: window %d fades %v/%v exceed half of %v", types.ErrTimelineDurationMismatch, i, w.FadeInSec, w.FadeOutSec, w.DurationSec)
		}
		if i > 0 {
			if gap := w.StartSec - windows[i-1].EndSec(); math.Abs(gap) > contiguityEpsilon {
				return fmt.Errorf("%w: gap of %v before window %d", types.ErrTimelineDurationMismatch, gap, i)
			}
		}
	}
	if last := windows[len(windows)-1]; last.EndSec() != totalSec {
		return fmt.Errorf("%w: last window ends at %v, want %v", types.ErrTimelineDurationMismatch, last.EndSec(), totalSec)
	}
	return nil
}
