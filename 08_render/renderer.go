package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Jdelg140/psychology-facts-bot/05_geometry"
	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// runFunc executes a compiled ffmpeg command line
type runFunc func(ctx context.Context, args []string) error

// Renderer encodes a Timeline into the final vertical MP4
type Renderer struct {
	render   config.RenderConfig
	captions config.CaptionsConfig
	run      runFunc
	logger   *slog.Logger
}

// New creates a Renderer with the fixed output parameters from cfg
func New(cfg *config.Config, logger *slog.Logger) *Renderer {
	return &Renderer{
		render:   cfg.Render,
		captions: cfg.Captions,
		run:      execFFmpeg,
		logger:   logger.With("stage", "render"),
	}
}

// Run renders tl into runDir/final_video.mp4
func (r *Renderer) Run(ctx context.Context, tl *types.Timeline, runDir string) (string, error) {
	outFile := filepath.Join(runDir, "final_video.mp4")
	args, err := r.Args(tl, runDir, outFile)
	if err != nil {
		return "", err
	}

	r.logger.Info("encoding", "captions", len(tl.Captions), "loops", tl.Background.LoopCount,
		"geometry", geometry.Chain(geometry.Filters(tl.Background.Plan)), "duration", tl.TotalDurationSec)
	if err := r.run(ctx, args); err != nil {
		return "", fmt.Errorf("ffmpeg render: %w", err)
	}

	r.logger.Info("final video ready", "file", outFile)
	return outFile, nil
}

// Args writes the caption text files into runDir and returns the ffmpeg
// arguments that render tl to outFile.
func (r *Renderer) Args(tl *types.Timeline, runDir, outFile string) ([]string, error) {
	stream, err := r.build(tl, runDir, outFile)
	if err != nil {
		return nil, err
	}
	return stream.GetArgs(), nil
}

func (r *Renderer) build(tl *types.Timeline, runDir, outFile string) (*ffmpeg.Stream, error) {
	if tl.Background.LoopCount < 1 {
		return nil, fmt.Errorf("%w: loop count %d", types.ErrTimelineDurationMismatch, tl.Background.LoopCount)
	}
	total := seconds(tl.TotalDurationSec)

	inKw := ffmpeg.KwArgs{}
	if extra := tl.Background.LoopCount - 1; extra > 0 {
		inKw["stream_loop"] = extra
	}
	video := ffmpeg.Input(tl.Background.Asset.LocalPath, inKw).Video().
		Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{
			"start": seconds(tl.Background.TrimStartSec),
			"end":   seconds(tl.Background.TrimEndSec),
		}).
		Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"})

	for _, f := range geometry.Filters(tl.Background.Plan) {
		video = video.Filter(f.Name, ffmpeg.Args(f.Args))
	}
	video = video.Filter("fps", ffmpeg.Args{strconv.Itoa(r.render.FPS)})

	textDir := filepath.Join(runDir, "captions")
	if err := os.MkdirAll(textDir, 0755); err != nil {
		return nil, fmt.Errorf("create caption dir: %w", err)
	}
	for i, w := range tl.Captions {
		textFile := filepath.Join(textDir, fmt.Sprintf("caption_%02d.txt", i))
		if err := os.WriteFile(textFile, []byte(captionText(w)), 0644); err != nil {
			return nil, fmt.Errorf("write caption %d: %w", i, err)
		}
		video = video.Filter("drawtext", ffmpeg.Args{}, r.drawtext(w, textFile, tl.SafeArea))
	}

	audio := ffmpeg.Input(tl.Audio.Path).Audio()

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outFile, ffmpeg.KwArgs{
		"c:v":      r.render.VideoCodec,
		"c:a":      r.render.AudioCodec,
		"b:a":      r.render.AudioBitrate,
		"preset":   r.render.Preset,
		"threads":  r.render.Threads,
		"r":        r.render.FPS,
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
		"t":        total,
	}).OverWriteOutput(), nil
}

// drawtext centres one caption inside the safe area with a linear crossfade
func (r *Renderer) drawtext(w types.CaptionWindow, textFile string, safe types.Rect) ffmpeg.KwArgs {
	size := r.captions.FactFontSize
	if w.Kind == types.CaptionTitle {
		size = r.captions.TitleFontSize
	}
	return ffmpeg.KwArgs{
		"textfile":     textFile,
		"expansion":    "none",
		"font":         r.captions.Font,
		"fontsize":     size,
		"fontcolor":    r.captions.Color,
		"borderw":      r.captions.StrokeWidth,
		"bordercolor":  r.captions.StrokeColor,
		"line_spacing": size / 5,
		"x":            fmt.Sprintf("%d+(%d-text_w)/2", safe.X, safe.W),
		"y":            fmt.Sprintf("%d+(%d-text_h)/2", safe.Y, safe.H),
		"alpha":        alphaExpr(w),
		"enable":       fmt.Sprintf("between(t,%s,%s)", seconds(w.StartSec), seconds(w.EndSec())),
	}
}

// alphaExpr ramps opacity up over the fade-in and down over the fade-out
func alphaExpr(w types.CaptionWindow) string {
	start, end := seconds(w.StartSec), seconds(w.EndSec())
	expr := "1"
	if w.FadeOutSec > 0 {
		fo := seconds(w.FadeOutSec)
		expr = fmt.Sprintf("if(gt(t,%s-%s),(%s-t)/%s,%s)", end, fo, end, fo, expr)
	}
	if w.FadeInSec > 0 {
		fi := seconds(w.FadeInSec)
		expr = fmt.Sprintf("if(lt(t,%s+%s),(t-%s)/%s,%s)", start, fi, start, fi, expr)
	}
	return expr
}

func captionText(w types.CaptionWindow) string {
	if len(w.Lines) > 0 {
		return strings.Join(w.Lines, "\n")
	}
	return w.Text
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func execFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
