package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const defaultProbeTimeout = 30 * time.Second

// Info is what the pipeline needs to know about a media file
type Info struct {
	Width       int
	Height      int
	DurationSec float64
	HasVideo    bool
	HasAudio    bool
}

// Prober measures media files
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// FFProbe runs ffprobe through ffmpeg-go
type FFProbe struct{}

// Probe reads stream dimensions and container duration of path
func (FFProbe) Probe(ctx context.Context, path string) (Info, error) {
	timeout := defaultProbeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	out, err := ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return ParseProbe([]byte(out))
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
		Tags      struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbe decodes ffprobe's JSON output
func ParseProbe(data []byte) (Info, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Info{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info Info
	var streamDur float64
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width, info.Height = s.Width, s.Height
			// phone footage is often stored landscape with a rotate tag
			if s.Tags.Rotate == "90" || s.Tags.Rotate == "270" || s.Tags.Rotate == "-90" {
				info.Width, info.Height = s.Height, s.Width
			}
			streamDur, _ = strconv.ParseFloat(s.Duration, 64)
		case "audio":
			info.HasAudio = true
		}
	}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.DurationSec = d
	} else {
		info.DurationSec = streamDur
	}
	if info.DurationSec < 0 {
		info.DurationSec = 0
	}
	return info, nil
}
