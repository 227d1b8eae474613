package captions

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Jdelg140/psychology-facts-bot/types"
)

// WriteSRT exports the caption windows as an SRT side file so the upload can
// carry a captions track matching the burned-in text.
func WriteSRT(windows []types.CaptionWindow, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for i, win := range windows {
		text := win.Text
		if len(win.Lines) > 0 {
			text = strings.Join(win.Lines, "\n")
		}
		fmt.Fprintf(w, "%d\n", i+1)
		fmt.Fprintf(w, "%s --> %s\n", formatTimestamp(win.StartSec), formatTimestamp(win.EndSec()))
		fmt.Fprintf(w, "%s\n\n", text)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// ValidateSRT checks that every block in srtFile is a numbered cue with a
// timing line and at least one line of text.
func ValidateSRT(srtFile string) error {
	data, err := os.ReadFile(srtFile)
	if err != nil {
		return err
	}

	blocks := strings.Split(strings.TrimSpace(string(data)), "\n\n")
	for i, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) < 3 || strings.TrimSpace(lines[0]) != strconv.Itoa(i+1) || !strings.Contains(lines[1], " --> ") {
			return fmt.Errorf("SRT file appears empty or malformed at cue %d", i+1)
		}
	}
	return nil
}

// formatTimestamp renders seconds as HH:MM:SS,mmm
func formatTimestamp(seconds float64) string {
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	minutes := (totalMillis / 60_000) % 60
	secs := (totalMillis / 1000) % 60
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
