package footage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const userAgent = "Mozilla/5.0 (compatible; PsychologyFactsBot/1.0)"

// minVideoBytes rejects error pages served with a 200
const minVideoBytes = 1024

// download streams uri into dir/name. The body goes to a temp file first and
// is only renamed into place once fully written, so a failed or cancelled
// download never leaves a truncated file behind.
func (r *Resolver) download(ctx context.Context, uri, dir, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d downloading %s", resp.StatusCode, truncate(uri, 80))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, name+".*.part")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if n < minVideoBytes {
		return "", fmt.Errorf("response too small (%d bytes), likely an error page", n)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	outFile := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, outFile); err != nil {
		return "", err
	}
	committed = true
	return outFile, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
