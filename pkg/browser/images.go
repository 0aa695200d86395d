package browser

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// figureClient fetches remotely hosted figures. Short deadline: figures are
// a bonus, not worth stalling the run for.
var figureClient = &http.Client{Timeout: 15 * time.Second}

// SaveImages writes the full-page screenshot and every extractable figure
// into dir, creating it if absent. Figure files are named by index so
// repeated runs are deterministic. Individual figure failures are logged
// and skipped; the screenshot and remaining figures still land.
func (e *Extractor) SaveImages(page Page, figures []Figure, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	shot := filepath.Join(dir, "response_screenshot.png")
	if err := page.Screenshot(shot, true); err != nil {
		e.log.Warn("screenshot capture failed", zap.Error(err))
	} else {
		paths = append(paths, shot)
	}

	for i, fig := range figures {
		path, err := e.saveFigure(fig, dir, i)
		if err != nil {
			e.log.Warn("figure extraction failed",
				zap.Int("index", i), zap.Error(err))
			continue
		}
		if path != "" {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// saveFigure persists one figure: data URIs are decoded inline, http(s)
// sources are downloaded. Anything else is skipped.
func (e *Extractor) saveFigure(fig Figure, dir string, index int) (string, error) {
	switch {
	case strings.HasPrefix(fig.Src, "data:image"):
		header, data, found := strings.Cut(fig.Src, ",")
		if !found {
			return "", fmt.Errorf("malformed data URI")
		}
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode embedded image: %w", err)
		}
		path := filepath.Join(dir, fmt.Sprintf("figure_%d.%s", index, extFor(header)))
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return "", fmt.Errorf("failed to write figure: %w", err)
		}
		return path, nil

	case strings.HasPrefix(fig.Src, "http://"), strings.HasPrefix(fig.Src, "https://"):
		resp, err := figureClient.Get(fig.Src)
		if err != nil {
			return "", fmt.Errorf("failed to download figure: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("figure download returned %s", resp.Status)
		}
		path := filepath.Join(dir, fmt.Sprintf("figure_%d.%s", index, extFor(fig.Src)))
		out, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("failed to create figure file: %w", err)
		}
		defer out.Close()
		if _, err := io.Copy(out, resp.Body); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("failed to write figure: %w", err)
		}
		return path, nil

	default:
		// Relative or exotic src; nothing portable we can do with it.
		return "", nil
	}
}

func extFor(hint string) string {
	if strings.Contains(strings.ToLower(hint), "png") {
		return "png"
	}
	return "jpg"
}
