package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/smehrotra/docpod/internal/config"
)

// fetchDocument downloads the source into a temp file and returns its
// path. Callers own the file and remove it when done. Downloads larger
// than the configured cap are rejected before buffering the whole body.
func (e *Extractor) fetchDocument(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("building fetch request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}
	if resp.ContentLength > config.MaxPDFSizeBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrSizeLimit, resp.ContentLength)
	}

	tmp, err := os.CreateTemp("", "docpod-*"+sourceExtension(sourceURL))
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	written, err := io.Copy(tmp, io.LimitReader(resp.Body, config.MaxPDFSizeBytes+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: saving document: %v", ErrFetch, err)
	}
	if written > config.MaxPDFSizeBytes {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: over %d bytes", ErrSizeLimit, config.MaxPDFSizeBytes)
	}

	return tmp.Name(), nil
}

func sourceExtension(sourceURL string) string {
	trimmed := sourceURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := strings.ToLower(filepath.Ext(trimmed))
	if ext == "" {
		ext = ".pdf"
	}
	return ext
}
