// Package manual downloads the ReaScript API manual and keeps fetched
// copies zstd-compressed on disk, keyed by source URL.
package manual

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/singleflight"

	"reascribe/internal/config"
)

const userAgent = "reascribe/0.1.0"

// Loader fetches manuals with an on-disk cache. Concurrent loads of the
// same URL collapse into a single fetch.
type Loader struct {
	client *http.Client
	group  singleflight.Group
}

func NewLoader(timeout time.Duration) *Loader {
	return &Loader{client: &http.Client{Timeout: timeout}}
}

// Load returns the manual document for url, from the cache unless refresh
// is set or the cache misses. Freshly fetched documents are cached before
// returning.
func (l *Loader) Load(ctx context.Context, url string, refresh bool) (string, error) {
	if !refresh {
		if doc, err := readCache(url); err == nil {
			return doc, nil
		}
	}

	v, err, _ := l.group.Do(url, func() (interface{}, error) {
		doc, err := l.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := writeCache(url, doc); err != nil {
			slog.Warn("failed to cache manual", "url", url, "error", err)
		}
		return doc, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Fetch downloads the manual from url, bypassing the cache.
func (l *Loader) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("manual server returned %d for %s: %s", resp.StatusCode, url, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(data), nil
}

// CachePath returns the sharded cache location for a manual URL:
// manual/<first2>/<rest>.html.zst under the cache base.
func CachePath(url string) string {
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
	return filepath.Join(config.ManualCacheDir(), hash[:2], hash[2:]+".html.zst")
}

// Cached reports whether a cached copy exists for url.
func Cached(url string) bool {
	_, err := os.Stat(CachePath(url))
	return err == nil
}

func writeCache(url, content string) error {
	p := CachePath(url)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("creating manual cache directory: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		w.Close()
		return fmt.Errorf("compressing manual: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}

	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing manual cache file: %w", err)
	}
	return nil
}

func readCache(url string) (string, error) {
	f, err := os.Open(CachePath(url))
	if err != nil {
		return "", fmt.Errorf("reading manual cache for %s: %w", url, err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompressing manual cache for %s: %w", url, err)
	}
	return string(data), nil
}
