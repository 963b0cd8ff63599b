package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Store reads raw result output either from the local filesystem or over
// HTTP, depending on the path scheme. It implements coordinator.BlobStore.
type Store struct {
	client *http.Client
}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{client: &http.Client{Timeout: 60 * time.Second}}
}

// GetReadStream opens the raw output at path. http(s) URLs are fetched,
// anything else is treated as a local file path.
func (s *Store) GetReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
		}
		return resp.Body, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
