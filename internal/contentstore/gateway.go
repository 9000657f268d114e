package contentstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxObjectBytes = 8 << 20

// Gateway reads immutable objects over an IPFS HTTP gateway.
type Gateway struct {
	BaseURL string
	HTTP    *http.Client
	// MaxBytes caps an object's size. Zero means 8 MiB.
	MaxBytes int64
}

// ErrNotFound is returned when the gateway has no object for the content id.
var ErrNotFound = errors.New("content not found")

// ErrTooLarge is returned instead of a truncated object.
var ErrTooLarge = errors.New("content exceeds size limit")

func (g *Gateway) Fetch(ctx context.Context, cid string) ([]byte, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return nil, errors.New("empty content id")
	}
	base := strings.TrimRight(strings.TrimSpace(g.BaseURL), "/")
	if base == "" {
		return nil, errors.New("ipfs gateway url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/ipfs/"+url.PathEscape(cid), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ipfs gateway http %d", resp.StatusCode)
	}
	limit := g.MaxBytes
	if limit <= 0 {
		limit = maxObjectBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("ipfs object %s: %w (%d bytes)", cid, ErrTooLarge, limit)
	}
	return b, nil
}

func (g *Gateway) httpClient() *http.Client {
	if g.HTTP != nil {
		return g.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}
