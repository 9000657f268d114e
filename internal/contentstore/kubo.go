package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Kubo talks to an IPFS node through its RPC API (/api/v0).
type Kubo struct {
	BaseURL string
	HTTP    *http.Client
}

type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Add uploads data as a single pinned file and returns its content id.
func (k *Kubo) Add(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("pin", "true")
	b, err := k.post(ctx, "add", q, &body, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	// Kubo streams one JSON object per added entry; a single file yields one.
	dec := json.NewDecoder(bytes.NewReader(b))
	var ar addResponse
	if err := dec.Decode(&ar); err != nil {
		return "", fmt.Errorf("ipfs add: decode response: %w", err)
	}
	cid := strings.TrimSpace(ar.Hash)
	if cid == "" {
		return "", errors.New("ipfs add: empty hash in response")
	}
	return cid, nil
}

// Mkdir creates an MFS directory, including parents.
func (k *Kubo) Mkdir(ctx context.Context, path string) error {
	q := url.Values{}
	q.Set("arg", path)
	q.Set("parents", "true")
	_, err := k.post(ctx, "files/mkdir", q, nil, "")
	return err
}

// Copy links src (e.g. /ipfs/<cid>) into the MFS at dst.
func (k *Kubo) Copy(ctx context.Context, src, dst string) error {
	q := url.Values{}
	q.Add("arg", src)
	q.Add("arg", dst)
	_, err := k.post(ctx, "files/cp", q, nil, "")
	return err
}

func (k *Kubo) post(ctx context.Context, cmd string, q url.Values, body io.Reader, contentType string) ([]byte, error) {
	base := strings.TrimRight(strings.TrimSpace(k.BaseURL), "/")
	if base == "" {
		return nil, errors.New("ipfs api url is empty")
	}
	endpoint := base + "/api/v0/" + cmd
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := k.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ipfs %s http %d: %s", cmd, resp.StatusCode, kuboMessage(b))
	}
	return b, nil
}

// kuboMessage extracts {"Message": "..."} from an RPC error body.
func kuboMessage(b []byte) string {
	var e struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(b, &e); err == nil && strings.TrimSpace(e.Message) != "" {
		return strings.TrimSpace(e.Message)
	}
	return strings.TrimSpace(string(b))
}

func (k *Kubo) httpClient() *http.Client {
	if k.HTTP != nil {
		return k.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}
