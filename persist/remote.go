package persist

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tang-isab/swimlane-chart/domain"
)

const (
	dataPath           = "/api/data"
	maxResponseSize    = 8 << 20
	defaultHTTPTimeout = 10 * time.Second
)

// StatusError reports a non-2xx answer from the data service.
type StatusError struct {
	Method string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, dataPath, e.Code)
}

// Remote talks to the shared data service.
type Remote struct {
	BaseURL string
	HTTP    *http.Client
	// Token is sent as a bearer token on saves when set.
	Token string
	// GzipMinSize compresses save bodies at least this large; 0 disables.
	GzipMinSize int
}

// NewRemote creates a client for the data service at baseURL.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

type saveResponse struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
}

// Load fetches the stored board.
func (r *Remote) Load(ctx context.Context) (domain.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+dataPath, nil)
	if err != nil {
		return domain.Snapshot{}, err
	}
	req.Header.Set("Accept", "application/json")
	var snap domain.Snapshot
	if err := r.do(req, &snap); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// Save posts the snapshot and returns the server's timestamp.
func (r *Remote) Save(ctx context.Context, snap domain.Snapshot) (string, error) {
	body, err := sonic.Marshal(snap)
	if err != nil {
		return "", err
	}
	compressed := r.GzipMinSize > 0 && len(body) >= r.GzipMinSize
	if compressed {
		if body, err = gzipBytes(body); err != nil {
			return "", err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+dataPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if compressed {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}
	var resp saveResponse
	if err := r.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Timestamp, nil
}

func (r *Remote) do(req *http.Request, out any) error {
	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return &StatusError{Method: req.Method, Code: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Method, err)
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
