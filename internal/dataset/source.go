package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source：本地数据集的原始字节来源
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// StatusError：HTTP 来源返回非 2xx
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dataset: GET %s: status %d", e.URL, e.Code)
}

// NewSource：http(s):// 前缀走 HTTP，其余视为本地文件路径
func NewSource(loc string, client *http.Client) Source {
	l := strings.ToLower(loc)
	if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") {
		return &HTTPSource{URL: loc, Client: client}
	}
	return FileSource(loc)
}

type FileSource string

func (f FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", string(f), err)
	}
	return b, nil
}

func (f FileSource) String() string { return string(f) }

type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset: GET %s: %w", h.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: h.URL, Code: resp.StatusCode}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dataset: read body: %w", err)
	}
	return b, nil
}

func (h *HTTPSource) String() string { return h.URL }
