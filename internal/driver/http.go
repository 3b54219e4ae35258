package driver

import (
	"context"
	"fmt"
	"io"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/jobcrawl/internal/network"
)

// HTTP fetches raw markup without rendering JavaScript. Responses are kept
// whatever their status code; callers see error pages as ordinary markup.
type HTTP struct {
	client  *network.Client
	headers map[string]string
	source  string
	status  int
	loaded  bool
}

func NewHTTP(client *network.Client, headers map[string]string) *HTTP {
	return &HTTP{client: client, headers: headers}
}

func (h *HTTP) Navigate(ctx context.Context, target string) error {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return err
	}
	applyHeaders(req, h.headers)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}

	h.source = string(body)
	h.status = resp.StatusCode
	h.loaded = true
	return nil
}

func (h *HTTP) PageSource(_ context.Context) (string, error) {
	if !h.loaded {
		return "", ErrNoPage
	}
	return h.source, nil
}

// Status reports the HTTP status of the last navigation.
func (h *HTTP) Status() int {
	return h.status
}

func (h *HTTP) Close() error {
	h.source = ""
	h.loaded = false
	return nil
}

func applyHeaders(req *fhttp.Request, headers map[string]string) {
	merged := map[string]string{
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"accept-language": "en-US,en;q=0.9",
	}
	for key, value := range headers {
		merged[key] = value
	}
	for key, value := range merged {
		req.Header.Set(key, value)
	}
}
