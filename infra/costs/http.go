package costs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/dayplan/auth"
)

// HTTPConfig configures the remote cost profile service.
type HTTPConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
	Auth    auth.Conf     `json:"auth"`
}

type costRequest struct {
	Categories []string `json:"categories"`
}

type costResponse struct {
	Costs [][]float64 `json:"costs"`
}

// HTTPProvider posts the requested categories to a remote service and
// expects one hourly row per category in return. Requests carry an OAuth2
// bearer token when credentials are configured.
type HTTPProvider struct {
	url    string
	client *http.Client
	cred   *auth.ClientCred
}

// NewHTTPProvider returns a provider for cfg.
func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("cost service url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	p := &HTTPProvider{url: cfg.URL, client: &http.Client{Timeout: cfg.Timeout}}
	if cfg.Auth.Enabled() {
		p.cred = auth.NewClientCred(cfg.Auth)
	}
	return p, nil
}

func (p *HTTPProvider) HourlyCosts(ctx context.Context, categories []string) ([][]float64, error) {
	body, err := json.Marshal(costRequest{Categories: categories})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cred != nil {
		if err := p.cred.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("failed to set auth header: %w", err)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, b)
	}
	var out costResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Costs, nil
}
