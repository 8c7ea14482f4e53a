package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pinnlo/pinnlo-server/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrEnhancerNotConfigured = errors.New("AI enhancement is not configured")

// Enhancer fills in card fields using an external AI function.
type Enhancer interface {
	Enhance(ctx context.Context, req models.EnhanceRequest) (map[string]any, error)
}

type EnhancerClient struct {
	Client *http.Client
	URL    string
	APIKey string
}

func NewEnhancerClient(url, apiKey string, timeout time.Duration) *EnhancerClient {
	return &EnhancerClient{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		URL:    url,
		APIKey: apiKey,
	}
}

// Enhance posts the request to the enhancement function and returns the
// enhanced fields. A response with success=false is an error.
func (ec *EnhancerClient) Enhance(ctx context.Context, enhanceReq models.EnhanceRequest) (map[string]any, error) {
	if ec.URL == "" {
		return nil, ErrEnhancerNotConfigured
	}

	body, err := json.Marshal(enhanceReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode enhance request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ec.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ec.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+ec.APIKey)
	}

	resp, err := ec.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("enhancer returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var out models.EnhanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode enhancer response: %w", err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "enhancement failed"
		}
		return nil, fmt.Errorf("enhancer: %s", msg)
	}
	if out.EnhancedData == nil {
		out.EnhancedData = map[string]any{}
	}
	return out.EnhancedData, nil
}
