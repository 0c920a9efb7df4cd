package service

import (
	"cascade"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const integrationBodyLimit = 1 << 20 // 1 MiB

// IntegrationService performs external capability calls for integration
// nodes. Capabilities map to plain HTTP fetches today; errors are returned
// to the engine which tolerates them as inline error markers.
type IntegrationService struct {
	client *http.Client
	logger zerolog.Logger
}

func NewIntegrationService() *IntegrationService {
	return &IntegrationService{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: cascade.Logger,
	}
}

func (slf *IntegrationService) Call(ctx context.Context, capability, input string) (string, error) {
	switch capability {
	case "webScrape", "httpFetch":
		return slf.fetch(ctx, input)
	default:
		return "", fmt.Errorf("unknown integration capability %q", capability)
	}
}

func (slf *IntegrationService) fetch(ctx context.Context, input string) (string, error) {
	url := strings.TrimSpace(input)
	if idx := strings.IndexAny(url, "\n "); idx >= 0 {
		url = url[:idx]
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("integration input is not a URL: %q", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := slf.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("integration fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, integrationBodyLimit))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
