// Package driver loads rendered result pages for the scraper. A Driver is
// stateful: PageSource returns the markup of the most recent Navigate call.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jimezsa/jobcrawl/internal/models"
	"github.com/jimezsa/jobcrawl/internal/network"
)

const (
	BackendPlaywright = "playwright"
	BackendHTTP       = "http"
)

var (
	ErrUnknownDriver = errors.New("unknown driver")
	ErrNoPage        = errors.New("no page loaded")
)

type Driver interface {
	Navigate(ctx context.Context, url string) error
	PageSource(ctx context.Context) (string, error)
	Close() error
}

// New starts the backend named by cfg.Backend. The caller owns the returned
// driver and must Close it.
func New(cfg models.DriverConfig, rotator *network.Rotator) (Driver, error) {
	switch NormalizeBackend(cfg.Backend) {
	case BackendPlaywright:
		return NewPlaywright(cfg)
	case BackendHTTP:
		client, err := network.NewClient(rotator, network.ClientOptions{
			Timeout:    cfg.Timeout,
			UserAgents: userAgents(cfg),
		})
		if err != nil {
			return nil, err
		}
		return NewHTTP(client, nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Backend)
	}
}

func NormalizeBackend(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "browser", "chromium":
		return BackendPlaywright
	case "plain", "tls":
		return BackendHTTP
	default:
		return name
	}
}

func userAgents(cfg models.DriverConfig) []string {
	if strings.TrimSpace(cfg.UserAgent) != "" {
		return []string{cfg.UserAgent}
	}
	return cfg.UserAgents
}
