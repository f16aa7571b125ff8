package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

var (
	ErrInvalidConfig    = errors.New(errors.ErrCodeValidation, "invalid configuration")
	ErrConnectionFailed = errors.New(errors.ErrCodeSearchError, "connection failed")
)

// ClientConfig holds the configuration for the OpenSearch client.
type ClientConfig struct {
	Addresses           []string
	Username            string
	Password            string
	InsecureSkipVerify  bool
	MaxRetries          int
	RetryBackoff        time.Duration
	RequestTimeout      time.Duration
	MaxIdleConnsPerHost int
	HealthCheckInterval time.Duration
}

// ClientConfigFromOpenSearch maps the application settings onto a
// ClientConfig.
func ClientConfigFromOpenSearch(cfg config.OpenSearchConfig) ClientConfig {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return ClientConfig{
		Addresses:          cfg.Addresses,
		Username:           cfg.Username,
		Password:           cfg.Password,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		RequestTimeout:     timeout,
	}
}

// Client manages the OpenSearch client connection.
type Client struct {
	client  *opensearch.Client
	config  ClientConfig
	logger  logging.Logger
	healthy atomic.Bool
	cancel  context.CancelFunc
}

// NewClient creates a client, verifies connectivity and starts a background
// health check.
func NewClient(cfg ClientConfig, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg = applyClientDefaults(cfg)

	transport := &http.Transport{
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	backoff := cfg.RetryBackoff
	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  func(i int) time.Duration { return backoff * time.Duration(i) },
		Transport:     transport,
		RetryOnStatus: []int{502, 503, 504, 429},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "failed to create opensearch client")
	}

	c := NewClientWithOpenSearch(osClient, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	if err := c.Ping(ctx); err != nil {
		cancel()
		return nil, ErrConnectionFailed.WithCause(err)
	}
	go c.startHealthCheck(ctx)

	c.logger.Info("OpenSearch client connected", logging.Any("addresses", cfg.Addresses))
	return c, nil
}

// NewClientWithOpenSearch wraps an already built client without pinging it.
func NewClientWithOpenSearch(osClient *opensearch.Client, cfg ClientConfig, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Client{
		client: osClient,
		config: applyClientDefaults(cfg),
		logger: logger.Named("opensearch"),
		cancel: func() {},
	}
	c.healthy.Store(true)
	return c
}

func applyClientDefaults(cfg ClientConfig) ClientConfig {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	return cfg
}

// Ping checks the connection to OpenSearch.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping failed", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeSearchError, "ping failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping returned error status", logging.Int("status", resp.StatusCode))
		return errors.New(errors.ErrCodeSearchError, fmt.Sprintf("ping returned status %d", resp.StatusCode))
	}

	c.healthy.Store(true)
	return nil
}

// IsHealthy returns the result of the last ping.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// GetClient returns the underlying OpenSearch client.
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// Close stops the health check.
func (c *Client) Close() error {
	c.cancel()
	c.logger.Info("OpenSearch client closed")
	return nil
}

func (c *Client) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.Ping(ctx)
			curr := c.healthy.Load()

			if prev && !curr {
				c.logger.Error("OpenSearch cluster became unhealthy", logging.Err(err))
			} else if !prev && curr {
				c.logger.Info("OpenSearch cluster recovered")
			}
		}
	}
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg ClientConfig) error {
	if len(cfg.Addresses) == 0 {
		return ErrInvalidConfig
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	if cfg.RequestTimeout < 0 {
		return errors.New(errors.ErrCodeValidation, "RequestTimeout must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
