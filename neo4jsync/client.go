// Package neo4jsync mirrors a normalized checklist graph into Neo4j.
package neo4jsync

import (
	"context"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/teranos/taxgraph/am"
	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/logger"
)

const (
	defaultUser           = "neo4j"
	defaultTimeoutSeconds = 10
	defaultMaxPoolSize    = 50
)

// Client holds a verified driver and the target database name.
type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *zap.SugaredLogger
}

// New connects to the configured server and verifies connectivity.
func New(ctx context.Context, cfg am.Neo4jConfig, log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = logger.Logger
	}
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, errors.WithHint(
			errors.NewInvalidInputError("neo4j.uri is not set"),
			"set neo4j.uri in taxgraph.toml or TAXGRAPH_NEO4J_URI")
	}
	user := strings.TrimSpace(cfg.User)
	if user == "" {
		user = defaultUser
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = defaultMaxPoolSize
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, errors.Wrap(err, "init neo4j driver")
	}

	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Wrapf(err, "verify neo4j connectivity at %s", uri)
	}

	log.Infow("neo4j connected", "uri", uri, "database", cfg.Database)
	return &Client{
		Driver:   driver,
		Database: strings.TrimSpace(cfg.Database),
		log:      log.Named("neo4j"),
	}, nil
}

// Close releases the driver. Safe on a nil client.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.Driver == nil {
		return nil
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}
