// Package milvus provides the vector index used by the semantic fallback
// tier: catalog embeddings live in one Milvus collection per deployment,
// filtered by tenant at query time.
package milvus

import (
	"context"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/turtacn/CatalogMatch/internal/config"
	"github.com/turtacn/CatalogMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CatalogMatch/pkg/errors"
)

// milvusNewClient is a variable to allow substitution in tests.
var milvusNewClient = client.NewClient

// Client wraps the Milvus SDK client.
type Client struct {
	mc     client.Client
	logger logging.Logger
}

// NewClient connects to Milvus and verifies the connection.
func NewClient(ctx context.Context, cfg config.MilvusConfig, log logging.Logger) (*Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New(errors.ErrCodeValidation, "milvus address is required")
	}

	dbName := cfg.DBName
	if dbName == "" {
		dbName = "default"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mc, err := milvusNewClient(connectCtx, client.Config{
		Address: cfg.Addr,
		DBName:  dbName,
		DialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                60 * time.Second,
				Timeout:             20 * time.Second,
				PermitWithoutStream: true,
			}),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "failed to connect to milvus")
	}

	log.Info("connected to Milvus", logging.String("addr", cfg.Addr))
	return &Client{mc: mc, logger: log}, nil
}

// Raw exposes the underlying SDK client.
func (c *Client) Raw() client.Client {
	return c.mc
}

// CheckHealth verifies the cluster is reachable; used by readiness checks.
func (c *Client) CheckHealth(ctx context.Context) error {
	if _, err := c.mc.CheckHealth(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorSearchFailed, "milvus health check failed")
	}
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.mc.Close()
}
