package milvus

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/kcscroggins/water-institute-chatbot/internal/config"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient wraps the raw Milvus client together with its configuration.
type MilvusClient struct {
	Client client.Client
	Config *config.MilvusConfig
}

// GetClient creates and returns the Milvus client as a process-wide singleton.
// The connection is established once for the application lifetime.
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("cannot connect to Milvus at %s: %w", cfg.Address, err)
			return
		}
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close safely shuts down the Milvus connection.
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// HealthCheck verifies the Milvus connection is usable.
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection creates the chunk collection with its vector index when it
// does not exist yet, and loads it for search. Cosine metric matches the
// embedding space the chatbot was built against.
func (c *MilvusClient) EnsureCollection(ctx context.Context, dim int) error {
	collName := c.Config.Collection

	has, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("checking collection '%s': %w", collName, err)
	}

	if !has {
		schema := entity.NewSchema().
			WithName(collName).
			WithDescription("Water Institute faculty and general-info chunks").
			WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(256).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName("source_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(256)).
			WithField(entity.NewField().WithName("doc_type").WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
			WithField(entity.NewField().WithName("display_name").WithDataType(entity.FieldTypeVarChar).WithMaxLength(512)).
			WithField(entity.NewField().WithName("file_name").WithDataType(entity.FieldTypeVarChar).WithMaxLength(512)).
			WithField(entity.NewField().WithName("chunk").WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
			WithField(entity.NewField().WithName("embedding").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))

		if err := c.Client.CreateCollection(ctx, schema, 1); err != nil {
			return fmt.Errorf("creating collection '%s': %w", collName, err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
		if err != nil {
			return fmt.Errorf("building HNSW index definition: %w", err)
		}
		if err := c.Client.CreateIndex(ctx, collName, "embedding", idx, false); err != nil {
			return fmt.Errorf("creating index on '%s': %w", collName, err)
		}
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("loading collection '%s': %w", collName, err)
	}
	return nil
}

// DropCollection removes the collection entirely. Used by full rebuilds.
func (c *MilvusClient) DropCollection(ctx context.Context) error {
	has, err := c.Client.HasCollection(ctx, c.Config.Collection)
	if err != nil {
		return err
	}
	if !has {
		return nil
	}
	return c.Client.DropCollection(ctx, c.Config.Collection)
}

// Count returns the approximate number of entries in the collection.
func (c *MilvusClient) Count(ctx context.Context) (int64, error) {
	stats, err := c.Client.GetCollectionStatistics(ctx, c.Config.Collection)
	if err != nil {
		return 0, fmt.Errorf("collection statistics for '%s': %w", c.Config.Collection, err)
	}
	rows, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing row_count: %w", err)
	}
	return rows, nil
}

// Flush persists buffered writes. Called at the end of an ingestion run.
func (c *MilvusClient) Flush(ctx context.Context) error {
	if err := c.Client.Flush(ctx, c.Config.Collection, false); err != nil {
		return fmt.Errorf("flushing collection '%s': %w", c.Config.Collection, err)
	}
	return nil
}
