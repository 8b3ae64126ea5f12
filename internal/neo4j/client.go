// Package neo4j writes confirmed analysis results into the case graph.
// Persistence happens only after an analyst explicitly confirms a run;
// the in-memory pipeline never calls this package.
package neo4j

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/casetrace/smart-import/internal/config"
	"github.com/casetrace/smart-import/internal/resolver"
)

// Client wraps the Neo4j driver for graph persistence.
type Client struct {
	driver neo4j.DriverWithContext
	config config.Neo4jConfig
	logger *slog.Logger
}

// NewClient creates a new Neo4j client and verifies connectivity.
func NewClient(cfg config.Neo4jConfig, logger *slog.Logger) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = cfg.MaxConnections
			c.ConnectionAcquisitionTimeout = cfg.ConnectionTimeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	return &Client{driver: driver, config: cfg, logger: logger}, nil
}

// Close shuts down the driver.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// PersistGraph writes the run's entities and edges into the destination
// case. Entities are merged on their run-scoped key so re-confirming the
// same run is idempotent; edges are created fresh, repeated transfers stay
// repeated.
func (c *Client) PersistGraph(ctx context.Context, caseID string, entities []*resolver.Entity, edges []*resolver.Edge) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, entity := range entities {
			query := `
				MERGE (e:Entity {case_id: $case_id, key: $key})
				SET e.type = $type,
				    e.label = $label,
				    e.risk_score = $risk_score,
				    e.sources = $sources,
				    e.total_sent = $total_sent,
				    e.total_received = $total_received,
				    e.transaction_count = $transaction_count,
				    e.call_count = $call_count,
				    e.used_mixer = $used_mixer,
				    e.foreign_transfer = $foreign_transfer,
				    e.role = $role`

			params := map[string]any{
				"case_id":           caseID,
				"key":               entity.Key,
				"type":              string(entity.Type),
				"label":             entity.Label,
				"risk_score":        entity.RiskScore,
				"sources":           entity.Sources,
				"total_sent":        entity.Metadata.TotalSent,
				"total_received":    entity.Metadata.TotalReceived,
				"transaction_count": entity.Metadata.TransactionCount,
				"call_count":        entity.Metadata.CallCount,
				"used_mixer":        entity.Metadata.UsedMixer,
				"foreign_transfer":  entity.Metadata.ForeignTransfer,
				"role":              entity.Metadata.Role,
			}

			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, fmt.Errorf("failed to persist entity %s: %w", entity.Key, err)
			}
		}

		for _, edge := range edges {
			query := `
				MATCH (src:Entity {case_id: $case_id, key: $source_key})
				MATCH (dst:Entity {case_id: $case_id, key: $target_key})
				MERGE (src)-[r:RELATES {id: $id}]->(dst)
				SET r.type = $type,
				    r.label = $label,
				    r.amount = $amount,
				    r.date = $date`

			params := map[string]any{
				"case_id":    caseID,
				"id":         edge.ID,
				"source_key": edge.SourceKey,
				"target_key": edge.TargetKey,
				"type":       edge.Type,
				"label":      edge.Label,
				"amount":     edge.Amount,
				"date":       edge.Date,
			}

			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, fmt.Errorf("failed to persist edge %s: %w", edge.ID, err)
			}
		}

		return nil, nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("analysis graph persisted",
		"case_id", caseID,
		"entities", len(entities),
		"edges", len(edges))
	return nil
}
