package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const streamBatchSize = 1000

// records est la partie de neo4j.ResultWithContext qu'on consomme.
type records interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

type Neo4jFollowerSource struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jFollowerSource(driver neo4j.DriverWithContext) *Neo4jFollowerSource {
	return &Neo4jFollowerSource{driver: driver}
}

// GetFollowerIDs matérialise la liste complète: le fan-out doit la découper lui-même en batches.
func (s *Neo4jFollowerSource) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.StreamFollowerIDs(ctx, userID, streamBatchSize, func(batch []string) error {
		ids = append(ids, batch...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: followers of %s: %w", userID, err)
	}
	return ids, nil
}

// StreamFollowerIDs lit les abonnés au fil de l'eau, sans tout charger côté driver.
func (s *Neo4jFollowerSource) StreamFollowerIDs(ctx context.Context, userID string, batchSize int, yield func([]string) error) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// Pas d'ExecuteRead: on veut streamer le résultat manuellement
	query := `MATCH (u:User {id: $userId})<-[:FOLLOWS]-(f:User) RETURN f.id AS followerId`

	res, err := session.Run(ctx, query, map[string]any{"userId": userID})
	if err != nil {
		return err
	}
	return drain(ctx, res, batchSize, yield)
}

func drain(ctx context.Context, res records, batchSize int, yield func([]string) error) error {
	batch := make([]string, 0, batchSize)

	for res.Next(ctx) {
		raw, ok := res.Record().Get("followerId")
		if !ok {
			continue
		}
		id, ok := raw.(string)
		if !ok || id == "" {
			continue
		}
		batch = append(batch, id)

		if len(batch) >= batchSize {
			if err := yield(batch); err != nil {
				return err
			}
			// yield peut garder la tranche
			batch = make([]string, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := yield(batch); err != nil {
			return err
		}
	}

	return res.Err()
}
