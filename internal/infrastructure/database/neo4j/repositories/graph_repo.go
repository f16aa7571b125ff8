// Package repositories implements the legislation graph store on Neo4j.
//
// Every analyzed document contributes its co-occurrence edges as
// (:Entity)-[:CO_OCCURS {doc_id, weight}]-(:Entity) relationships, so entity
// neighborhoods can be queried across the whole corpus.
package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	driver "github.com/turtacn/LegisGraph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

const (
	defaultNeighborLimit = 25
	maxNeighborLimit     = 500
)

const (
	deleteDocumentEdgesCypher = `
		MATCH (:Entity)-[r:CO_OCCURS {doc_id: $docId}]-(:Entity)
		DELETE r
	`
	mergeEdgesCypher = `
		UNWIND $edges AS edge
		MERGE (a:Entity {name: edge.source})
		MERGE (b:Entity {name: edge.target})
		MERGE (a)-[r:CO_OCCURS {doc_id: $docId}]->(b)
		SET r.weight = edge.weight
	`
	neighborsCypher = `
		MATCH (e:Entity {name: $name})-[r:CO_OCCURS]-(n:Entity)
		RETURN n.name AS entity, r.weight AS weight, r.doc_id AS doc_id
		ORDER BY weight DESC, entity ASC, doc_id ASC
		LIMIT $limit
	`
)

// EnsureConstraintsCypher makes entity names unique.
const EnsureConstraintsCypher = `CREATE CONSTRAINT entity_name IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE`

type neo4jGraphRepo struct {
	driver driver.DriverInterface
	log    logging.Logger
}

// NewNeo4jGraphRepo returns a legislation.GraphStore over d.
func NewNeo4jGraphRepo(d driver.DriverInterface, log logging.Logger) legislation.GraphStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &neo4jGraphRepo{driver: d, log: log}
}

// EnsureConstraints creates the entity name constraint when missing.
func EnsureConstraints(ctx context.Context, d driver.DriverInterface) error {
	_, err := d.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		_, err := tx.Run(ctx, EnsureConstraintsCypher, nil)
		return nil, err
	})
	return err
}

// ReplaceGraph drops the edges previously stored for documentID and writes
// edges in one transaction.  Self-loops never reach the store.
func (r *neo4jGraphRepo) ReplaceGraph(ctx context.Context, documentID string, edges []legislation.Edge) error {
	if documentID == "" {
		return errors.InvalidParam("document id is required")
	}
	params := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		params = append(params, map[string]any{
			"source": e.Source,
			"target": e.Target,
			"weight": int64(e.Weight),
		})
	}

	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		if _, err := tx.Run(ctx, deleteDocumentEdgesCypher, map[string]any{"docId": documentID}); err != nil {
			return nil, err
		}
		if len(params) == 0 {
			return nil, nil
		}
		_, err := tx.Run(ctx, mergeEdgesCypher, map[string]any{"docId": documentID, "edges": params})
		return nil, err
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to replace document graph").WithDetail(documentID)
	}
	r.log.Debug("graph replaced", logging.DocID(documentID), logging.Int("edges", len(params)))
	return nil
}

// Neighbors returns the entities sharing a chunk with entity, heaviest first.
func (r *neo4jGraphRepo) Neighbors(ctx context.Context, entity string, limit int) ([]legislation.EntityNeighbor, error) {
	if entity == "" {
		return nil, errors.InvalidParam("entity is required")
	}
	if limit <= 0 {
		limit = defaultNeighborLimit
	}
	if limit > maxNeighborLimit {
		limit = maxNeighborLimit
	}

	out, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, neighborsCypher, map[string]any{"name": entity, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, res, mapNeighbor)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to query neighbors").WithDetail(entity)
	}
	neighbors, _ := out.([]legislation.EntityNeighbor)
	return neighbors, nil
}

func mapNeighbor(rec *neo4j.Record) (legislation.EntityNeighbor, error) {
	var n legislation.EntityNeighbor
	name, ok := rec.Get("entity")
	if !ok {
		return n, fmt.Errorf("record missing entity")
	}
	n.Entity, _ = name.(string)
	if w, ok := rec.Get("weight"); ok {
		switch v := w.(type) {
		case int64:
			n.Weight = int(v)
		case int:
			n.Weight = v
		}
	}
	if d, ok := rec.Get("doc_id"); ok {
		n.DocumentID, _ = d.(string)
	}
	return n, nil
}

//Personal.AI order the ending
