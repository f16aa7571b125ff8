package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/database/postgres"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

const resultColumns = `id, document_id, title, result_date, variant, status, total_nodes, total_edges,
	observed_edges, density, clustering, average_degree, cosponsors, hearings, referred, sponsor, aux, computed_at`

type postgresResultRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewResultRepository returns a legislation.ResultRepository over conn.
// Results are keyed by document id; saving again replaces the previous
// result and its edges.
func NewResultRepository(conn *postgres.Connection, log logging.Logger) legislation.ResultRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresResultRepo{conn: conn, log: log}
}

func (r *postgresResultRepo) SaveResult(ctx context.Context, res *legislation.Result) error {
	var aux []byte
	if res.Aux != nil {
		b, err := json.Marshal(res.Aux)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode auxiliary fields")
		}
		aux = b
	}

	return withTx(ctx, r.conn.DB(), func(tx *sql.Tx) error {
		query := `
			INSERT INTO results (` + resultColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (document_id) DO UPDATE SET
				id = EXCLUDED.id, title = EXCLUDED.title, result_date = EXCLUDED.result_date,
				variant = EXCLUDED.variant, status = EXCLUDED.status,
				total_nodes = EXCLUDED.total_nodes, total_edges = EXCLUDED.total_edges,
				observed_edges = EXCLUDED.observed_edges, density = EXCLUDED.density,
				clustering = EXCLUDED.clustering, average_degree = EXCLUDED.average_degree,
				cosponsors = EXCLUDED.cosponsors, hearings = EXCLUDED.hearings, referred = EXCLUDED.referred,
				sponsor = EXCLUDED.sponsor, aux = EXCLUDED.aux, computed_at = EXCLUDED.computed_at
		`
		_, err := tx.ExecContext(ctx, query,
			res.ID, res.DocumentID, res.Title, res.Date, string(res.Variant), string(res.Status),
			nullInt(res.TotalNodes), nullInt(res.TotalEdges), nullInt(res.ObservedEdges),
			nullFloat(res.Density), nullFloat(res.Clustering), nullFloat(res.AverageDegree),
			res.Cosponsors, res.Hearings, res.Referred, nullString(res.Sponsor), aux, res.ComputedAt,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to upsert result").WithDetail(res.DocumentID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE document_id = $1`, res.DocumentID); err != nil {
			return errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to clear edges")
		}
		for i, e := range res.Edges {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO edges (document_id, position, source, target, weight) VALUES ($1, $2, $3, $4, $5)`,
				res.DocumentID, i, e.Source, e.Target, e.Weight,
			); err != nil {
				return errors.Wrapf(err, errors.ErrCodeDBQueryError, "failed to insert edge %d", i)
			}
		}
		r.log.Debug("result saved", logging.DocID(res.DocumentID), logging.Int("edges", len(res.Edges)))
		return nil
	})
}

// GetResult loads the result of a document with its edges in first-seen
// order.
func (r *postgresResultRepo) GetResult(ctx context.Context, documentID string) (*legislation.Result, error) {
	row := r.conn.DB().QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE document_id = $1`, documentID)
	res, err := scanResult(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("result not found").WithDetail(documentID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.DB().QueryContext(ctx,
		`SELECT source, target, weight FROM edges WHERE document_id = $1 ORDER BY position`, documentID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to query edges")
	}
	defer rows.Close()
	for rows.Next() {
		var e legislation.Edge
		if err := rows.Scan(&e.Source, &e.Target, &e.Weight); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to scan edge")
		}
		res.Edges = append(res.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to iterate edges")
	}
	return res, nil
}

// ListResults pages through results ordered by document id.  Edges are not
// loaded.
func (r *postgresResultRepo) ListResults(ctx context.Context, filter legislation.ResultFilter) ([]*legislation.Result, int64, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Variant != "" {
		args = append(args, string(filter.Variant))
		conds = append(conds, fmt.Sprintf("variant = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.conn.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM results"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to count results")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf("SELECT %s FROM results%s ORDER BY document_id LIMIT $%d OFFSET $%d",
		resultColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to list results")
	}
	defer rows.Close()

	var out []*legislation.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to iterate results")
	}
	return out, total, nil
}

func scanResult(s scanner) (*legislation.Result, error) {
	var (
		res                         legislation.Result
		variant, status             string
		nodes, edges, observed      sql.NullInt64
		density, clustering, avgDeg sql.NullFloat64
		sponsor                     sql.NullString
		aux                         []byte
	)
	err := s.Scan(
		&res.ID, &res.DocumentID, &res.Title, &res.Date, &variant, &status,
		&nodes, &edges, &observed, &density, &clustering, &avgDeg,
		&res.Cosponsors, &res.Hearings, &res.Referred, &sponsor, &aux, &res.ComputedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to scan result")
	}
	res.Variant = legislation.Variant(variant)
	res.Status = legislation.Status(status)
	res.TotalNodes, res.TotalEdges, res.ObservedEdges = intPtr(nodes), intPtr(edges), intPtr(observed)
	res.Density, res.Clustering, res.AverageDegree = floatPtr(density), floatPtr(clustering), floatPtr(avgDeg)
	res.Sponsor = stringPtr(sponsor)
	if len(aux) > 0 {
		var a legislation.AuxFields
		if err := json.Unmarshal(aux, &a); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode auxiliary fields")
		}
		res.Aux = &a
	}
	return &res, nil
}

//Personal.AI order the ending
