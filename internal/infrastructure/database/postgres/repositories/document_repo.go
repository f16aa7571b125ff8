package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/database/postgres"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// documentMetadata holds the list-valued document fields stored as JSONB.
type documentMetadata struct {
	Cosponsors []string `json:"cosponsors,omitempty"`
	Referred   []string `json:"referred,omitempty"`
	Hearings   []string `json:"hearings,omitempty"`
}

type postgresDocumentRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewDocumentRepository returns a legislation.DocumentRepository over conn.
func NewDocumentRepository(conn *postgres.Connection, log logging.Logger) legislation.DocumentRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresDocumentRepo{conn: conn, log: log}
}

func (r *postgresDocumentRepo) SaveDocument(ctx context.Context, doc *legislation.Document) error {
	query := `
		INSERT INTO documents (
			id, country, title, doc_date, doc_type, subtype, amendment, sponsor, sponsor_party, policy_area, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (id) DO UPDATE SET
			country = EXCLUDED.country, title = EXCLUDED.title, doc_date = EXCLUDED.doc_date,
			doc_type = EXCLUDED.doc_type, subtype = EXCLUDED.subtype, amendment = EXCLUDED.amendment,
			sponsor = EXCLUDED.sponsor, sponsor_party = EXCLUDED.sponsor_party,
			policy_area = EXCLUDED.policy_area, metadata = EXCLUDED.metadata, updated_at = NOW()
	`
	meta, err := json.Marshal(documentMetadata{Cosponsors: doc.Cosponsors, Referred: doc.Referred, Hearings: doc.Hearings})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document metadata")
	}
	_, err = r.conn.DB().ExecContext(ctx, query,
		doc.ID, doc.Country, doc.Title, doc.Date, doc.Type, doc.Subtype, doc.Amendment,
		nullString(doc.Sponsor), nullString(doc.SponsorParty), nullString(doc.PolicyArea), meta,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to save document").WithDetail(doc.ID)
	}
	return nil
}

// SaveRows replaces the stored rows of a document in one transaction.
func (r *postgresDocumentRepo) SaveRows(ctx context.Context, documentID string, rows []legislation.Row) error {
	return withTx(ctx, r.conn.DB(), func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE document_id = $1`, documentID); err != nil {
			return errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to clear sections")
		}
		query := `
			INSERT INTO sections (document_id, position, level, header_label, section_number, field_type, body_text)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for i, row := range rows {
			if _, err := tx.ExecContext(ctx, query,
				documentID, i, row.Level, row.Label, row.SectionNumber, string(row.FieldType), row.Text,
			); err != nil {
				return errors.Wrapf(err, errors.ErrCodeDBQueryError, "failed to insert section row %d", i)
			}
		}
		r.log.Debug("sections saved", logging.DocID(documentID), logging.Int("rows", len(rows)))
		return nil
	})
}

func (r *postgresDocumentRepo) GetDocument(ctx context.Context, id string) (*legislation.Document, error) {
	query := `
		SELECT id, country, title, doc_date, doc_type, subtype, amendment, sponsor, sponsor_party, policy_area, metadata
		FROM documents WHERE id = $1
	`
	var (
		doc                  legislation.Document
		sponsor, party, area sql.NullString
		meta                 []byte
	)
	err := r.conn.DB().QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.Country, &doc.Title, &doc.Date, &doc.Type, &doc.Subtype, &doc.Amendment,
		&sponsor, &party, &area, &meta,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("document not found").WithDetail(id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to get document")
	}
	doc.Sponsor = stringPtr(sponsor)
	doc.SponsorParty = stringPtr(party)
	doc.PolicyArea = stringPtr(area)
	if len(meta) > 0 {
		var m documentMetadata
		if err := json.Unmarshal(meta, &m); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode document metadata")
		}
		doc.Cosponsors, doc.Referred, doc.Hearings = m.Cosponsors, m.Referred, m.Hearings
	}
	return &doc, nil
}

func (r *postgresDocumentRepo) GetRows(ctx context.Context, documentID string) ([]legislation.Row, error) {
	query := `
		SELECT level, header_label, section_number, field_type, body_text
		FROM sections WHERE document_id = $1 ORDER BY position
	`
	rows, err := r.conn.DB().QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to query sections")
	}
	defer rows.Close()

	var out []legislation.Row
	for rows.Next() {
		var (
			row       legislation.Row
			fieldType string
		)
		if err := rows.Scan(&row.Level, &row.Label, &row.SectionNumber, &fieldType, &row.Text); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to scan section")
		}
		row.FieldType = legislation.FieldType(fieldType)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to iterate sections")
	}
	return out, nil
}

//Personal.AI order the ending
