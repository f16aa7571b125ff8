package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/database/postgres"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

var resultCols = []string{
	"id", "document_id", "title", "result_date", "variant", "status", "total_nodes", "total_edges",
	"observed_edges", "density", "clustering", "average_degree", "cosponsors", "hearings", "referred",
	"sponsor", "aux", "computed_at",
}

type RepoTestSuite struct {
	suite.Suite
	mock    sqlmock.Sqlmock
	db      *sql.DB
	docs    legislation.DocumentRepository
	results legislation.ResultRepository
}

func (s *RepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	s.Require().NoError(err)

	logger := logging.NewNopLogger()
	conn := postgres.NewConnectionWithDB(s.db, logger)
	s.docs = NewDocumentRepository(conn, logger)
	s.results = NewResultRepository(conn, logger)
}

func (s *RepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func TestRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RepoTestSuite))
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func (s *RepoTestSuite) TestSaveDocument() {
	sponsor := "Obey"
	doc := &legislation.Document{
		ID: "111th-congress_house-bill_1", Country: "us", Title: "Recovery Act", Date: "2009-01-26",
		Type: "annual", Subtype: "law", Sponsor: &sponsor, Cosponsors: []string{"a"},
	}
	s.mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, "us", "Recovery Act", "2009-01-26", "annual", "law", false,
			"Obey", nil, nil, []byte(`{"cosponsors":["a"]}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.docs.SaveDocument(context.Background(), doc))
}

func (s *RepoTestSuite) TestSaveRows_ReplacesInTransaction() {
	rows := []legislation.Row{
		{Level: 0, Label: "SEC. 1", SectionNumber: "1", FieldType: legislation.FieldTitle, Text: "Short title."},
		{Level: 0, Label: "SEC. 1", SectionNumber: "1", FieldType: legislation.FieldBody, Text: "This Act may be cited."},
	}
	s.mock.ExpectBegin()
	s.mock.ExpectExec("DELETE FROM sections WHERE document_id = \\$1").WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 3))
	s.mock.ExpectExec("INSERT INTO sections").
		WithArgs("d1", 0, 0, "SEC. 1", "1", "title", "Short title.").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("INSERT INTO sections").
		WithArgs("d1", 1, 0, "SEC. 1", "1", "body", "This Act may be cited.").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.NoError(s.docs.SaveRows(context.Background(), "d1", rows))
}

func (s *RepoTestSuite) TestSaveRows_RollsBackOnError() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec("DELETE FROM sections").WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec("INSERT INTO sections").WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	err := s.docs.SaveRows(context.Background(), "d1", []legislation.Row{{Text: "x"}})
	s.True(errors.IsCode(err, errors.ErrCodeDBQueryError))
}

func (s *RepoTestSuite) TestGetDocument() {
	s.mock.ExpectQuery("SELECT id, country, title").WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "country", "title", "doc_date", "doc_type", "subtype", "amendment",
			"sponsor", "sponsor_party", "policy_area", "metadata",
		}).AddRow("d1", "us", "An Act", "2010-03-01", "annual", "law", true, nil, "200", nil,
			[]byte(`{"cosponsors":["a","b"],"hearings":["h"]}`)))

	doc, err := s.docs.GetDocument(context.Background(), "d1")
	s.Require().NoError(err)
	s.Equal("An Act", doc.Title)
	s.True(doc.Amendment)
	s.Nil(doc.Sponsor)
	s.Require().NotNil(doc.SponsorParty)
	s.Equal("200", *doc.SponsorParty)
	s.Equal([]string{"a", "b"}, doc.Cosponsors)
	s.Equal([]string{"h"}, doc.Hearings)
}

func (s *RepoTestSuite) TestGetDocument_NotFound() {
	s.mock.ExpectQuery("SELECT id, country, title").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := s.docs.GetDocument(context.Background(), "nope")
	s.True(errors.IsNotFound(err))
}

func (s *RepoTestSuite) TestGetRows() {
	s.mock.ExpectQuery("SELECT level, header_label").WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"level", "header_label", "section_number", "field_type", "body_text"}).
			AddRow(0, "SEC. 1", "1", "body", "text one").
			AddRow(1, "(a)", "1.1", "body", "text two"))

	rows, err := s.docs.GetRows(context.Background(), "d1")
	s.Require().NoError(err)
	s.Equal([]legislation.Row{
		{Level: 0, Label: "SEC. 1", SectionNumber: "1", FieldType: legislation.FieldBody, Text: "text one"},
		{Level: 1, Label: "(a)", SectionNumber: "1.1", FieldType: legislation.FieldBody, Text: "text two"},
	}, rows)
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

func (s *RepoTestSuite) TestSaveResult() {
	nodes, edges := 3, 2
	clustering, degree := 0.0, 4.0/3.0
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	res := &legislation.Result{
		ID: "6f1c1f5e-7c55-4c2e-9a61-2b3f5d8e9a10", DocumentID: "d1", Title: "An Act", Date: "2010-03-01",
		Variant: legislation.VariantClassification, Status: legislation.StatusAnalyzed,
		TotalNodes: &nodes, TotalEdges: &edges, Clustering: &clustering, AverageDegree: &degree,
		Edges:      []legislation.Edge{{Source: "board", Target: "senate", Weight: 1}, {Source: "senate", Target: "agency", Weight: 1}},
		Cosponsors: 2, ComputedAt: at,
	}

	s.mock.ExpectBegin()
	s.mock.ExpectExec("INSERT INTO results").
		WithArgs(res.ID, "d1", "An Act", "2010-03-01", "classification", "analyzed",
			3, 2, nil, nil, 0.0, degree, 2, 0, 0, nil, sqlmock.AnyArg(), at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("DELETE FROM edges").WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectExec("INSERT INTO edges").WithArgs("d1", 0, "board", "senate", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("INSERT INTO edges").WithArgs("d1", 1, "senate", "agency", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.NoError(s.results.SaveResult(context.Background(), res))
}

func (s *RepoTestSuite) TestGetResult_NullStatistics() {
	at := time.Now().UTC()
	s.mock.ExpectQuery("SELECT (.+) FROM results WHERE document_id = \\$1").WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(resultCols).AddRow(
			"id-1", "d1", "An Act", "02/17/2009", "density", "analyzed",
			nil, nil, nil, nil, nil, nil, 1, 0, 2, "Obey", []byte(`{"control":"unified"}`), at))
	s.mock.ExpectQuery("SELECT source, target, weight FROM edges").WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"source", "target", "weight"}))

	res, err := s.results.GetResult(context.Background(), "d1")
	s.Require().NoError(err)
	s.Equal(legislation.VariantDensity, res.Variant)
	s.Nil(res.TotalNodes)
	s.Nil(res.Density)
	s.Empty(res.Edges)
	s.Require().NotNil(res.Aux)
	s.Equal("unified", *res.Aux.Control)
	s.Equal("Obey", *res.Sponsor)
}

func (s *RepoTestSuite) TestGetResult_NotFound() {
	s.mock.ExpectQuery("SELECT (.+) FROM results").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := s.results.GetResult(context.Background(), "nope")
	s.True(errors.IsNotFound(err))
}

func (s *RepoTestSuite) TestListResults_Filtered() {
	at := time.Now().UTC()
	s.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM results WHERE variant = \\$1 AND status = \\$2").
		WithArgs("classification", "analyzed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	s.mock.ExpectQuery("SELECT (.+) FROM results WHERE variant = \\$1 AND status = \\$2 ORDER BY document_id LIMIT \\$3 OFFSET \\$4").
		WithArgs("classification", "analyzed", 2, 4).
		WillReturnRows(sqlmock.NewRows(resultCols).
			AddRow("id-1", "d1", "A", "", "classification", "analyzed", 3, 2, nil, nil, 0.5, 1.0, 0, 0, 0, nil, nil, at).
			AddRow("id-2", "d2", "B", "", "classification", "analyzed", 2, 1, nil, nil, 0.0, 1.0, 0, 0, 0, nil, nil, at))

	list, total, err := s.results.ListResults(context.Background(), legislation.ResultFilter{
		Variant: legislation.VariantClassification, Status: legislation.StatusAnalyzed, Limit: 2, Offset: 4,
	})
	s.Require().NoError(err)
	s.Equal(int64(7), total)
	s.Require().Len(list, 2)
	s.Equal(3, *list[0].TotalNodes)
	s.Equal(0.5, *list[0].Clustering)
	s.Nil(list[1].Aux)
}

func (s *RepoTestSuite) TestListResults_DefaultLimit() {
	s.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM results$").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery("SELECT (.+) FROM results ORDER BY document_id").
		WithArgs(defaultListLimit, 0).
		WillReturnRows(sqlmock.NewRows(resultCols))

	list, total, err := s.results.ListResults(context.Background(), legislation.ResultFilter{Offset: -3})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(list)
}

//Personal.AI order the ending
