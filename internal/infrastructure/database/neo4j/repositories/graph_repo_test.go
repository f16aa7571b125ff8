package repositories

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

type GraphRepoTestSuite struct {
	suite.Suite
	mockDriver *MockInfraDriver
	mockTx     *MockInfraTransaction
	repo       legislation.GraphStore
}

func (s *GraphRepoTestSuite) SetupTest() {
	s.mockDriver, s.mockTx = SetupMockDriver(s.T())
	s.repo = NewNeo4jGraphRepo(s.mockDriver, logging.NewNopLogger())
}

func TestGraphRepoTestSuite(t *testing.T) {
	suite.Run(t, new(GraphRepoTestSuite))
}

func (s *GraphRepoTestSuite) TestReplaceGraph_DeletesThenMerges() {
	s.mockTx.On("Run", mock.Anything, deleteDocumentEdgesCypher, map[string]any{"docId": "d1"}).
		Return(new(MockResult), nil).Once()
	s.mockTx.On("Run", mock.Anything, mergeEdgesCypher, map[string]any{
		"docId": "d1",
		"edges": []map[string]any{
			{"source": "board", "target": "senate", "weight": int64(2)},
		},
	}).Return(new(MockResult), nil).Once()

	err := s.repo.ReplaceGraph(context.Background(), "d1", []legislation.Edge{
		{Source: "board", Target: "senate", Weight: 2},
		{Source: "board", Target: "board", Weight: 1},
	})
	s.NoError(err)
	s.mockTx.AssertExpectations(s.T())
}

func (s *GraphRepoTestSuite) TestReplaceGraph_EmptyOnlyDeletes() {
	s.mockTx.On("Run", mock.Anything, deleteDocumentEdgesCypher, mock.Anything).Return(new(MockResult), nil).Once()

	s.NoError(s.repo.ReplaceGraph(context.Background(), "d1", nil))
	s.mockTx.AssertNumberOfCalls(s.T(), "Run", 1)
}

func (s *GraphRepoTestSuite) TestReplaceGraph_RunError() {
	s.mockTx.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, stderrors.New("constraint"))

	err := s.repo.ReplaceGraph(context.Background(), "d1", []legislation.Edge{{Source: "a", Target: "b", Weight: 1}})
	s.True(errors.IsCode(err, errors.ErrCodeDBQueryError))
}

func (s *GraphRepoTestSuite) TestReplaceGraph_RequiresDocumentID() {
	err := s.repo.ReplaceGraph(context.Background(), "", nil)
	s.True(errors.IsValidation(err))
	s.mockDriver.AssertNotCalled(s.T(), "ExecuteWrite", mock.Anything, mock.Anything)
}

func (s *GraphRepoTestSuite) TestNeighbors() {
	res := &MockResult{Records: []*neo4j.Record{
		NewRecord([]string{"entity", "weight", "doc_id"}, []any{"senate", int64(3), "d1"}),
		NewRecord([]string{"entity", "weight", "doc_id"}, []any{"agency", int64(1), "d2"}),
	}}
	s.mockTx.On("Run", mock.Anything, neighborsCypher, map[string]any{"name": "board", "limit": int64(defaultNeighborLimit)}).
		Return(res, nil)

	got, err := s.repo.Neighbors(context.Background(), "board", 0)
	s.Require().NoError(err)
	s.Equal([]legislation.EntityNeighbor{
		{Entity: "senate", Weight: 3, DocumentID: "d1"},
		{Entity: "agency", Weight: 1, DocumentID: "d2"},
	}, got)
}

func (s *GraphRepoTestSuite) TestNeighbors_LimitCapped() {
	s.mockTx.On("Run", mock.Anything, neighborsCypher, map[string]any{"name": "board", "limit": int64(maxNeighborLimit)}).
		Return(new(MockResult), nil)

	got, err := s.repo.Neighbors(context.Background(), "board", 10_000)
	s.NoError(err)
	s.Empty(got)
}

func (s *GraphRepoTestSuite) TestEnsureConstraints() {
	s.mockTx.On("Run", mock.Anything, EnsureConstraintsCypher, map[string]any(nil)).Return(new(MockResult), nil)
	s.NoError(EnsureConstraints(context.Background(), s.mockDriver))
}

//Personal.AI order the ending
