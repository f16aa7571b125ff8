package repositories

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/mock"

	infraNeo4j "github.com/turtacn/LegisGraph/internal/infrastructure/database/neo4j"
)

// MockInfraDriver implements infraNeo4j.DriverInterface
type MockInfraDriver struct {
	mock.Mock
}

func (m *MockInfraDriver) ExecuteRead(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	args := m.Called(ctx, work)
	if fn, ok := args.Get(0).(func(context.Context, infraNeo4j.TransactionWork) (any, error)); ok {
		return fn(ctx, work)
	}
	return args.Get(0), args.Error(1)
}

func (m *MockInfraDriver) ExecuteWrite(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	args := m.Called(ctx, work)
	if fn, ok := args.Get(0).(func(context.Context, infraNeo4j.TransactionWork) (any, error)); ok {
		return fn(ctx, work)
	}
	return args.Get(0), args.Error(1)
}

func (m *MockInfraDriver) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockInfraDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockInfraTransaction implements infraNeo4j.Transaction
type MockInfraTransaction struct {
	mock.Mock
}

func (m *MockInfraTransaction) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(infraNeo4j.Result), args.Error(1)
}

// MockResult replays Records in order.
type MockResult struct {
	Records []*neo4j.Record
	current int
}

func (m *MockResult) Next(ctx context.Context) bool {
	if m.current < len(m.Records) {
		m.current++
		return true
	}
	return false
}

func (m *MockResult) Record() *neo4j.Record {
	if m.current == 0 || m.current > len(m.Records) {
		return nil
	}
	return m.Records[m.current-1]
}

func (m *MockResult) Err() error { return nil }

func (m *MockResult) Consume(ctx context.Context) (neo4j.ResultSummary, error) { return nil, nil }

// NewRecord builds a record with values
func NewRecord(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

// SetupMockDriver wires ExecuteRead/Write to run the work against the
// returned transaction mock.
func SetupMockDriver(t *testing.T) (*MockInfraDriver, *MockInfraTransaction) {
	t.Helper()
	d := new(MockInfraDriver)
	tx := new(MockInfraTransaction)

	run := func(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
		return work(tx)
	}
	d.On("ExecuteRead", mock.Anything, mock.Anything).Return(run, nil)
	d.On("ExecuteWrite", mock.Anything, mock.Anything).Return(run, nil)

	return d, tx
}

//Personal.AI order the ending
