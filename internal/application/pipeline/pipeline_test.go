package pipeline

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LegisGraph/internal/application/auxiliary"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/intelligence/cograph"
	"github.com/turtacn/LegisGraph/internal/intelligence/hierarchy"
	"github.com/turtacn/LegisGraph/internal/intelligence/jurisdiction"
	"github.com/turtacn/LegisGraph/internal/testutil"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// wordRecognizer returns every known institution word as its own span and
// fails on "Boom".
type wordRecognizer struct{}

var institutionWords = map[string]bool{"Board": true, "Senate": true, "Agency": true, "Court": true}

func (wordRecognizer) Recognize(_ context.Context, tokens []string) ([][]string, error) {
	var spans [][]string
	for _, tok := range tokens {
		if tok == "Boom" {
			return nil, errors.New(errors.ErrCodeTaggerFailed, "tagger exploded")
		}
		if institutionWords[tok] {
			spans = append(spans, []string{tok})
		}
	}
	return spans, nil
}

type memResults struct {
	mu   sync.Mutex
	byID map[string]*legislation.Result
}

func newMemResults() *memResults { return &memResults{byID: map[string]*legislation.Result{}} }

func (m *memResults) SaveResult(_ context.Context, r *legislation.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[r.DocumentID] = r
	return nil
}

func (m *memResults) GetResult(_ context.Context, id string) (*legislation.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("result")
	}
	return r, nil
}

func (m *memResults) ListResults(context.Context, legislation.ResultFilter) ([]*legislation.Result, int64, error) {
	return nil, 0, nil
}

type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memArchive) PutAdjacency(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

func (m *memArchive) GetAdjacency(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key], nil
}

type mockFailedQueue struct{ mock.Mock }

func (m *mockFailedQueue) PublishFailed(ctx context.Context, doc *legislation.Document, reason error) error {
	return m.Called(ctx, doc.ID, reason).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishResult(ctx context.Context, r *legislation.Result) error {
	return m.Called(ctx, r.DocumentID).Error(0)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]*legislation.Result
	hits int
}

func (c *mapCache) GetResult(_ context.Context, key string) (*legislation.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.data[key]; ok {
		c.hits++
		return r, nil
	}
	return nil, errors.New(errors.ErrCodeCacheMiss, "miss")
}

func (c *mapCache) SetResult(_ context.Context, key string, r *legislation.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string]*legislation.Result{}
	}
	c.data[key] = r
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func sectionRows(bodies ...string) []legislation.Row {
	rows := make([]legislation.Row, len(bodies))
	for i, b := range bodies {
		n := string(rune('1' + i))
		rows[i] = legislation.Row{Level: 0, Label: "SEC. " + n, SectionNumber: n, FieldType: legislation.FieldBody, Text: b}
	}
	return rows
}

func annualDoc(id string, bodies ...string) *legislation.Document {
	return &legislation.Document{
		ID: id, Title: "An Act " + id, Date: "2010-03-01", Subtype: legislation.SubtypeLaw,
		Cosponsors: []string{"a", "b"},
		Parsed:     sectionRows(bodies...),
	}
}

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	jur, err := jurisdiction.New(jurisdiction.KindUSAnnual)
	require.NoError(t, err)
	return NewAnalyzer(jur, wordRecognizer{}, testutil.NewMockLogger(), nil)
}

// ---------------------------------------------------------------------------
// Analyzer
// ---------------------------------------------------------------------------

func TestAnalyzer_Analyze(t *testing.T) {
	a := newAnalyzer(t)
	an, err := a.Analyze(context.Background(), annualDoc("d1", "Board Senate", "Senate Agency"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"board", "senate"}, {"senate", "agency"}}, an.Extraction.Chunks)
	assert.Equal(t, 3, *an.Classification.TotalNodes)
	assert.Equal(t, 2, *an.Classification.TotalEdges)
	// {board:1, senate:2, agency:1}: 1 + 1 + 1
	assert.Equal(t, 3, *an.Density.TotalEdges)
	assert.InDelta(t, 2.0/3.0, *an.Density.Density, 1e-12)
}

func TestAnalyzer_CentralityReport(t *testing.T) {
	a := newAnalyzer(t)
	rep, err := a.CentralityReport(context.Background(), annualDoc("d1", "Board Senate", "Senate Agency"))
	require.NoError(t, err)
	require.Len(t, rep.Ranking, 3)
	assert.Equal(t, "senate", rep.Ranking[0].Entity)
	assert.Len(t, rep.Edges, 2)

	_, err = a.CentralityReport(context.Background(), annualDoc("d2", "nothing here"))
	assert.ErrorIs(t, err, cograph.ErrNullGraph)
}

// ---------------------------------------------------------------------------
// Annual service
// ---------------------------------------------------------------------------

func TestAnnualService_Process(t *testing.T) {
	results := newMemResults()
	archive := &memArchive{}
	pub := &mockPublisher{}
	pub.On("PublishResult", mock.Anything, "d1").Return(nil).Once()

	svc := NewAnnualService(newAnalyzer(t), Backends{Results: results, Archive: archive, Publisher: pub},
		AnnualOptions{}, testutil.NewMockLogger(), nil)

	res, err := svc.Process(context.Background(), annualDoc("d1", "Board Senate", "Senate Agency"))
	require.NoError(t, err)
	assert.Equal(t, legislation.StatusAnalyzed, res.Status)
	assert.Equal(t, legislation.VariantClassification, res.Variant)
	assert.Equal(t, 3, *res.TotalNodes)
	assert.Equal(t, 2, *res.TotalEdges)
	assert.InDelta(t, 4.0/3.0, *res.AverageDegree, 1e-12)
	assert.Nil(t, res.Density)
	assert.Equal(t, 2, res.Cosponsors)
	assert.Equal(t, "2010-03-01", res.Date)

	assert.Same(t, res, results.byID["d1"])
	g, err := cograph.UnmarshalAdjacency(archive.objects[AnnualArchiveKey("d1")])
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumNodes())
	pub.AssertExpectations(t)
}

func TestAnnualService_DensityVariantAndAux(t *testing.T) {
	table := auxiliary.NewTable()
	date := "02/17/2009"
	table.Put("111th-congress_house-bill_1", legislation.AuxFields{Date: &date})

	svc := NewAnnualService(newAnalyzer(t), Backends{},
		AnnualOptions{Variant: legislation.VariantDensity, Aux: table}, nil, nil)
	res, err := svc.Process(context.Background(), annualDoc("111th-congress_house-bill_1", "Board Court"))
	require.NoError(t, err)
	assert.Equal(t, "02/17/2009", res.Date)
	assert.Equal(t, 1.0, *res.Density)
	assert.Equal(t, 1, *res.ObservedEdges)
	assert.Nil(t, res.Clustering)
}

func TestAnnualService_NoEntitiesYieldsNullStatistics(t *testing.T) {
	svc := NewAnnualService(newAnalyzer(t), Backends{}, AnnualOptions{}, nil, nil)
	res, err := svc.Process(context.Background(), annualDoc("d1", "plain words only"))
	require.NoError(t, err)
	assert.Equal(t, legislation.StatusAnalyzed, res.Status)
	assert.False(t, res.HasEntities())
	assert.Nil(t, res.TotalNodes)
	assert.Nil(t, res.Edges)
}

func TestAnnualService_FailedParsePolicies(t *testing.T) {
	broken := func() *legislation.Document {
		return &legislation.Document{ID: "bad", Subtype: "law", HTML: "<p>See SEC. 5 of the other Act</p>"}
	}

	results := newMemResults()
	svc := NewAnnualService(newAnalyzer(t), Backends{Results: results}, AnnualOptions{}, nil, nil)
	res, err := svc.Process(context.Background(), broken())
	require.NoError(t, err)
	assert.Equal(t, legislation.StatusFailedParse, res.Status)
	assert.Nil(t, res.TotalNodes)
	assert.Equal(t, legislation.StatusFailedParse, results.byID["bad"].Status)

	q := &mockFailedQueue{}
	q.On("PublishFailed", mock.Anything, "bad", mock.MatchedBy(func(err error) bool {
		return stderrors.Is(err, hierarchy.ErrFailedParse)
	})).Return(nil).Once()
	svc = NewAnnualService(newAnalyzer(t), Backends{Failed: q}, AnnualOptions{FailedParsePolicy: PolicyRetry}, nil, nil)
	_, err = svc.Process(context.Background(), broken())
	require.NoError(t, err)
	q.AssertExpectations(t)
}

func TestAnnualService_CacheHit(t *testing.T) {
	cache := &mapCache{}
	svc := NewAnnualService(newAnalyzer(t), Backends{Cache: cache}, AnnualOptions{}, nil, nil)

	first, err := svc.Process(context.Background(), annualDoc("d1", "Board Senate"))
	require.NoError(t, err)
	second, err := svc.Process(context.Background(), annualDoc("d1", "Board Senate"))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.hits)
}

func TestAnnualService_RunBatch(t *testing.T) {
	results := newMemResults()
	svc := NewAnnualService(newAnalyzer(t), Backends{Results: results},
		AnnualOptions{Workers: 3}, testutil.NewMockLogger(), nil)

	resolution := annualDoc("r1", "Board Senate")
	resolution.Subtype = legislation.SubtypeResolution
	docs := []*legislation.Document{
		annualDoc("d1", "Board Senate"),
		resolution,
		annualDoc("d2", "Boom Board"),
		{ID: "bad", Subtype: "law", HTML: "<p>See SEC. 5 of the other Act</p>"},
		annualDoc("d3", "Agency Court", "Court"),
	}

	report, err := svc.RunBatch(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 2, report.Analyzed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.FailedParse)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "d2", report.Errors[0].DocumentID)
	assert.Equal(t, string(errors.ErrCodeTaggerFailed), report.Errors[0].Code)
	assert.NotEmpty(t, report.RunID)

	var ids []string
	for _, r := range report.Results {
		ids = append(ids, r.DocumentID)
	}
	assert.Equal(t, []string{"d1", "bad", "d3"}, ids)
	_, ok := results.byID["r1"]
	assert.False(t, ok, "resolutions are never processed")
}

func TestAnnualService_RunBatchCancelled(t *testing.T) {
	svc := NewAnnualService(newAnalyzer(t), Backends{}, AnnualOptions{Workers: 1}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.RunBatch(ctx, []*legislation.Document{annualDoc("d1", "Board Senate")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseOptions(t *testing.T) {
	p, err := ParseFailedParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyEmpty, p)
	_, err = ParseFailedParsePolicy("drop")
	assert.True(t, errors.IsConfigurationError(err))

	v, err := ParseVariant("density")
	require.NoError(t, err)
	assert.Equal(t, legislation.VariantDensity, v)
	_, err = ParseVariant("pagerank")
	assert.Error(t, err)
}

func TestContentHash(t *testing.T) {
	a := annualDoc("d1", "Board")
	b := annualDoc("d1", "Board")
	assert.Equal(t, ContentHash(a, legislation.VariantDensity, "us_annual"), ContentHash(b, legislation.VariantDensity, "us_annual"))
	assert.NotEqual(t, ContentHash(a, legislation.VariantDensity, "us_annual"), ContentHash(a, legislation.VariantClassification, "us_annual"))
	b.Parsed[0].Text = "Court"
	assert.NotEqual(t, ContentHash(a, legislation.VariantDensity, "us_annual"), ContentHash(b, legislation.VariantDensity, "us_annual"))
}

// ---------------------------------------------------------------------------
// Consolidated service
// ---------------------------------------------------------------------------

func chapter(title, ch string, year int, paragraphs ...string) ChapterVersion {
	sections := make([]legislation.CodeSection, len(paragraphs))
	for i, p := range paragraphs {
		sections[i] = legislation.CodeSection{ID: string(rune('a' + i)), Paragraphs: strings.Split(p, "|")}
	}
	return ChapterVersion{Title: title, Chapter: ch, Year: year, Doc: &legislation.Document{
		ID: ch, Title: title + " " + ch, Sections: sections,
	}}
}

// countingRecognizer counts Recognize calls.
type countingRecognizer struct {
	mu    sync.Mutex
	calls int
}

func (c *countingRecognizer) Recognize(ctx context.Context, tokens []string) ([][]string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return wordRecognizer{}.Recognize(ctx, tokens)
}

func TestConsolidatedService_ReusesUnchangedYears(t *testing.T) {
	jur, err := jurisdiction.New(jurisdiction.KindUSConsolidated)
	require.NoError(t, err)
	rec := &countingRecognizer{}
	archive := &memArchive{}
	results := newMemResults()
	svc := NewConsolidatedService(NewAnalyzer(jur, rec, nil, nil), Backends{Archive: archive, Results: results}, testutil.NewMockLogger(), nil)

	versions := []ChapterVersion{
		chapter("t1", "ch1", 1996, "Board Senate"),
		chapter("t1", "ch1", 1994, "Board Senate"),
		chapter("t1", "ch1", 1995, "Board Senate", "Agency"),
		chapter("t1", "ch2", 1994),
		chapter("t0", "ch9", 2000, "Court"),
	}

	report, err := svc.Run(context.Background(), versions)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Results, 4)

	var ids []string
	for _, r := range report.Results {
		ids = append(ids, r.DocumentID)
	}
	assert.Equal(t, []string{"ch9_2000", "ch1_1994", "ch1_1995", "ch1_1996"}, ids)

	// 1994, 1995 (two sections) and 2000 are computed; 1996 reuses 1994.
	assert.Equal(t, 4, rec.calls)
	assert.Equal(t, *report.Results[1].TotalNodes, *report.Results[3].TotalNodes)
	assert.Equal(t, 3, *report.Results[2].TotalNodes)

	assert.Equal(t, archive.objects[ConsolidatedArchiveKey("t1", "ch1_1994")], archive.objects[ConsolidatedArchiveKey("t1", "ch1_1996")])
	assert.Empty(t, archive.objects[ConsolidatedArchiveKey("t0", "ch9_2000")], "a graph without edges archives an empty payload")
	assert.Contains(t, results.byID, "ch1_1995")
}

func TestParseChapterFile(t *testing.T) {
	ch, year, ok := ParseChapterFile("chapter5_2010.json")
	require.True(t, ok)
	assert.Equal(t, "chapter5", ch)
	assert.Equal(t, 2010, year)

	_, _, ok = ParseChapterFile("readme.txt")
	assert.False(t, ok)
}

//Personal.AI order the ending
