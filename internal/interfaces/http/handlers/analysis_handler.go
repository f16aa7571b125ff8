package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// DocumentProcessor runs one document through the annual pipeline.
type DocumentProcessor interface {
	Process(ctx context.Context, doc *legislation.Document) (*legislation.Result, error)
}

// CentralityRanker ranks the entities of one document.
type CentralityRanker interface {
	CentralityReport(ctx context.Context, doc *legislation.Document) (*pipeline.CentralityReport, error)
}

// AnalysisHandler analyzes documents posted by clients.
type AnalysisHandler struct {
	processor DocumentProcessor
	ranker    CentralityRanker
}

func NewAnalysisHandler(processor DocumentProcessor, ranker CentralityRanker) *AnalysisHandler {
	return &AnalysisHandler{processor: processor, ranker: ranker}
}

// Analyze handles POST /api/v1/analyze.  The body is one document record.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := h.processor.Process(c.Request.Context(), doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Centrality handles POST /api/v1/centrality.
func (h *AnalysisHandler) Centrality(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	report, err := h.ranker.CentralityReport(c.Request.Context(), doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func bindDocument(c *gin.Context) (*legislation.Document, bool) {
	var doc legislation.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid document body"))
		return nil, false
	}
	if doc.ID == "" {
		respondError(c, errors.New(errors.ErrCodeValidation, "document id is required"))
		return nil, false
	}
	return &doc, true
}

//Personal.AI order the ending
