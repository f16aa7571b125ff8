package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

const defaultSearchLimit = 10

// GraphHandler serves archived graphs, stored neighborhoods and section
// search.  Each backend may be nil when disabled.
type GraphHandler struct {
	archive  legislation.GraphArchive
	graphs   legislation.GraphStore
	sections legislation.SectionIndexer
}

func NewGraphHandler(archive legislation.GraphArchive, graphs legislation.GraphStore, sections legislation.SectionIndexer) *GraphHandler {
	return &GraphHandler{archive: archive, graphs: graphs, sections: sections}
}

// GetGraph handles GET /api/v1/graphs/:id and returns the archived
// adjacency JSON of an annual document as stored.
func (h *GraphHandler) GetGraph(c *gin.Context) {
	if h.archive == nil {
		featureDisabled(c, "minio")
		return
	}
	data, err := h.archive.GetAdjacency(c.Request.Context(), pipeline.AnnualArchiveKey(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// Neighbors handles GET /api/v1/entities/:name/neighbors?limit=.
func (h *GraphHandler) Neighbors(c *gin.Context) {
	if h.graphs == nil {
		featureDisabled(c, "neo4j")
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	neighbors, err := h.graphs.Neighbors(c.Request.Context(), c.Param("name"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if neighbors == nil {
		neighbors = []legislation.EntityNeighbor{}
	}
	c.JSON(http.StatusOK, gin.H{"entity": c.Param("name"), "neighbors": neighbors})
}

// SearchSections handles GET /api/v1/sections/search?q=&limit=.
func (h *GraphHandler) SearchSections(c *gin.Context) {
	if h.sections == nil {
		featureDisabled(c, "opensearch")
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		respondError(c, errors.New(errors.ErrCodeValidation, "query parameter q is required"))
		return
	}
	limit, err := queryInt(c, "limit", defaultSearchLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	hits, err := h.sections.Search(c.Request.Context(), q, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if hits == nil {
		hits = []legislation.SectionHit{}
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "hits": hits})
}

//Personal.AI order the ending
