package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// ResultHandler serves stored per-document results.
type ResultHandler struct {
	results legislation.ResultRepository
}

// NewResultHandler creates a ResultHandler.  A nil repository answers 501.
func NewResultHandler(results legislation.ResultRepository) *ResultHandler {
	return &ResultHandler{results: results}
}

// GetResult handles GET /api/v1/results/:id.
func (h *ResultHandler) GetResult(c *gin.Context) {
	if h.results == nil {
		featureDisabled(c, "postgres")
		return
	}
	result, err := h.results.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListResults handles GET /api/v1/results?variant=&status=&limit=&offset=.
func (h *ResultHandler) ListResults(c *gin.Context) {
	if h.results == nil {
		featureDisabled(c, "postgres")
		return
	}
	filter, err := resultFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	items, total, err := h.results.ListResults(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []*legislation.Result{}
	}
	c.JSON(http.StatusOK, ListResponse{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset})
}

func resultFilter(c *gin.Context) (legislation.ResultFilter, error) {
	var f legislation.ResultFilter

	switch v := legislation.Variant(c.Query("variant")); v {
	case "", legislation.VariantClassification, legislation.VariantDensity:
		f.Variant = v
	default:
		return f, errors.New(errors.ErrCodeValidation, "unknown variant").WithDetail(string(v))
	}
	switch s := legislation.Status(c.Query("status")); s {
	case "", legislation.StatusAnalyzed, legislation.StatusEmpty, legislation.StatusFailedParse, legislation.StatusSkipped:
		f.Status = s
	default:
		return f, errors.New(errors.ErrCodeValidation, "unknown status").WithDetail(string(s))
	}

	var err error
	if f.Limit, err = pageLimit(c); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

//Personal.AI order the ending
