// Package handlers implements the gin handlers of the LegisGraph HTTP API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/LegisGraph/pkg/errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// ListResponse wraps one page of a listing.
type ListResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// respondError maps err to an HTTP status through its error code.  Server
// side failures are masked.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: code.String(), Message: errors.DefaultMessageForCode(code)}
	var ae *errors.AppError
	if errors.As(err, &ae) && status < http.StatusInternalServerError {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	if code == errors.CodeUnknown {
		resp.Code = errors.ErrCodeInternal.String()
		resp.Message = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func featureDisabled(c *gin.Context, backend string) {
	respondError(c, errors.New(errors.ErrCodeFeatureDisabled, backend+" backend is not enabled"))
}

// queryInt reads a non-negative integer query parameter.  Missing values
// yield def, malformed ones a validation error.
func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(errors.ErrCodeValidation, "invalid query parameter").WithDetail(key + "=" + raw)
	}
	return v, nil
}

// pageLimit reads the "limit" parameter and clamps it to the maximum page size.
func pageLimit(c *gin.Context) (int, error) {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		return 0, err
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, nil
}

//Personal.AI order the ending
