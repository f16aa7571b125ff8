package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix ("PARSE_", "ENT_", …) so that log
// aggregation can bucket failures by pipeline stage.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used at call sites that predate the module-prefixed names.
const (
	CodeUnknown  ErrorCode = ""
	CodeInternal           = ErrCodeInternal
	CodeInvalidParam       = ErrCodeBadRequest
	CodeNotFound           = ErrCodeNotFound
	CodeConflict           = ErrCodeConflict
	CodeOK                 = ErrorCode("OK")
)

// Configuration Error Codes: programmer or deployment mistakes.
const (
	ErrCodeConfigInvalid         ErrorCode = "CFG_001"
	ErrCodeGrammarInvalidPattern ErrorCode = "CFG_002"
	ErrCodeGrammarAmbiguous      ErrorCode = "CFG_003"
	ErrCodeUnknownJurisdiction   ErrorCode = "CFG_004"
	ErrCodeChunkGrammarInvalid   ErrorCode = "CFG_005"
)

// Parse Module Error Codes
const (
	ErrCodeParseFailed   ErrorCode = "PARSE_001"
	ErrCodeEmptyDocument ErrorCode = "PARSE_002"
	ErrCodeMalformedHTML ErrorCode = "PARSE_003"
)

// Entity Module Error Codes
const (
	ErrCodeTaggerUnavailable ErrorCode = "ENT_001"
	ErrCodeTagLengthMismatch ErrorCode = "ENT_002"
	ErrCodeTaggerFailed      ErrorCode = "ENT_003"
)

// Graph Module Error Codes
const (
	ErrCodeNullGraph            ErrorCode = "GRAPH_001"
	ErrCodeCentralityNoConverge ErrorCode = "GRAPH_002"
)

// Auxiliary Module Error Codes: bad input data in the roll-call join.
const (
	ErrCodeUnrecognizedDate ErrorCode = "AUX_001"
	ErrCodeUnknownControl   ErrorCode = "AUX_002"
	ErrCodeMalformedAuxRow  ErrorCode = "AUX_003"
)

// Infrastructure Error Codes
const (
	ErrCodeDBConnectionError ErrorCode = "DB_001"
	ErrCodeDBQueryError      ErrorCode = "DB_002"
	ErrCodeDBMigrationError  ErrorCode = "DB_003"
	ErrCodeCacheMiss         ErrorCode = "CACHE_001"
	ErrCodeMessagePublish    ErrorCode = "MQ_001"
	ErrCodeMessageConsume    ErrorCode = "MQ_002"
	ErrCodeStorageError      ErrorCode = "STORAGE_001"
	ErrCodeSearchError       ErrorCode = "SEARCH_001"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusNotImplemented,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeConfigInvalid:         http.StatusInternalServerError,
	ErrCodeGrammarInvalidPattern: http.StatusInternalServerError,
	ErrCodeGrammarAmbiguous:      http.StatusInternalServerError,
	ErrCodeUnknownJurisdiction:   http.StatusBadRequest,
	ErrCodeChunkGrammarInvalid:   http.StatusInternalServerError,

	ErrCodeParseFailed:   http.StatusUnprocessableEntity,
	ErrCodeEmptyDocument: http.StatusUnprocessableEntity,
	ErrCodeMalformedHTML: http.StatusUnprocessableEntity,

	ErrCodeTaggerUnavailable: http.StatusServiceUnavailable,
	ErrCodeTagLengthMismatch: http.StatusBadGateway,
	ErrCodeTaggerFailed:      http.StatusBadGateway,

	ErrCodeNullGraph:            http.StatusUnprocessableEntity,
	ErrCodeCentralityNoConverge: http.StatusUnprocessableEntity,

	ErrCodeUnrecognizedDate: http.StatusUnprocessableEntity,
	ErrCodeUnknownControl:   http.StatusUnprocessableEntity,
	ErrCodeMalformedAuxRow:  http.StatusUnprocessableEntity,

	ErrCodeDBConnectionError: http.StatusServiceUnavailable,
	ErrCodeDBQueryError:      http.StatusInternalServerError,
	ErrCodeDBMigrationError:  http.StatusInternalServerError,
	ErrCodeCacheMiss:         http.StatusNotFound,
	ErrCodeMessagePublish:    http.StatusServiceUnavailable,
	ErrCodeMessageConsume:    http.StatusServiceUnavailable,
	ErrCodeStorageError:      http.StatusServiceUnavailable,
	ErrCodeSearchError:       http.StatusServiceUnavailable,
}

// ErrorCodeMessage maps error codes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeConfigInvalid:         "invalid configuration",
	ErrCodeGrammarInvalidPattern: "header grammar pattern is invalid",
	ErrCodeGrammarAmbiguous:      "header grammar matched ambiguously",
	ErrCodeUnknownJurisdiction:   "unknown jurisdiction",
	ErrCodeChunkGrammarInvalid:   "chunk grammar is invalid",

	ErrCodeParseFailed:   "document could not be parsed",
	ErrCodeEmptyDocument: "document has no text",
	ErrCodeMalformedHTML: "document markup is malformed",

	ErrCodeTaggerUnavailable: "entity tagger unavailable",
	ErrCodeTagLengthMismatch: "tagger returned a tag sequence of the wrong length",
	ErrCodeTaggerFailed:      "entity tagger failed",

	ErrCodeNullGraph:            "graph has no nodes",
	ErrCodeCentralityNoConverge: "centrality did not converge",

	ErrCodeUnrecognizedDate: "unrecognized date format",
	ErrCodeUnknownControl:   "no government control classification for year",
	ErrCodeMalformedAuxRow:  "malformed auxiliary row",

	ErrCodeDBConnectionError: "database connection error",
	ErrCodeDBQueryError:      "database query error",
	ErrCodeDBMigrationError:  "database migration error",
	ErrCodeCacheMiss:         "cache miss",
	ErrCodeMessagePublish:    "message publish failed",
	ErrCodeMessageConsume:    "message consume failed",
	ErrCodeStorageError:      "object storage error",
	ErrCodeSearchError:       "search index error",
}

// HTTPStatusForCode returns the HTTP status code for a given error code.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for a given error code.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError checks if the error code corresponds to a client error (4xx).
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError checks if the error code corresponds to a server error (5xx).
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the module name for a given error code.
func ModuleForCode(code ErrorCode) string {
	if code == CodeUnknown {
		return "UNKNOWN"
	}
	return strings.SplitN(string(code), "_", 2)[0]
}

// IsConfigurationCode reports whether code denotes a programmer or deployment
// error rather than bad input.
func IsConfigurationCode(code ErrorCode) bool {
	return ModuleForCode(code) == "CFG"
}

// IsDataCode reports whether code denotes a defect in the input data.
func IsDataCode(code ErrorCode) bool {
	switch ModuleForCode(code) {
	case "PARSE", "AUX":
		return true
	}
	return code == ErrCodeTagLengthMismatch
}

//Personal.AI order the ending
