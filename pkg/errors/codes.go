package errors

import "net/http"

// ErrorCode identifies a specific failure category.  Codes are stable strings
// so they can be emitted as metric labels and returned in API responses.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
)

// Matching-engine error codes.  These classify collaborator failures at the
// tier boundaries; the engine recovers from all of them (a failed tier simply
// contributes zero candidates), so they appear in logs and metrics far more
// often than in API responses.
const (
	ErrCodeCatalogUnavailable   ErrorCode = "MATCH_001"
	ErrCodeCrossRefUnavailable  ErrorCode = "MATCH_002"
	ErrCodeEmbeddingFailed      ErrorCode = "MATCH_003"
	ErrCodeVectorSearchFailed   ErrorCode = "MATCH_004"
	ErrCodeDimensionMismatch    ErrorCode = "MATCH_005"
	ErrCodeInvalidScoringParams ErrorCode = "MATCH_006"
	ErrCodeBadBatch             ErrorCode = "MATCH_007"
)

// CodeOK is the sentinel code returned by GetCode for a nil error.
const CodeOK = ErrorCode("OK")

// HTTPStatus maps an ErrorCode to the HTTP status code the interface layer
// should respond with.  Unknown codes map to 500.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeBadBatch, ErrCodeInvalidScoringParams:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
