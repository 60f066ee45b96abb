// Package fault classifies errors into the closed set of outcomes callers see.
//
// Every kind has a fixed HTTP status and error code, and only ServiceUnavailable is
// retryable:
//
//	NotFound            404  NOT_FOUND
//	Validation          400  VALIDATION_ERROR
//	Forbidden           403  FORBIDDEN
//	Conflict            409  CONFLICT
//	Unauthorized        401  UNAUTHORIZED
//	ServiceUnavailable  503  SERVICE_UNAVAILABLE
//	Internal            500  INTERNAL_ERROR
package fault
