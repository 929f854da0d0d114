package errutil

import "net/http"

// CoreStatus is a transport-independent error code. Webhook and API handlers
// map it to an HTTP status at the boundary.
type CoreStatus string

const (
	StatusBadRequest          CoreStatus = "bad_request"
	StatusUnauthorized        CoreStatus = "unauthorized"
	StatusForbidden           CoreStatus = "forbidden"
	StatusNotFound            CoreStatus = "not_found"
	StatusConflict            CoreStatus = "conflict"
	StatusUnprocessableEntity CoreStatus = "unprocessable_entity"
	StatusValidationFailed    CoreStatus = "validation_failed"
	StatusTooManyRequests     CoreStatus = "too_many_requests"
	StatusTimeout             CoreStatus = "timeout"
	StatusInternal            CoreStatus = "internal"

	// Payment pipeline rejections.
	StatusInvalidSignature CoreStatus = "invalid_signature"
	StatusInvalidPayload   CoreStatus = "invalid_payload"

	// Fulfillment state machine rejections.
	StatusInvalidTransition CoreStatus = "invalid_transition"
)

func (s CoreStatus) HTTPStatus() int {
	switch s {
	case StatusBadRequest, StatusValidationFailed:
		return http.StatusBadRequest
	case StatusUnauthorized:
		return http.StatusUnauthorized
	case StatusForbidden:
		return http.StatusForbidden
	case StatusNotFound:
		return http.StatusNotFound
	case StatusConflict, StatusInvalidTransition:
		return http.StatusConflict
	case StatusUnprocessableEntity, StatusInvalidPayload:
		return http.StatusUnprocessableEntity
	case StatusInvalidSignature:
		return http.StatusForbidden
	case StatusTooManyRequests:
		return http.StatusTooManyRequests
	case StatusTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
