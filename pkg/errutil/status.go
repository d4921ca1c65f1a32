package errutil

import "net/http"

type CoreStatus string

const (
	StatusBadRequest           CoreStatus = "bad_request"
	StatusUnauthorized         CoreStatus = "unauthorized"
	StatusForbidden            CoreStatus = "permission_denied"
	StatusNotFound             CoreStatus = "not_found"
	StatusConflict             CoreStatus = "conflict"
	StatusInvalidTransition    CoreStatus = "invalid_state_transition"
	StatusUnsupportedMediaType CoreStatus = "unsupported_media_type"
	StatusUnprocessableEntity  CoreStatus = "unprocessable_entity"
	StatusValidationFailed     CoreStatus = "validation_failed"
	StatusTooManyRequests      CoreStatus = "too_many_requests"
	StatusClientClosedRequest  CoreStatus = "client_closed_request"
	StatusInternal             CoreStatus = "internal"
	StatusNotImplemented       CoreStatus = "not_implemented"
	StatusBadGateway           CoreStatus = "bad_gateway"
	StatusTimeout              CoreStatus = "timeout"
)

var httpStatus = map[CoreStatus]int{
	StatusBadRequest:           http.StatusBadRequest,
	StatusUnauthorized:         http.StatusUnauthorized,
	StatusForbidden:            http.StatusForbidden,
	StatusNotFound:             http.StatusNotFound,
	StatusConflict:             http.StatusConflict,
	StatusInvalidTransition:    http.StatusConflict,
	StatusUnsupportedMediaType: http.StatusUnsupportedMediaType,
	StatusUnprocessableEntity:  http.StatusUnprocessableEntity,
	StatusValidationFailed:     http.StatusBadRequest,
	StatusTooManyRequests:      http.StatusTooManyRequests,
	StatusClientClosedRequest:  499,
	StatusInternal:             http.StatusInternalServerError,
	StatusNotImplemented:       http.StatusNotImplemented,
	StatusBadGateway:           http.StatusBadGateway,
	StatusTimeout:              http.StatusGatewayTimeout,
}

// HTTPStatus maps a CoreStatus to its HTTP response code.
func (s CoreStatus) HTTPStatus() int {
	if code, ok := httpStatus[s]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func InvalidTransition(msg string, err error, options ...Option) error {
	return New(StatusInvalidTransition, msg, append([]Option{WithErr(err)}, options...)...)
}
