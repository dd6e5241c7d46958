package dto

import (
	"context"
	"errors"
	"net/http"

	"nft-activity-timeline/internal/domain/entity"
)

// NewErrorResponse maps a service error to a status code and response body.
// Messages of unexpected failures are not exposed.
func NewErrorResponse(err error) (int, ErrorResponse) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		resp.Message = ""
	}
	return status, resp
}

func statusFor(err error) (int, string) {
	var netErr *entity.NetworkError
	switch {
	case errors.Is(err, entity.ErrInvalidCriteria):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, entity.ErrWalletNotFound):
		return http.StatusNotFound, "wallet_not_found"
	case errors.Is(err, entity.ErrENSDisabled):
		return http.StatusServiceUnavailable, "ens_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "cancelled"
	case errors.As(err, &netErr):
		if netErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, "not_found"
		}
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}
