package handler

import (
	"errors"
	"net/http"

	"pointledger/internal/service"
	"pointledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// writeError maps a service error to its HTTP status and envelope code.
// Unknown errors are logged and reported as 500 without detail.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		response.BusinessError(c, http.StatusBadRequest, response.CodeInvalidAmount, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrUnsupportedKind):
		response.BusinessError(c, http.StatusBadRequest, response.CodeUnsupportedRequest, err.Error())
	case errors.Is(err, service.ErrRequestNotFound):
		response.BusinessError(c, http.StatusNotFound, response.CodeRequestNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		response.BusinessError(c, http.StatusConflict, response.CodeInvalidState, err.Error())
	case errors.Is(err, service.ErrInsufficientBalance):
		response.BusinessError(c, http.StatusUnprocessableEntity, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrBusy):
		response.BusinessError(c, http.StatusServiceUnavailable, response.CodeLedgerBusy, err.Error())
	default:
		log.Error().Err(err).Str("request_id", c.GetString(ctxKeyRequestID)).Msg("unhandled error")
		response.ServerError(c, "internal server error")
	}
}
