package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/socialhub/services"
	"github.com/upb/socialhub/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps any error to the shared failure body. Non-domain
// errors become 500 INTERNAL_ERROR; wrapped causes are logged, never rendered.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	switch {
	case !errors.As(err, &domainErr):
		logger.Error("unhandled error type", zap.Error(err))
		domainErr = services.ErrInternal

	case domainErr.Status >= http.StatusInternalServerError:
		logger.Error("internal server error", zap.Error(err))

	default:
		logger.Debug("handled service error",
			zap.String("type", string(domainErr.Type)),
			zap.String("code", domainErr.Code),
			zap.Any("details", domainErr.Details))
	}

	if err := utils.WriteFailure(w, domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details); err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		HandleServiceError(w, services.ErrInvalidInput.WithDetail("fields", utils.GetValidationFields(err)), logger)
		return
	}

	HandleServiceError(w, services.ErrInvalidInput.Wrap(err), logger)
}
