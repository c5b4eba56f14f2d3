package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/academia/internal/app/models/dto"
	"github.com/yigit/academia/internal/pkg/apperrors"
	"github.com/yigit/academia/internal/pkg/logger"
)

// message prefers the message of the innermost CustomError over a generic fallback
func message(err error, fallback string) string {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// HandleAPIError handles common API errors and returns appropriate responses.
// Storage and internal errors are logged and never echoed to the client.
func HandleAPIError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError

	switch {
	case errors.As(err, &verr):
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").WithDetails(verr.Fields)
		if len(verr.Fields) == 1 {
			detail.WithField(verr.Fields[0].Field)
			detail.Message = verr.Fields[0].Message
		}
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed")))
	case errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeBadRequest, message(err, "Bad request"))))
	case errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message(err, "Resource not found"))))
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, message(err, "Resource already exists"))))
	case errors.Is(err, apperrors.ErrStorage), errors.Is(err, apperrors.ErrConsistency):
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Storage error")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database error")))
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}
