package transport

import (
	"context"
	"errors"
	"net/http"

	"go-vision-assistant/internal/analysis"
	apperrors "go-vision-assistant/internal/errors"
	"go-vision-assistant/internal/logger"
	"go-vision-assistant/internal/observer"
	"go-vision-assistant/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// statusCode maps a failure to its HTTP status
func statusCode(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}

	// Deadlines win over the stage they interrupted
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	stage, ok := apperrors.StageOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch stage {
	case apperrors.StageValidation, apperrors.StageImagePreparation:
		return http.StatusBadRequest
	case apperrors.StageModelInvocation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// detail returns the message shown to the user for err
func detail(err error) string {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return MessageTooLarge
	}
	return apperrors.UserMessage(err, MessageUnexpected)
}

func respondError(c *gin.Context, mode analysis.Mode, err error) {
	code := statusCode(err)
	stage, _ := apperrors.StageOf(err)

	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  observer.RequestIDFromContext(c.Request.Context()),
		"status_code": code,
		"mode":        mode.String(),
		"stage":       stage,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{Detail: detail(err)})
}
