package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/service"
)

// HandleServiceError 把 service 层的业务错误映射为 HTTP 状态码
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrImageNotFound), errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidImage):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
