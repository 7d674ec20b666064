package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondJSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// RespondError writes err using its apperrors kind. Internal errors are
// logged with their cause and reported with a generic message.
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	status := appErr.Status()

	entry := Log(c).WithField("code", appErr.Code)
	switch appErr.Kind {
	case apperrors.KindInternal:
		entry.WithError(appErr.Err).Error("request failed")
	case apperrors.KindExternal:
		entry.WithError(appErr.Err).Warn(appErr.Message)
	default:
		entry.Debug(appErr.Message)
	}

	c.JSON(status, ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}

// AbortWithError is RespondError for middlewares.
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}
