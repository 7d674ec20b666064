package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/payloads"
)

const maxBodyBytes = 1 << 20

// bindJSON strictly decodes the request body into dst.
func bindJSON(c *gin.Context, dst interface{}) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return payloads.Decode(c.Request.Body, dst)
}

// pathID parses a numeric id path parameter. Anything else cannot name an
// existing row, so it is reported as not found.
func pathID(c *gin.Context, entity string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound(entity)
	}
	return uint(id), nil
}
