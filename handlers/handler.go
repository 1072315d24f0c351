package handlers

import (
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes the request body into dst, recording a validation error on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(utils.ValidationFailed("Invalid request body", utils.FieldError{Field: "body", Message: err.Error()}))
		return false
	}
	return true
}

// bindQuery decodes query parameters such as page, limit and filters into dst.
func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		_ = c.Error(utils.ValidationFailed("Invalid query parameters", utils.FieldError{Field: "query", Message: err.Error()}))
		return false
	}
	return true
}
