package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the success envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func Respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}

func OK(c *gin.Context, data interface{}, message string) {
	Respond(c, http.StatusOK, data, message)
}

func Created(c *gin.Context, data interface{}, message string) {
	Respond(c, http.StatusCreated, data, message)
}
