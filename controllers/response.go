package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/apperrors"
)

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, apperrors.Envelope{Success: true, Message: message, Data: data})
}
