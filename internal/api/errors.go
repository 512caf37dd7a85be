package api

import (
	"github.com/gin-gonic/gin"

	"planora/internal/apperr"
)

// respondError renders any error as {"error": code}. Details and a human
// message are attached when the domain error carries them.
func respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	body := gin.H{"error": appErr.Code}
	if appErr.Message != "" {
		body["message"] = appErr.Message
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.Status, body)
}
