package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func handleSweep(sweeper SweepTrigger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := sweeper.Trigger(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
