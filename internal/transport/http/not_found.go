package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func notFound(c *gin.Context) {
	writeError(c, http.StatusNotFound, codeNotFound, "not found")
}
