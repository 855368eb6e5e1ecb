package root

import (
	"bitwise74/diapredict/internal/view"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Index(c *gin.Context) {
	view.Render(c, http.StatusOK, "index.html", nil)
}

func NotFound(c *gin.Context) {
	view.Render(c, http.StatusNotFound, "404.html", nil)
}
