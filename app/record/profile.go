package record

import (
	"bitwise74/diapredict/internal"
	"bitwise74/diapredict/internal/view"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Profile(c *gin.Context, d *internal.Deps) {
	username := c.MustGet("username").(string)

	records, err := d.Records.ListByUser(c.Request.Context(), username)
	if err != nil {
		view.InternalError(c, "Failed to fetch prediction history", err)
		return
	}

	view.Render(c, http.StatusOK, "profile.html", gin.H{
		"username": username,
		"records":  records,
	})
}
