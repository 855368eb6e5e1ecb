package record

import (
	"bitwise74/diapredict/internal"
	"bitwise74/diapredict/internal/view"
	"bitwise74/diapredict/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RecordDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	username := c.MustGet("username").(string)

	n, err := d.Records.DeleteOwned(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		view.InternalError(c, "Failed to delete record", err)
		return
	}

	zap.L().Debug("Record delete", zap.Int64("deleted", n), zap.String("requestID", requestID))

	view.Redirect(c, session.Success, "Record deleted successfully!", "/profile")
}

func RecordDeleteAll(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	username := c.MustGet("username").(string)

	n, err := d.Records.DeleteAllOwned(c.Request.Context(), username)
	if err != nil {
		view.InternalError(c, "Failed to delete records", err)
		return
	}

	zap.L().Debug("Records deleted", zap.Int64("deleted", n), zap.String("requestID", requestID))

	view.Redirect(c, session.Success, "All records deleted successfully!", "/profile")
}
