package user

import (
	"bitwise74/diapredict/db"
	"bitwise74/diapredict/internal"
	"bitwise74/diapredict/internal/view"
	"bitwise74/diapredict/pkg/session"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func UserVerify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	err := d.Users.VerifyByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			view.Redirect(c, session.Error, "Invalid or expired token.", "/")
			return
		}

		view.InternalError(c, "Failed to verify user", err)
		return
	}

	zap.L().Debug("User verified", zap.String("requestID", requestID))

	view.Redirect(c, session.Success, "Email verification successful! You can now log in.", "/login")
}
