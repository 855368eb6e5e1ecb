package user

import (
	"bitwise74/diapredict/db"
	"bitwise74/diapredict/internal"
	"bitwise74/diapredict/internal/metrics"
	"bitwise74/diapredict/internal/view"
	"bitwise74/diapredict/pkg/session"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

const invalidCredentials = "Invalid username/password combination"

func LoginPage(c *gin.Context) {
	view.Render(c, http.StatusOK, "login.html", nil)
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginForm
	if err := c.ShouldBind(&data); err != nil {
		view.BadForm(c, err)
		return
	}

	data.Username = strings.TrimSpace(data.Username)
	if data.Username == "" || data.Password == "" {
		metrics.Logins.WithLabelValues(metrics.LoginInvalid).Inc()
		view.Redirect(c, session.Error, invalidCredentials, "/login")
		return
	}

	user, err := d.Users.FindByUsername(c.Request.Context(), data.Username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			metrics.Logins.WithLabelValues(metrics.LoginInvalid).Inc()
			view.Redirect(c, session.Error, invalidCredentials, "/login")
			return
		}

		view.InternalError(c, "Failed to look up user", err)
		return
	}

	ok, err := d.Argon.VerifyPasswd(data.Password, user.PasswordHash)
	if err != nil {
		view.InternalError(c, "Failed to verify password", err)
		return
	}

	if !ok {
		metrics.Logins.WithLabelValues(metrics.LoginInvalid).Inc()
		view.Redirect(c, session.Error, invalidCredentials, "/login")
		return
	}

	if !user.Verified {
		metrics.Logins.WithLabelValues(metrics.LoginUnverified).Inc()
		view.Redirect(c, session.Error, "Account not verified. Please check your email.", "/login")
		return
	}

	metrics.Logins.WithLabelValues(metrics.LoginOK).Inc()
	session.SetUser(c, user.Username)

	zap.L().Debug("User logged in", zap.String("username", user.Username), zap.String("requestID", requestID))

	view.Redirect(c, session.Success, "Login successful!", "/profile")
}

func UserLogout(c *gin.Context) {
	session.Logout(c)
	view.Redirect(c, session.Info, "You have been logged out", "/")
}
