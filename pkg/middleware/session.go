package middleware

import (
	"bitwise74/diapredict/pkg/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireSession only lets requests with an authenticated session through.
// Everyone else is sent to the login form with notice flashed. The
// username is available to the next handlers as "username".
func RequireSession(notice string) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := session.User(c)
		if !ok {
			session.AddFlash(c, session.Error, notice)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		c.Set("username", username)
		c.Next()
	}
}
