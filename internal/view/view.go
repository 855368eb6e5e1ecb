// Package view renders the HTML pages and the shared error responses
package view

import (
	"bitwise74/diapredict/internal/service"
	"bitwise74/diapredict/pkg/session"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Funcs are the helpers available in every template
var Funcs = template.FuncMap{
	"float": service.FormatFloat,
	"date": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05")
	},
}

// Templates parses every page under dir of fsys
func Templates(fsys fs.FS, pattern string) (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(fsys, pattern)
}

// Render writes the named page. Pending flashes and the logged in user
// are added to data.
func Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	data["flashes"] = session.Flashes(c)
	if user, ok := session.User(c); ok {
		data["user"] = user
	}

	c.HTML(status, name, data)
}

// Redirect flashes message and sends the browser to location
func Redirect(c *gin.Context, category, message, location string) {
	session.AddFlash(c, category, message)
	c.Redirect(http.StatusSeeOther, location)
}

// InternalError logs err and answers with a plain 500
func InternalError(c *gin.Context, msg string, err error) {
	requestID := c.GetString("requestID")

	zap.L().Error(msg, zap.Error(err), zap.String("requestID", requestID))
	c.String(http.StatusInternalServerError, "Internal server error (request %s)", requestID)
}

// BadForm answers requests whose form body couldn't be read
func BadForm(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.String(http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
		return
	}

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
	c.String(http.StatusBadRequest, "Invalid request body")
}
