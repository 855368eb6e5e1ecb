package user

import (
	"bitwise74/diapredict/db"
	"bitwise74/diapredict/internal"
	"bitwise74/diapredict/internal/metrics"
	"bitwise74/diapredict/internal/model"
	"bitwise74/diapredict/internal/view"
	"bitwise74/diapredict/pkg/security"
	"bitwise74/diapredict/pkg/session"
	"bitwise74/diapredict/pkg/validators"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

func RegisterPage(c *gin.Context, d *internal.Deps) {
	data := gin.H{}
	if d.Config != nil && d.Config.Turnstile.Enabled {
		data["turnstileSiteKey"] = d.Config.Turnstile.SiteKey
	}

	view.Render(c, http.StatusOK, "register.html", data)
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerForm
	if err := c.ShouldBind(&data); err != nil {
		view.BadForm(c, err)
		return
	}

	data.Username = strings.TrimSpace(data.Username)
	data.Email = strings.TrimSpace(data.Email)

	for _, err := range []error{
		validators.UsernameValidator(data.Username),
		validators.EmailValidator(data.Email),
		validators.PasswordValidator(data.Password),
	} {
		if err != nil {
			zap.L().Debug("Invalid registration form", zap.Error(err), zap.String("requestID", requestID))
			view.Redirect(c, session.Error, capitalize(err.Error()), "/register")
			return
		}
	}

	ctx := c.Request.Context()

	_, err := d.Users.FindByUsername(ctx, data.Username)
	if err == nil {
		view.Redirect(c, session.Error, "That username already exists!", "/register")
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		view.InternalError(c, "Failed to check if username is taken", err)
		return
	}

	_, err = d.Users.FindByEmail(ctx, data.Email)
	if err == nil {
		view.Redirect(c, session.Error, "That email is already registered!", "/register")
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		view.InternalError(c, "Failed to check if email is registered", err)
		return
	}

	hash, err := d.Argon.GenerateFromPassword(data.Password)
	if err != nil {
		view.InternalError(c, "Failed to hash password", err)
		return
	}

	token, err := security.MakeVerificationToken()
	if err != nil {
		view.InternalError(c, "Failed to generate verification token", err)
		return
	}

	err = d.Users.Create(ctx, &model.User{
		Username:          data.Username,
		Email:             data.Email,
		PasswordHash:      hash,
		VerificationToken: token,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		// Someone registered the same name between the lookup and the insert
		if errors.Is(err, db.ErrDuplicate) {
			view.Redirect(c, session.Error, "That username already exists!", "/register")
			return
		}

		view.InternalError(c, "Failed to create user", err)
		return
	}

	metrics.Registrations.Inc()
	session.SetUser(c, data.Username)

	link := BaseURL(c, d) + "/verify_email/" + token
	if err := d.Notifier.SendVerification(ctx, data.Email, link); err != nil {
		view.InternalError(c, "Failed to send verification email", err)
		return
	}

	zap.L().Info("User registered", zap.String("username", data.Username), zap.String("requestID", requestID))

	view.Redirect(c, session.Success, "Registration successful! Please check your email to verify your account.", "/login")
}

// BaseURL is the externally visible origin used in mailed links. It's taken
// from the config and derived from the request when not set.
func BaseURL(c *gin.Context, d *internal.Deps) string {
	if d.Config != nil && d.Config.Host.BaseURL != "" {
		return d.Config.Host.BaseURL
	}

	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}

	return scheme + "://" + c.Request.Host
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
