package predict

import (
	"bitwise74/diapredict/internal"
	"bitwise74/diapredict/internal/metrics"
	"bitwise74/diapredict/internal/view"
	"bitwise74/diapredict/pkg/session"
	"bitwise74/diapredict/pkg/validators"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func PredictPage(c *gin.Context) {
	view.Render(c, http.StatusOK, "predict.html", nil)
}

func Predict(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	username := c.MustGet("username").(string)

	if err := c.Request.ParseForm(); err != nil {
		view.BadForm(c, err)
		return
	}

	record, err := validators.ParseMeasurements(c.Request.PostForm.Get)
	if err != nil {
		var mErr *validators.MeasurementError
		if !errors.As(err, &mErr) {
			view.InternalError(c, "Failed to parse measurements", err)
			return
		}

		zap.L().Debug("Invalid measurements", zap.String("field", mErr.Field), zap.String("requestID", requestID))

		session.AddFlash(c, session.Error, mErr.Error())
		view.Render(c, http.StatusBadRequest, "predict.html", gin.H{
			"form": c.Request.PostForm,
		})
		return
	}

	prediction, err := d.Predictor.Predict(record.Features())
	if err != nil {
		view.InternalError(c, "Failed to run prediction", err)
		return
	}

	record.Username = username
	record.Date = time.Now().UTC()
	record.Prediction = prediction

	ctx := c.Request.Context()

	if err := d.Records.Create(ctx, record); err != nil {
		view.InternalError(c, "Failed to save prediction", err)
		return
	}

	metrics.Predictions.WithLabelValues(record.Outcome()).Inc()

	user, err := d.Users.FindByUsername(ctx, username)
	if err != nil {
		view.InternalError(c, "Failed to look up report recipient", err)
		return
	}

	if err := d.Notifier.SendReport(ctx, user.Email, record); err != nil {
		view.InternalError(c, "Failed to send diabetes report", err)
		return
	}

	view.Render(c, http.StatusOK, "prediction.html", gin.H{
		"prediction": record.Prediction,
		"outcome":    record.Outcome(),
		"record":     record,
	})
}
