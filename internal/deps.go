package internal

import (
	"bitwise74/diapredict/config"
	"bitwise74/diapredict/db"
	"bitwise74/diapredict/internal/predictor"
	"bitwise74/diapredict/internal/service"
	"bitwise74/diapredict/pkg/security"
)

type Deps struct {
	Config    *config.Config
	Users     db.UserStore
	Records   db.RecordStore
	Argon     *security.ArgonHash
	Predictor predictor.Predictor
	Notifier  *service.Notifier
}
