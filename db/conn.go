// Package db contains the user and prediction record stores. MongoDB is
// the default backend; SQLite and Postgres are supported through gorm.
package db

import (
	"bitwise74/diapredict/config"
	"bitwise74/diapredict/internal/model"
	"bitwise74/diapredict/pkg/util"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func New(ctx context.Context, cfg *config.StorageConfig) (*Stores, error) {
	switch cfg.Type {
	case "mongo":
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(cfg.DSN); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", cfg.DSN)
			}
		}

		return NewSQL(sqlite.Open(cfg.DSN))
	case "postgres":
		return NewSQL(postgres.Open(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// NewSQL opens a gorm connection with the given dialector and migrates
// the tables
func NewSQL(d gorm.Dialector) (*Stores, error) {
	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(model.User{}, model.Record{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return &Stores{
		Users:   &SQLUsers{DB: db},
		Records: &SQLRecords{DB: db},
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}
