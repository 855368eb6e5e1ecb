package db

import (
	"bitwise74/diapredict/internal/model"
	"context"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type SQLUsers struct {
	DB *gorm.DB
}

func (s *SQLUsers) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		id, err := gonanoid.Generate(idCharset, 16)
		if err != nil {
			return fmt.Errorf("failed to generate user ID, %w", err)
		}
		u.ID = id
	}

	err := s.DB.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}

	return err
}

func (s *SQLUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findBy(ctx, "username = ?", username)
}

func (s *SQLUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findBy(ctx, "email = ?", email)
}

func (s *SQLUsers) findBy(ctx context.Context, query string, arg string) (*model.User, error) {
	var user model.User

	err := s.DB.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (s *SQLUsers) VerifyByToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}

	user, err := s.findBy(ctx, "verification_token = ?", token)
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("verified", true).
		Error
}

type SQLRecords struct {
	DB *gorm.DB
}

func (s *SQLRecords) Create(ctx context.Context, r *model.Record) error {
	if r.ID == "" {
		id, err := gonanoid.Generate(idCharset, 16)
		if err != nil {
			return fmt.Errorf("failed to generate record ID, %w", err)
		}
		r.ID = id
	}

	return s.DB.WithContext(ctx).Create(r).Error
}

func (s *SQLRecords) ListByUser(ctx context.Context, username string) ([]model.Record, error) {
	records := []model.Record{}

	err := s.DB.WithContext(ctx).
		Where("username = ?", username).
		Order("date desc").
		Find(&records).
		Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (s *SQLRecords) DeleteOwned(ctx context.Context, id, username string) (int64, error) {
	r := s.DB.WithContext(ctx).
		Where("id = ? AND username = ?", id, username).
		Delete(&model.Record{})

	return r.RowsAffected, r.Error
}

func (s *SQLRecords) DeleteAllOwned(ctx context.Context, username string) (int64, error) {
	r := s.DB.WithContext(ctx).
		Where("username = ?", username).
		Delete(&model.Record{})

	return r.RowsAffected, r.Error
}
