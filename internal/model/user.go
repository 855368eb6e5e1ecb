// Package model defines database models
package model

import "time"

// User is an account. It's created unverified and only ever mutated
// once, when the verification token sent by email is redeemed.
type User struct {
	ID                string    `gorm:"primaryKey;size:32" bson:"-"`
	Username          string    `gorm:"uniqueIndex;not null" bson:"username"`
	Email             string    `gorm:"uniqueIndex;not null" bson:"email"`
	PasswordHash      string    `gorm:"not null" bson:"password"`
	Verified          bool      `gorm:"default:false" bson:"verified"`
	VerificationToken string    `gorm:"index" bson:"verification_token"`
	CreatedAt         time.Time `bson:"created_at"`
}
