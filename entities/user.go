package entities

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.png"
	MinPasswordLength     = 6
	MaxPasswordLength     = 72 // bcrypt input limit
)

var (
	ErrInvalidPassword = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
	ErrInvalidUsername = errors.New("username is required")
	ErrInvalidEmail    = errors.New("email is required")
)

// User is a warbler account.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"-"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	ImageURL       string    `json:"image_url"`
	HeaderImageURL string    `json:"header_image_url"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Password       string    `gorm:"not null" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Signup builds a user with a bcrypt-hashed password. The user is not
// persisted; uniqueness of username and email is left to the database.
func Signup(username, email, password, imageURL string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, ErrInvalidUsername
	}
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrInvalidPassword
	}
	if len(password) > MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if imageURL == "" {
		imageURL = DefaultImageURL
	}
	return &User{
		Username:       username,
		Email:          email,
		Password:       string(hash),
		ImageURL:       imageURL,
		HeaderImageURL: DefaultHeaderImageURL,
	}, nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
