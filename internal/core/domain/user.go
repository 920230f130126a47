package domain

import (
	"time"

	"github.com/google/uuid"
)

// User models an account that can authenticate against the API.
type User struct {
	ID              int64      `json:"-"`
	UUID            uuid.UUID  `json:"uuid"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	FullName        *string    `json:"full_name"`
	DisplayPicture  *uuid.UUID `json:"display_picture"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsVerified reports whether the account completed e-mail verification.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil && !u.EmailVerifiedAt.IsZero()
}

// ProfileUpdate carries the optional fields of a profile change.
type ProfileUpdate struct {
	FullName       *string
	DisplayPicture *uuid.UUID
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.FullName == nil && p.DisplayPicture == nil
}

// Page selects a window of a listing.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the zero-based row offset of the page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit
}
