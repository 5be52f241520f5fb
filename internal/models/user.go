package models

import "time"

// User is a persisted account record.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	FullName     string    `json:"fullName" bson:"fullName"`
	Avatar       string    `json:"avatar" bson:"avatar"`
	CoverImage   string    `json:"coverImage,omitempty" bson:"coverImage,omitempty"`
	PasswordHash string    `json:"-" bson:"password"` // don’t expose hash
	AccessToken  string    `json:"-" bson:"accessToken,omitempty"`
	RefreshToken string    `json:"-" bson:"refreshToken,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Sanitized returns a copy with the password hash and both session tokens cleared.
func (u User) Sanitized() *User {
	u.PasswordHash = ""
	u.AccessToken = ""
	u.RefreshToken = ""
	return &u
}

// UserUpdate lists the fields to change on a record. Nil pointers are left
// untouched; a pointer to "" clears a nullable field.
type UserUpdate struct {
	FullName     *string
	Email        *string
	Avatar       *string
	CoverImage   *string
	PasswordHash *string
	AccessToken  *string
	RefreshToken *string

	// IfRefreshToken, when set, makes the write conditional: it applies only
	// while the stored refresh token equals this value.
	IfRefreshToken *string
}

// IsEmpty reports whether the update changes nothing. IfRefreshToken is a
// condition, not a change.
func (u UserUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Email == nil && u.Avatar == nil && u.CoverImage == nil &&
		u.PasswordHash == nil && u.AccessToken == nil && u.RefreshToken == nil
}

// Ptr returns a pointer to s. Handy when building a UserUpdate.
func Ptr(s string) *string { return &s }
