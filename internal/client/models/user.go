package models

import (
	"strings"
	"time"
)

// User is the identity of the signed-in account. The cache keeps exactly one
// and replaces it wholesale on every successful auth or profile response.
type User struct {
	Id              string     `json:"id"`
	Username        string     `json:"username"`
	Name            string     `json:"name"`
	ProfilePicture  *string    `json:"profilePicture,omitempty"`
	DefaultNoteName string     `json:"defaultNoteName,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// UserPatch is a partial profile update.
type UserPatch struct {
	Name            *string `json:"name,omitempty"`
	Username        *string `json:"username,omitempty"`
	ProfilePicture  *string `json:"profilePicture,omitempty"`
	DefaultNoteName *string `json:"defaultNoteName,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}

// Apply merges p into u. Usernames are stored lower-case and an empty
// picture clears the avatar, mirroring the remote settings endpoint.
// NewPassword never reaches the local copy.
func (u *User) Apply(p UserPatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Username != nil {
		u.Username = strings.ToLower(*p.Username)
	}
	if p.ProfilePicture != nil {
		if *p.ProfilePicture == "" {
			u.ProfilePicture = nil
		} else {
			pic := *p.ProfilePicture
			u.ProfilePicture = &pic
		}
	}
	if p.DefaultNoteName != nil {
		u.DefaultNoteName = *p.DefaultNoteName
	}
}

// UserSummary is a search hit returned by the remote user directory.
type UserSummary struct {
	Id             string  `json:"id"`
	Name           string  `json:"name"`
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

// Credentials is the body of login and signup requests.
type Credentials struct {
	Name     string  `json:"name,omitempty"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Image    *string `json:"image,omitempty"`
}
