// Package models defines client-side data models used by the notex client.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PlaceholderPrefix marks note ids synthesized locally while offline.
const PlaceholderPrefix = "offline-"

// Note is a single note as seen by the client.
type Note struct {
	// Id is the remote-issued identifier or a placeholder (see PlaceholderID).
	Id string `json:"id"`

	Title   string `json:"title"`
	Content string `json:"content"`

	// AuthorID references User.Id.
	AuthorID string `json:"authorId"`

	IsLocked bool `json:"isLocked"`
	// Password is opaque and only meaningful when IsLocked is set.
	Password string `json:"password,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Offline is true while the remote service has not confirmed this
	// representation of the note.
	Offline bool `json:"offline,omitempty"`
}

// NoteDraft is the request body used to create a note remotely. It carries no
// id and no offline marker.
type NoteDraft struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	AuthorID  string     `json:"authorId"`
	IsLocked  bool       `json:"isLocked,omitempty"`
	Password  string     `json:"password,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// NotePatch is a partial update. Nil fields are left untouched.
type NotePatch struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	IsLocked *bool   `json:"isLocked,omitempty"`
	Password *string `json:"password,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.IsLocked == nil && p.Password == nil
}

// Apply merges p into n the same way the remote service does: the password
// only changes together with the lock flag and is cleared on unlock.
func (n *Note) Apply(p NotePatch) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.IsLocked != nil {
		n.IsLocked = *p.IsLocked
		switch {
		case p.Password != nil && *p.Password != "":
			n.Password = *p.Password
		case !*p.IsLocked:
			n.Password = ""
		}
	}
}

// Draft strips the placeholder id and offline marker from n.
func (n Note) Draft() NoteDraft {
	d := NoteDraft{
		Title:    n.Title,
		Content:  n.Content,
		AuthorID: n.AuthorID,
		IsLocked: n.IsLocked,
		Password: n.Password,
	}
	if !n.CreatedAt.IsZero() {
		t := n.CreatedAt
		d.CreatedAt = &t
	}
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		d.UpdatedAt = &t
	}
	return d
}

// SortKey is the timestamp notes are ordered by: UpdatedAt, or CreatedAt when
// UpdatedAt is unset.
func (n Note) SortKey() time.Time {
	if n.UpdatedAt.IsZero() {
		return n.CreatedAt
	}
	return n.UpdatedAt
}

// PlaceholderID returns the placeholder id for a note authored at t.
func PlaceholderID(t time.Time) string {
	return fmt.Sprintf("%s%d", PlaceholderPrefix, t.Unix())
}

// IsPlaceholderID reports whether id has the offline-<digits> shape.
func IsPlaceholderID(id string) bool {
	rest, ok := strings.CutPrefix(id, PlaceholderPrefix)
	if !ok || rest == "" {
		return false
	}
	_, err := strconv.ParseUint(rest, 10, 64)
	return err == nil
}

// StringPtr and BoolPtr build patch fields.
func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }
