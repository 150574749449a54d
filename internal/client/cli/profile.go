package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/notex/internal/client/models"
)

// Profile edits the signed-in user's profile. Empty answers keep the current
// value. Offline, changes are applied to the cached profile only.
func (a *App) Profile(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	var patch models.UserPatch
	fields := []struct {
		prompt string
		dst    **string
	}{
		{"New name (empty keeps current)", &patch.Name},
		{"New username (empty keeps current)", &patch.Username},
		{"Default note title (empty keeps current)", &patch.DefaultNoteName},
	}
	for _, f := range fields {
		v, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = models.StringPtr(v)
		}
	}

	password, err := getPassword("New password (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	defer wipe(password)
	if len(password) > 0 {
		patch.NewPassword = models.StringPtr(string(password))
	}

	updated, err := a.gateway.UpdateProfile(ctx, u.Id, patch)
	if err != nil {
		return a.fail(err)
	}

	a.setUser(updated)
	fmt.Fprintf(a.out, "Profile saved: %s (@%s)\n", updated.Name, updated.Username)
	return nil
}

// Search looks up other users. It needs a connection.
func (a *App) Search(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}
	query, err := getSimpleText(a.reader, "Search users", a.out)
	if err != nil {
		return err
	}

	users, err := a.gateway.SearchUsers(ctx, query, u.Id)
	if err != nil {
		return a.fail(err)
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users found")
		return nil
	}
	for _, s := range users {
		fmt.Fprintf(a.out, "%s (@%s)\n", s.Name, s.Username)
	}
	return nil
}
