package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/models"
)

func formatNote(n models.Note) string {
	var flags []string
	if n.IsLocked {
		flags = append(flags, "locked")
	}
	if n.Offline {
		flags = append(flags, "not synced")
	}

	line := fmt.Sprintf("%-24s %-30s %s", n.Id, n.Title, n.SortKey().Local().Format(time.DateTime))
	if len(flags) > 0 {
		line += " [" + strings.Join(flags, ", ") + "]"
	}
	return line
}

// List prints the notes of the signed-in user, newest first.
func (a *App) List(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}

	notes, err := a.gateway.ListNotes(ctx, u.Id)
	if err != nil {
		return a.fail(err)
	}
	if len(notes) == 0 {
		fmt.Fprintln(a.out, "No notes")
		return nil
	}
	for _, n := range notes {
		fmt.Fprintln(a.out, formatNote(n))
	}
	return nil
}

func (a *App) findNote(ctx context.Context, authorID, id string) (*models.Note, error) {
	notes, err := a.gateway.ListNotes(ctx, authorID)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		if notes[i].Id == id {
			return &notes[i], nil
		}
	}
	return nil, nil
}

// Show prints one note. Locked notes ask for their password first.
func (a *App) Show(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Enter note id", a.out)
	if err != nil {
		return err
	}

	n, err := a.findNote(ctx, u.Id, id)
	if err != nil {
		return a.fail(err)
	}
	if n == nil {
		fmt.Fprintf(a.out, "Note %s not found\n", id)
		return nil
	}

	if n.IsLocked {
		password, err := getPassword("Note password", a.out)
		if err != nil {
			return err
		}
		defer wipe(password)

		ok, err := a.gateway.UnlockNote(ctx, n.Id, string(password))
		if err != nil {
			return a.fail(err)
		}
		if !ok {
			fmt.Fprintln(a.out, "Wrong password")
			return nil
		}
	}

	fmt.Fprintln(a.out, formatNote(*n))
	fmt.Fprintln(a.out, n.Content)
	return nil
}

// New creates a note. Offline it is stored locally and synced later.
func (a *App) New(ctx context.Context) error {
	u, err := a.requireUser()
	if err != nil {
		return err
	}
	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}
	if title == "" {
		title = u.DefaultNoteName
	}
	content, err := getMultiline(a.reader, "Enter content", a.out)
	if err != nil {
		return err
	}

	n, err := a.gateway.CreateNote(ctx, title, content, u.Id)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Created note %s\n", n.Id)
	if n.Offline {
		fmt.Fprintln(a.out, "Saved offline, it will be sent when the server is reachable")
	}
	return nil
}

// Edit changes the title and content of a note. Empty answers keep the
// current value.
func (a *App) Edit(ctx context.Context) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Enter note id", a.out)
	if err != nil {
		return err
	}
	title, err := getSimpleText(a.reader, "New title (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "New content (empty keeps current)", a.out)
	if err != nil {
		return err
	}

	var patch models.NotePatch
	if title != "" {
		patch.Title = models.StringPtr(title)
	}
	if content != "" {
		patch.Content = models.StringPtr(content)
	}
	return a.update(ctx, id, patch)
}

// Lock protects a note with a password, or removes the protection.
func (a *App) Lock(ctx context.Context) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Enter note id", a.out)
	if err != nil {
		return err
	}
	lock, err := getConfirmation(a.reader, "Lock this note?", a.out)
	if err != nil {
		return err
	}

	patch := models.NotePatch{IsLocked: models.BoolPtr(lock)}
	if lock {
		password, err := getPassword("Note password", a.out)
		if err != nil {
			return err
		}
		defer wipe(password)
		if len(password) == 0 {
			fmt.Fprintln(a.out, "A locked note needs a password")
			return nil
		}
		patch.Password = models.StringPtr(string(password))
	}
	return a.update(ctx, id, patch)
}

func (a *App) update(ctx context.Context, id string, patch models.NotePatch) error {
	if patch.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	n, err := a.gateway.UpdateNote(ctx, id, patch)
	if err != nil {
		return a.fail(err)
	}
	if n == nil {
		fmt.Fprintf(a.out, "Note %s not found\n", id)
		return nil
	}

	fmt.Fprintf(a.out, "Updated note %s\n", n.Id)
	return nil
}

// Delete removes a note after confirmation.
func (a *App) Delete(ctx context.Context) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Enter note id to delete", a.out)
	if err != nil {
		return err
	}
	ok, err := getConfirmation(a.reader, fmt.Sprintf("Delete note %s?", id), a.out)
	if err != nil || !ok {
		return err
	}

	if err := a.gateway.DeleteNote(ctx, id); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Deleted note %s\n", id)
	return nil
}

// Share gives another user access to a note. It needs a connection.
func (a *App) Share(ctx context.Context) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Enter note id", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Share with username", a.out)
	if err != nil {
		return err
	}

	if err := a.gateway.ShareNote(ctx, id, username); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Shared note %s with %s\n", id, username)
	return nil
}
