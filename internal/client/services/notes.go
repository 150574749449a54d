package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/models"
)

// ListNotes returns the notes of authorID.
//
// Online, the remote list replaces the cached snapshot and is returned as is.
// Offline, or when the remote call fails in transport, the cached view is
// returned without error.
func (g *Gateway) ListNotes(ctx context.Context, authorID string) ([]models.Note, error) {
	if !g.conn.Online() {
		return g.store.Notes(ctx), nil
	}

	rctx, cancel := g.remoteCtx(ctx)
	defer cancel()

	list, err := g.remote.ListNotes(rctx, authorID)
	if err != nil {
		if isTransport(err) {
			g.log.Warn(ctx, "listing notes failed, serving cache", "error", err)
			return g.store.Notes(ctx), nil
		}
		return nil, err
	}

	g.persisted(ctx, "set online notes", g.store.SetOnlineNotes(ctx, list))
	return list, nil
}

// CreateNote creates a note remotely, or locally under a placeholder id when
// the remote service cannot be reached.
func (g *Gateway) CreateNote(ctx context.Context, title, content, authorID string) (*models.Note, error) {
	if g.conn.Online() {
		rctx, cancel := g.remoteCtx(ctx)
		n, err := g.remote.CreateNote(rctx, models.NoteDraft{Title: title, Content: content, AuthorID: authorID})
		cancel()

		switch {
		case err == nil:
			g.persisted(ctx, "save note", g.store.SaveNote(ctx, *n))
			return n, nil
		case !isTransport(err):
			return nil, err
		}
		g.log.Warn(ctx, "create failed in transport, storing offline", "error", err)
	}

	return g.createOffline(ctx, title, content, authorID), nil
}

func (g *Gateway) createOffline(ctx context.Context, title, content, authorID string) *models.Note {
	now := g.now()
	n, err := g.store.CreateOffline(ctx, models.Note{
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		g.persisted(ctx, "create offline note", err)
		return &n
	}

	g.log.Info(ctx, "note created offline", "id", n.Id)
	return &n
}

// UpdateNote applies patch to note id.
//
// Offline, an unknown id is a no-op returning (nil, nil). Online, a transport
// failure is returned as an error and nothing is queued.
func (g *Gateway) UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	if !g.conn.Online() {
		return g.updateOffline(ctx, id, patch), nil
	}

	rctx, cancel := g.remoteCtx(ctx)
	defer cancel()

	n, err := g.remote.UpdateNote(rctx, id, patch)
	if err != nil {
		return nil, err
	}
	g.persisted(ctx, "save note", g.store.SaveNote(ctx, *n))
	return n, nil
}

func (g *Gateway) updateOffline(ctx context.Context, id string, patch models.NotePatch) *models.Note {
	now := g.now()
	n, err := g.store.UpdateOffline(ctx, id, patch, func(n *models.Note) {
		n.Apply(patch)
		n.UpdatedAt = now
		if n.UpdatedAt.Before(n.CreatedAt) {
			n.UpdatedAt = n.CreatedAt
		}
		n.Offline = true
	})
	if err != nil {
		g.persisted(ctx, "update offline note", err)
		return nil
	}
	if n == nil {
		g.log.Debug(ctx, "offline update of unknown note ignored", "id", id)
	}
	return n
}

// DeleteNote deletes note id remotely, or hides it locally and queues the
// deletion while offline.
func (g *Gateway) DeleteNote(ctx context.Context, id string) error {
	if !g.conn.Online() {
		g.persisted(ctx, "delete offline note", g.store.DeleteOffline(ctx, id))
		return nil
	}

	rctx, cancel := g.remoteCtx(ctx)
	defer cancel()

	if err := g.remote.DeleteNote(rctx, id); err != nil {
		return err
	}
	g.persisted(ctx, "remove note", g.store.RemoveNote(ctx, id))
	return nil
}

// ShareNote gives username access to note id. It needs connectivity.
func (g *Gateway) ShareNote(ctx context.Context, id, username string) error {
	if !g.conn.Online() {
		return client.ErrUnavailable
	}

	rctx, cancel := g.remoteCtx(ctx)
	defer cancel()

	return g.remote.ShareNote(rctx, id, username)
}

// UnlockNote checks password against a locked note. A rejected password is
// reported as (false, nil). It needs connectivity.
func (g *Gateway) UnlockNote(ctx context.Context, id, password string) (bool, error) {
	if !g.conn.Online() {
		return false, client.ErrUnavailable
	}

	rctx, cancel := g.remoteCtx(ctx)
	defer cancel()

	ok, err := g.remote.UnlockNote(rctx, id, password)
	var re *client.RemoteError
	if errors.As(err, &re) && (re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden) {
		return false, nil
	}
	return ok, err
}
