package services

import (
	"context"

	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/models"
)

// UpdateProfile changes the profile of userID.
//
// Offline, or when the remote call fails in transport, the patch is merged
// into the cached user only; it is not queued.
func (g *Gateway) UpdateProfile(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	if g.conn.Online() {
		rctx, cancel := g.remoteCtx(ctx)
		u, err := g.remote.UpdateProfile(rctx, userID, patch)
		cancel()

		switch {
		case err == nil:
			g.persisted(ctx, "set user", g.store.SetUser(ctx, u))
			return u, nil
		case !isTransport(err):
			return nil, err
		}
		g.log.Warn(ctx, "profile update failed in transport, applying locally", "error", err)
	}

	u := g.store.GetUser(ctx)
	if u == nil {
		return nil, client.ErrNotAuthenticated
	}
	u.Apply(patch)
	g.persisted(ctx, "set user", g.store.SetUser(ctx, u))
	return u, nil
}

// SearchUsers looks up other users by name or username. It needs
// connectivity.
func (g *Gateway) SearchUsers(ctx context.Context, query, currentUserID string) ([]models.UserSummary, error) {
	if !g.conn.Online() {
		return nil, client.ErrUnavailable
	}

	rctx, cancel := g.remoteCtx(ctx)
	defer cancel()

	return g.remote.SearchUsers(rctx, query, currentUserID)
}
