package services

import (
	"context"

	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/models"
)

// Login authenticates against the remote service and caches the returned
// user. It needs connectivity; the cache is left untouched on failure.
func (g *Gateway) Login(ctx context.Context, username, password string) (*models.User, error) {
	if !g.conn.Online() {
		return nil, client.ErrUnavailable
	}

	rctx, cancel := g.remoteCtx(ctx)
	defer cancel()

	u, err := g.remote.Login(rctx, username, password)
	if err != nil {
		return nil, err
	}
	g.persisted(ctx, "set user", g.store.SetUser(ctx, u))
	g.log.Info(ctx, "logged in", "user_id", u.Id)
	return u, nil
}

// Signup creates an account and caches it, with the same rules as Login.
func (g *Gateway) Signup(ctx context.Context, creds models.Credentials) (*models.User, error) {
	if !g.conn.Online() {
		return nil, client.ErrUnavailable
	}

	rctx, cancel := g.remoteCtx(ctx)
	defer cancel()

	u, err := g.remote.Signup(rctx, creds)
	if err != nil {
		return nil, err
	}
	g.persisted(ctx, "set user", g.store.SetUser(ctx, u))
	g.log.Info(ctx, "signed up", "user_id", u.Id)
	return u, nil
}

// Logout forgets the cached user. Cached notes and queued changes stay.
func (g *Gateway) Logout(ctx context.Context) {
	g.persisted(ctx, "clear user", g.store.SetUser(ctx, nil))
}

// CurrentUser asks the remote service who is signed in and falls back to the
// cached user on any failure.
func (g *Gateway) CurrentUser(ctx context.Context) (*models.User, error) {
	if g.conn.Online() {
		rctx, cancel := g.remoteCtx(ctx)
		u, err := g.remote.Me(rctx)
		cancel()

		if err == nil {
			g.persisted(ctx, "set user", g.store.SetUser(ctx, u))
			return u, nil
		}
		g.log.Debug(ctx, "remote user lookup failed, using cache", "error", err)
	}

	if u := g.store.GetUser(ctx); u != nil {
		return u, nil
	}
	return nil, client.ErrNotAuthenticated
}
