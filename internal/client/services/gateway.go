// Package services contains the application services of the notex client.
//
// Gateway is the single entry point the shell uses for user-visible
// operations. While the remote service is reachable it forwards every call
// and writes successful results through to the local cache. While it is not,
// operations are served from the cache and mutations are queued for later
// replay.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/dmitrijs2005/notex/internal/logging"
)

// Connectivity reports the latest reachability verdict.
type Connectivity interface {
	Online() bool
}

// Store is the part of the local cache the gateway needs.
type Store interface {
	GetUser(ctx context.Context) *models.User
	SetUser(ctx context.Context, u *models.User) error

	Notes(ctx context.Context) []models.Note
	SaveNote(ctx context.Context, n models.Note) error
	RemoveNote(ctx context.Context, id string) error
	SetOnlineNotes(ctx context.Context, notes []models.Note) error

	// Offline mutations record the change and its queue entry atomically.
	CreateOffline(ctx context.Context, n models.Note) (models.Note, error)
	UpdateOffline(ctx context.Context, id string, patch models.NotePatch, mutate func(*models.Note)) (*models.Note, error)
	DeleteOffline(ctx context.Context, id string) error

	QueueLen(ctx context.Context) int
}

// DefaultRequestTimeout bounds each remote call when no timeout is given.
const DefaultRequestTimeout = 30 * time.Second

type Gateway struct {
	conn    Connectivity
	remote  client.Client
	store   Store
	log     logging.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewGateway(conn Connectivity, remote client.Client, store Store, log logging.Logger, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Gateway{
		conn:    conn,
		remote:  remote,
		store:   store,
		log:     log.With("component", "gateway"),
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Online reports whether calls currently go to the remote service.
func (g *Gateway) Online() bool {
	return g.conn.Online()
}

// PendingChanges is the number of queued offline mutations.
func (g *Gateway) PendingChanges(ctx context.Context) int {
	return g.store.QueueLen(ctx)
}

func (g *Gateway) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

// persisted logs a failed cache write. Cache failures never fail the
// operation that caused them.
func (g *Gateway) persisted(ctx context.Context, op string, err error) {
	if err != nil {
		g.log.Warn(ctx, "cache write failed", "op", op, "error", err)
	}
}

// isTransport reports whether err means the request got no usable answer.
func isTransport(err error) bool {
	return errors.Is(err, client.ErrUnavailable) && !errors.Is(err, client.ErrRemoteRejected)
}
