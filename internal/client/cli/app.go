package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/notex/internal/client/cache"
	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/config"
	"github.com/dmitrijs2005/notex/internal/client/connectivity"
	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/dmitrijs2005/notex/internal/client/reconcile"
	"github.com/dmitrijs2005/notex/internal/client/services"
	"github.com/dmitrijs2005/notex/internal/filex"
	"github.com/dmitrijs2005/notex/internal/logging"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Gateway is the set of operations the shell offers. *services.Gateway
// implements it.
type Gateway interface {
	Online() bool
	PendingChanges(ctx context.Context) int

	Login(ctx context.Context, username, password string) (*models.User, error)
	Signup(ctx context.Context, creds models.Credentials) (*models.User, error)
	Logout(ctx context.Context)
	CurrentUser(ctx context.Context) (*models.User, error)

	ListNotes(ctx context.Context, authorID string) ([]models.Note, error)
	CreateNote(ctx context.Context, title, content, authorID string) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error)
	DeleteNote(ctx context.Context, id string) error
	ShareNote(ctx context.Context, id, username string) error
	UnlockNote(ctx context.Context, id, password string) (bool, error)

	UpdateProfile(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error)
	SearchUsers(ctx context.Context, query, currentUserID string) ([]models.UserSummary, error)
}

// Syncer replays queued changes on demand.
type Syncer interface {
	Drain(ctx context.Context) reconcile.Report
}

// Poller runs one reachability probe.
type Poller interface {
	Poll(ctx context.Context) bool
}

// Store is the local cache as the shell sees it.
type Store interface {
	io.Closer
	Path() string
}

type App struct {
	config  *config.Config
	log     logging.Logger
	gateway Gateway
	syncer  Syncer
	poller  Poller
	watcher *connectivity.Watcher
	store   Store

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
	user *models.User
}

// NewApp wires the local cache, the remote client, the connectivity watcher,
// the gateway and the reconciliation engine.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.CachePath); err != nil {
		log.Warn(ctx, "cannot create cache directory", "path", c.CachePath, "error", err)
	}
	store := cache.Open(ctx, c.CachePath, log)

	remote, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	state := connectivity.NewState()
	probe := connectivity.NewProbe(c.ServerURL, c.ProbePath, c.ProbeTimeout)
	watcher := connectivity.NewWatcher(probe, state, c.OnlineCheckInterval, log)

	gw := services.NewGateway(state, remote, store, log, c.RequestTimeout)
	engine := reconcile.NewEngine(store, remote, gw, log, c.RequestTimeout)

	a := &App{
		config:  c,
		log:     log,
		gateway: gw,
		syncer:  engine,
		poller:  watcher,
		watcher: watcher,
		store:   store,
		reader:  bufio.NewReader(os.Stdin),
		out:     &syncWriter{w: os.Stdout},
	}

	watcher.OnTransition(a.onTransition)
	watcher.OnTransition(engine.HandleTransition)
	return a, nil
}

func (a *App) onTransition(_ context.Context, online bool) {
	if online {
		a.setMode(ModeOnline)
	} else {
		a.setMode(ModeOffline)
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) currentUser() *models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *App) setUser(u *models.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = u
}

func (a *App) isLoggedIn() bool {
	return a.currentUser() != nil
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var parts []string
	if a.user != nil {
		parts = append(parts, a.user.Username)
	}
	if a.mode != "" {
		parts = append(parts, string(a.mode))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Run starts the connectivity watcher and the REPL. It returns when the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close()

	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		a.Root(ctx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.watcher.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-replDone:
			cancel()
		case <-gctx.Done():
		}
		return nil
	})
	return g.Wait()
}

func (a *App) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn(context.Background(), "closing cache failed", "error", err)
	}
}

// Root restores the cached session and runs the REPL until exit.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to notex (type 'help' for commands)")

	if u, err := a.gateway.CurrentUser(ctx); err == nil {
		a.setUser(u)
		fmt.Fprintf(a.out, "Signed in as %s\n", u.Username)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// syncWriter serializes writes from the REPL and the watcher's listeners.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// fail reports err to the user and returns it.
func (a *App) fail(err error) error {
	fmt.Fprintf(a.out, "Error: %s\n", describe(err))
	return err
}
