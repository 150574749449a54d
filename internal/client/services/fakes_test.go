package services

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/cache"
	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/dmitrijs2005/notex/internal/logging"
	"github.com/stretchr/testify/require"
)

type fakeConn struct{ online atomic.Bool }

func (f *fakeConn) Online() bool { return f.online.Load() }

// fakeClient implements client.Client. Unset funcs fail the test when called.
type fakeClient struct {
	t *testing.T

	mu    sync.Mutex
	calls []string

	login         func(username, password string) (*models.User, error)
	signup        func(models.Credentials) (*models.User, error)
	me            func() (*models.User, error)
	listNotes     func(authorID string) ([]models.Note, error)
	createNote    func(models.NoteDraft) (*models.Note, error)
	updateNote    func(id string, p models.NotePatch) (*models.Note, error)
	deleteNote    func(id string) error
	shareNote     func(id, username string) error
	unlockNote    func(id, password string) (bool, error)
	searchUsers   func(q, current string) ([]models.UserSummary, error)
	updateProfile func(id string, p models.UserPatch) (*models.User, error)
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) record(name string, stubbed bool) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if !stubbed {
		f.t.Fatalf("unexpected remote call %s", name)
	}
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Login(_ context.Context, u, p string) (*models.User, error) {
	f.record("login", f.login != nil)
	return f.login(u, p)
}

func (f *fakeClient) Signup(_ context.Context, c models.Credentials) (*models.User, error) {
	f.record("signup", f.signup != nil)
	return f.signup(c)
}

func (f *fakeClient) Me(context.Context) (*models.User, error) {
	f.record("me", f.me != nil)
	return f.me()
}

func (f *fakeClient) ListNotes(_ context.Context, a string) ([]models.Note, error) {
	f.record("list", f.listNotes != nil)
	return f.listNotes(a)
}

func (f *fakeClient) CreateNote(_ context.Context, d models.NoteDraft) (*models.Note, error) {
	f.record("create", f.createNote != nil)
	return f.createNote(d)
}

func (f *fakeClient) UpdateNote(_ context.Context, id string, p models.NotePatch) (*models.Note, error) {
	f.record("update "+id, f.updateNote != nil)
	return f.updateNote(id, p)
}

func (f *fakeClient) DeleteNote(_ context.Context, id string) error {
	f.record("delete "+id, f.deleteNote != nil)
	return f.deleteNote(id)
}

func (f *fakeClient) ShareNote(_ context.Context, id, u string) error {
	f.record("share "+id, f.shareNote != nil)
	return f.shareNote(id, u)
}

func (f *fakeClient) UnlockNote(_ context.Context, id, p string) (bool, error) {
	f.record("unlock "+id, f.unlockNote != nil)
	return f.unlockNote(id, p)
}

func (f *fakeClient) SearchUsers(_ context.Context, q, c string) ([]models.UserSummary, error) {
	f.record("search", f.searchUsers != nil)
	return f.searchUsers(q, c)
}

func (f *fakeClient) UpdateProfile(_ context.Context, id string, p models.UserPatch) (*models.User, error) {
	f.record("profile "+id, f.updateProfile != nil)
	return f.updateProfile(id, p)
}

var errDown = client.ErrTransport

type fixture struct {
	gw     *Gateway
	conn   *fakeConn
	remote *fakeClient
	cache  *cache.Cache
}

var fixedNow = time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, online bool) *fixture {
	t.Helper()
	c := cache.Open(context.Background(), filepath.Join(t.TempDir(), "notex.db"), logging.Nop())
	t.Cleanup(func() { _ = c.Close() })
	require.NotEqual(t, cache.MemoryPath, c.Path())

	conn := &fakeConn{}
	conn.online.Store(online)
	remote := &fakeClient{t: t}

	gw := NewGateway(conn, remote, c, logging.Nop(), time.Second)
	gw.now = func() time.Time { return fixedNow }
	return &fixture{gw: gw, conn: conn, remote: remote, cache: c}
}

// gatedStore parks the first offline update inside the cache transaction
// until release is closed. started is closed once a second update arrives.
type gatedStore struct {
	*cache.Cache

	calls   atomic.Int32
	entered chan struct{}
	started chan struct{}
	release chan struct{}
}

func newGatedStore(c *cache.Cache) *gatedStore {
	return &gatedStore{
		Cache:   c,
		entered: make(chan struct{}),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedStore) UpdateOffline(ctx context.Context, id string, p models.NotePatch, mutate func(*models.Note)) (*models.Note, error) {
	if s.calls.Add(1) == 1 {
		return s.Cache.UpdateOffline(ctx, id, p, func(n *models.Note) {
			close(s.entered)
			<-s.release
			mutate(n)
		})
	}
	close(s.started)
	return s.Cache.UpdateOffline(ctx, id, p, mutate)
}
