package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/cache"
	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/config"
	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/dmitrijs2005/notex/internal/client/reconcile"
	"github.com/dmitrijs2005/notex/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	online  bool
	pending int

	user    *models.User
	authErr error
	creds   models.Credentials

	notes      []models.Note
	created    *models.Note
	createArgs []string
	patched    map[string]models.NotePatch
	updateRes  *models.Note
	deleted    []string
	shared     [][2]string
	unlockOK   bool
	unlockErr  error
	userPatch  *models.UserPatch
	found      []models.UserSummary
	searchErr  error
	loggedOut  bool
}

func (f *fakeGateway) Online() bool { return f.online }
func (f *fakeGateway) PendingChanges(context.Context) int { return f.pending }

func (f *fakeGateway) Login(_ context.Context, username, password string) (*models.User, error) {
	f.creds = models.Credentials{Username: username, Password: password}
	return f.user, f.authErr
}

func (f *fakeGateway) Signup(_ context.Context, c models.Credentials) (*models.User, error) {
	f.creds = c
	return f.user, f.authErr
}

func (f *fakeGateway) Logout(context.Context) { f.loggedOut = true }

func (f *fakeGateway) CurrentUser(context.Context) (*models.User, error) {
	if f.user == nil {
		return nil, client.ErrNotAuthenticated
	}
	return f.user, nil
}

func (f *fakeGateway) ListNotes(context.Context, string) ([]models.Note, error) {
	return f.notes, nil
}

func (f *fakeGateway) CreateNote(_ context.Context, title, content, authorID string) (*models.Note, error) {
	f.createArgs = []string{title, content, authorID}
	return f.created, nil
}

func (f *fakeGateway) UpdateNote(_ context.Context, id string, p models.NotePatch) (*models.Note, error) {
	if f.patched == nil {
		f.patched = make(map[string]models.NotePatch)
	}
	f.patched[id] = p
	return f.updateRes, nil
}

func (f *fakeGateway) DeleteNote(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGateway) ShareNote(_ context.Context, id, username string) error {
	if !f.online {
		return client.ErrUnavailable
	}
	f.shared = append(f.shared, [2]string{id, username})
	return nil
}

func (f *fakeGateway) UnlockNote(context.Context, string, string) (bool, error) {
	return f.unlockOK, f.unlockErr
}

func (f *fakeGateway) UpdateProfile(_ context.Context, _ string, p models.UserPatch) (*models.User, error) {
	f.userPatch = &p
	u := *f.user
	u.Apply(p)
	return &u, nil
}

func (f *fakeGateway) SearchUsers(context.Context, string, string) ([]models.UserSummary, error) {
	return f.found, f.searchErr
}

type fakeSyncer struct {
	calls  int
	report reconcile.Report
}

func (f *fakeSyncer) Drain(context.Context) reconcile.Report {
	f.calls++
	return f.report
}

type fakePoller struct{ online bool }

func (f fakePoller) Poll(context.Context) bool { return f.online }

var alice = &models.User{Id: "u1", Username: "alice", Name: "Alice", DefaultNoteName: "Untitled"}

// newTestApp returns an App reading input and writing to the returned buffer.
func newTestApp(gw *fakeGateway, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		config:  &config.Config{ServerURL: "http://notes.test", CachePath: "notex.db"},
		log:     logging.Nop(),
		gateway: gw,
		syncer:  &fakeSyncer{},
		poller:  fakePoller{online: gw.online},
		reader:  rdr(input),
		out:     &out,
	}, &out
}

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	getPassword = func(string, io.Writer) ([]byte, error) {
		if len(pws) == 0 {
			return []byte{}, nil
		}
		pw := pws[0]
		pws = pws[1:]
		return []byte(pw), nil
	}
	t.Cleanup(func() { getPassword = orig })
}

func TestLogin(t *testing.T) {
	stubPasswords(t, "pw")
	gw := &fakeGateway{online: true, user: alice}
	a, out := newTestApp(gw, "alice\n")

	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, models.Credentials{Username: "alice", Password: "pw"}, gw.creds)
	assert.True(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Logged in as alice")
}

func TestLogin_RemoteRejection(t *testing.T) {
	stubPasswords(t, "bad")
	gw := &fakeGateway{authErr: &client.RemoteError{StatusCode: 401, Message: "Invalid username or password"}}
	a, out := newTestApp(gw, "alice\n")

	err := a.Login(context.Background())

	assert.ErrorIs(t, err, client.ErrNotAuthenticated)
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, out.String(), "Error: Invalid username or password")
}

func TestSignup(t *testing.T) {
	stubPasswords(t, "pw")
	gw := &fakeGateway{online: true, user: alice}
	a, out := newTestApp(gw, "Alice\nalice\n")

	require.NoError(t, a.Signup(context.Background()))

	assert.Equal(t, models.Credentials{Name: "Alice", Username: "alice", Password: "pw"}, gw.creds)
	assert.Contains(t, out.String(), "Welcome, Alice!")
}

func TestLogoutAndWhoAmI(t *testing.T) {
	gw := &fakeGateway{user: alice}
	a, out := newTestApp(gw, "")
	ctx := context.Background()

	require.NoError(t, a.WhoAmI(ctx))
	assert.Contains(t, out.String(), "Alice (@alice) id=u1")
	assert.Equal(t, "(alice)", a.getStatus())

	require.NoError(t, a.Logout(ctx))
	assert.True(t, gw.loggedOut)
	assert.False(t, a.isLoggedIn())

	gw.user = nil
	assert.ErrorIs(t, a.WhoAmI(ctx), client.ErrNotAuthenticated)
}

func TestCommandsNeedUser(t *testing.T) {
	a, out := newTestApp(&fakeGateway{}, "")
	ctx := context.Background()

	for name, cmd := range map[string]func(context.Context) error{
		"list": a.List, "show": a.Show, "new": a.New, "edit": a.Edit, "lock": a.Lock,
		"delete": a.Delete, "share": a.Share, "search": a.Search, "profile": a.Profile,
	} {
		assert.ErrorIs(t, cmd(ctx), client.ErrNotAuthenticated, name)
	}
	assert.Contains(t, out.String(), "Error: not logged in")
}

func TestList(t *testing.T) {
	ts := time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC)
	gw := &fakeGateway{notes: []models.Note{
		{Id: "offline-1751358600", Title: "draft", CreatedAt: ts, Offline: true},
		{Id: "n1", Title: "secret", IsLocked: true, CreatedAt: ts, UpdatedAt: ts},
	}}
	a, out := newTestApp(gw, "")
	a.setUser(alice)

	require.NoError(t, a.List(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "offline-1751358600"))
	assert.True(t, strings.HasSuffix(lines[0], "[not synced]"))
	assert.True(t, strings.HasSuffix(lines[1], "[locked]"))

	gw.notes = nil
	out.Reset()
	require.NoError(t, a.List(context.Background()))
	assert.Equal(t, "No notes\n", out.String())
}

func TestShow_LockedNote(t *testing.T) {
	gw := &fakeGateway{online: true, notes: []models.Note{{Id: "n1", Title: "t", Content: "hidden body", IsLocked: true}}}
	ctx := context.Background()

	stubPasswords(t, "wrong", "right")

	a, out := newTestApp(gw, "n1\nn1\nmissing\n")
	a.setUser(alice)

	require.NoError(t, a.Show(ctx))
	assert.Contains(t, out.String(), "Wrong password")
	assert.NotContains(t, out.String(), "hidden body")

	gw.unlockOK = true
	require.NoError(t, a.Show(ctx))
	assert.Contains(t, out.String(), "hidden body")

	require.NoError(t, a.Show(ctx))
	assert.Contains(t, out.String(), "Note missing not found")
}

func TestNew_UsesDefaultTitleAndReportsOffline(t *testing.T) {
	gw := &fakeGateway{created: &models.Note{Id: "offline-5", Offline: true}}
	a, out := newTestApp(gw, "\nline one\nline two\n\n")
	a.setUser(alice)

	require.NoError(t, a.New(context.Background()))

	assert.Equal(t, []string{"Untitled", "line one\nline two", "u1"}, gw.createArgs)
	assert.Contains(t, out.String(), "Created note offline-5")
	assert.Contains(t, out.String(), "Saved offline")
}

func TestEdit(t *testing.T) {
	gw := &fakeGateway{updateRes: &models.Note{Id: "n1"}}
	ctx := context.Background()

	a, out := newTestApp(gw, "n1\nNew title\n\nn1\n\n\n")
	a.setUser(alice)

	require.NoError(t, a.Edit(ctx))
	p := gw.patched["n1"]
	require.NotNil(t, p.Title)
	assert.Equal(t, "New title", *p.Title)
	assert.Nil(t, p.Content)
	assert.Contains(t, out.String(), "Updated note n1")

	delete(gw.patched, "n1")
	require.NoError(t, a.Edit(ctx))
	assert.NotContains(t, gw.patched, "n1")
	assert.Contains(t, out.String(), "Nothing to change")
}

func TestEdit_UnknownNoteOffline(t *testing.T) {
	a, out := newTestApp(&fakeGateway{}, "ghost\nT\n\n")
	a.setUser(alice)

	require.NoError(t, a.Edit(context.Background()))
	assert.Contains(t, out.String(), "Note ghost not found")
}

func TestLock(t *testing.T) {
	stubPasswords(t, "s3cret")
	gw := &fakeGateway{updateRes: &models.Note{Id: "n1"}}
	a, _ := newTestApp(gw, "n1\ny\nn2\nn\n")
	a.setUser(alice)
	ctx := context.Background()

	require.NoError(t, a.Lock(ctx))
	require.NoError(t, a.Lock(ctx))

	locked := gw.patched["n1"]
	assert.True(t, *locked.IsLocked)
	assert.Equal(t, "s3cret", *locked.Password)

	unlocked := gw.patched["n2"]
	assert.False(t, *unlocked.IsLocked)
	assert.Nil(t, unlocked.Password)
}

func TestDelete_Confirmation(t *testing.T) {
	gw := &fakeGateway{}
	a, out := newTestApp(gw, "n1\nn\nn2\ny\n")
	a.setUser(alice)
	ctx := context.Background()

	require.NoError(t, a.Delete(ctx))
	require.NoError(t, a.Delete(ctx))

	assert.Equal(t, []string{"n2"}, gw.deleted)
	assert.Contains(t, out.String(), "Deleted note n2")
}

func TestShare(t *testing.T) {
	gw := &fakeGateway{online: true}
	a, out := newTestApp(gw, "n1\nbob\nn1\nbob\n")
	a.setUser(alice)
	ctx := context.Background()

	require.NoError(t, a.Share(ctx))
	assert.Equal(t, [][2]string{{"n1", "bob"}}, gw.shared)

	gw.online = false
	assert.ErrorIs(t, a.Share(ctx), client.ErrUnavailable)
	assert.Contains(t, out.String(), "Error: server unavailable")
}

func TestSearch(t *testing.T) {
	gw := &fakeGateway{found: []models.UserSummary{{Id: "u2", Name: "Bob", Username: "bob"}}}
	a, out := newTestApp(gw, "bo\nzz\n")
	a.setUser(alice)
	ctx := context.Background()

	require.NoError(t, a.Search(ctx))
	assert.Contains(t, out.String(), "Bob (@bob)")

	gw.found = nil
	require.NoError(t, a.Search(ctx))
	assert.Contains(t, out.String(), "No users found")
}

func TestProfile(t *testing.T) {
	stubPasswords(t, "")
	gw := &fakeGateway{user: alice}
	a, out := newTestApp(gw, "\nAliceW\nJournal\n")
	a.setUser(alice)

	require.NoError(t, a.Profile(context.Background()))

	require.NotNil(t, gw.userPatch)
	assert.Nil(t, gw.userPatch.Name)
	assert.Nil(t, gw.userPatch.NewPassword)
	assert.Equal(t, "AliceW", *gw.userPatch.Username)
	assert.Equal(t, "Journal", *gw.userPatch.DefaultNoteName)
	assert.Equal(t, "alicew", a.currentUser().Username)
	assert.Contains(t, out.String(), "Profile saved: Alice (@alicew)")
}

func TestStatusAndSync(t *testing.T) {
	gw := &fakeGateway{pending: 2}
	a, out := newTestApp(gw, "")
	syncer := &fakeSyncer{report: reconcile.Report{
		Done: 1, Failed: 1,
		Outcomes: []reconcile.Outcome{
			{Action: models.ActionDelete, Target: "n1", State: models.EntryDone},
			{Action: models.ActionUpdate, Target: "n2", State: models.EntryFailed, Err: &client.RemoteError{StatusCode: 404, Message: "Note not found"}},
		},
	}}
	a.syncer = syncer
	ctx := context.Background()

	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "Server: http://notes.test (offline)")
	assert.Contains(t, out.String(), "Pending changes: 2")
	assert.Contains(t, out.String(), "Cache: notex.db")

	require.NoError(t, a.Sync(ctx))
	assert.Zero(t, syncer.calls)
	assert.Contains(t, out.String(), "Offline, 2 change(s) waiting")

	a.poller = fakePoller{online: true}
	require.NoError(t, a.Sync(ctx))
	assert.Equal(t, 1, syncer.calls)
	assert.Contains(t, out.String(), "Synced 1 change(s), 1 dropped")
	assert.Contains(t, out.String(), "update n2: Note not found")
}

type fakeStore struct{ path string }

func (f fakeStore) Path() string { return f.path }

func (fakeStore) Close() error { return nil }

func TestStatus_ReportsCacheFallbackToMemory(t *testing.T) {
	a, out := newTestApp(&fakeGateway{}, "")
	a.store = fakeStore{path: cache.MemoryPath}

	require.NoError(t, a.Status(context.Background()))

	assert.Contains(t, out.String(), "Cache: in memory, changes are lost on exit")
	assert.NotContains(t, out.String(), "notex.db")
}

func TestSetMode_PrintsOnChangeOnly(t *testing.T) {
	a, out := newTestApp(&fakeGateway{}, "")

	a.onTransition(context.Background(), true)
	a.onTransition(context.Background(), true)
	a.onTransition(context.Background(), false)

	assert.Equal(t, "Switched to online mode\nSwitched to offline mode\n", out.String())
	assert.Equal(t, "(offline)", a.getStatus())
}
