package reconcile_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/cache"
	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/client/remotetest"
	"github.com/dmitrijs2005/notex/internal/client/connectivity"
	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/dmitrijs2005/notex/internal/client/reconcile"
	"github.com/dmitrijs2005/notex/internal/client/services"
	"github.com/dmitrijs2005/notex/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineCreateIsReplayedWhenBackOnline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := remotetest.New(t)
	srv.AddUser("alice", "pw", "Alice")

	remote, err := client.NewHTTPClient(srv.URL, time.Second)
	require.NoError(t, err)

	store := cache.Open(ctx, filepath.Join(t.TempDir(), "notex.db"), logging.Nop())
	t.Cleanup(func() { _ = store.Close() })

	state := connectivity.NewState()
	watcher := connectivity.NewWatcher(connectivity.NewProbe(srv.URL, "/api/seed", time.Second), state, 20*time.Millisecond, logging.Nop())
	gw := services.NewGateway(state, remote, store, logging.Nop(), time.Second)
	engine := reconcile.NewEngine(store, remote, gw, logging.Nop(), time.Second)
	watcher.OnTransition(engine.HandleTransition)

	u, err := gw.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	srv.ForceStatus(http.StatusServiceUnavailable)
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.Eventually(t, func() bool { return !state.Online() }, 2*time.Second, 10*time.Millisecond)

	n, err := gw.CreateNote(ctx, "A", "", u.Id)
	require.NoError(t, err)
	assert.True(t, models.IsPlaceholderID(n.Id))
	assert.True(t, n.Offline)
	assert.Equal(t, 1, gw.PendingChanges(ctx))

	srv.ForceStatus(0)

	require.Eventually(t, func() bool {
		return gw.PendingChanges(ctx) == 0 && len(srv.Notes()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	stored := srv.Notes()[0]
	assert.Equal(t, "A", stored.Title)
	assert.Equal(t, u.Id, stored.AuthorID)
	assert.False(t, models.IsPlaceholderID(stored.Id))

	require.True(t, state.Online())
	list, err := gw.ListNotes(ctx, u.Id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, stored.Id, list[0].Id)
	assert.Nil(t, store.FindNote(ctx, n.Id))
}
