package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/dmitrijs2005/notex/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notex/internal/client/repositories/notes"
	"github.com/dmitrijs2005/notex/internal/client/repositories/syncqueue"
	"github.com/dmitrijs2005/notex/internal/dbx"
	"github.com/dmitrijs2005/notex/internal/logging"
	"github.com/google/uuid"
)

var (
	// ErrPersistence wraps every failed cache write.
	ErrPersistence = errors.New("local cache persistence failure")

	// ErrInvalidTransition is returned by MarkEntry for a state change the
	// queue does not allow.
	ErrInvalidTransition = errors.New("invalid sync queue state transition")
)

const userKey = "user"

type Cache struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	log  logging.Logger
}

func newCache(db *sql.DB, path string, log logging.Logger) *Cache {
	return &Cache{db: db, path: path, log: log}
}

// Path is the file backing the cache, or MemoryPath.
func (c *Cache) Path() string { return c.path }

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Cache) persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func (c *Cache) readFailed(ctx context.Context, op string, err error) {
	c.log.Warn(ctx, "persistence failure", "op", op, "error", err)
}

var errClosed = errors.New("store is not open")

// write runs fn in a transaction with repositories bound to it.
func (c *Cache) write(ctx context.Context, op string, fn func(ctx context.Context, r repos) error) error {
	if c.db == nil {
		return c.persistErr(op, errClosed)
	}
	err := dbx.WithTx(ctx, c.db, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, bind(tx))
	})
	if err != nil {
		return c.persistErr(op, err)
	}
	return nil
}

type repos struct {
	meta  metadata.Repository
	notes notes.Repository
	queue syncqueue.Repository
}

func bind(db dbx.DBTX) repos {
	return repos{
		meta:  metadata.NewSQLiteRepository(db),
		notes: notes.NewSQLiteRepository(db),
		queue: syncqueue.NewSQLiteRepository(db),
	}
}

func (c *Cache) read() (repos, bool) {
	if c.db == nil {
		return repos{}, false
	}
	return bind(c.db), true
}

// GetUser returns the cached user or nil.
func (c *Cache) GetUser(ctx context.Context) *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.read()
	if !ok {
		return nil
	}
	raw, err := r.meta.Get(ctx, userKey)
	if err != nil {
		c.readFailed(ctx, "get user", err)
		return nil
	}
	if raw == nil {
		return nil
	}

	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		c.readFailed(ctx, "decode user", err)
		return nil
	}
	return &u
}

// SetUser replaces the cached user. A nil user clears the session.
func (c *Cache) SetUser(ctx context.Context, u *models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "set user", func(ctx context.Context, r repos) error {
		if u == nil {
			return r.meta.Delete(ctx, userKey)
		}
		raw, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return r.meta.Set(ctx, userKey, raw)
	})
}

// Notes returns the merged note view.
func (c *Cache) Notes(ctx context.Context) []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.view(ctx)
}

func (c *Cache) view(ctx context.Context) []models.Note {
	r, ok := c.read()
	if !ok {
		return []models.Note{}
	}
	return c.merged(ctx, r)
}

func (c *Cache) merged(ctx context.Context, r repos) []models.Note {
	remote := c.listNotes(ctx, r, notes.OriginRemote)
	local := c.listNotes(ctx, r, notes.OriginLocal)
	tombstones, err := r.notes.Tombstones(ctx)
	if err != nil {
		c.readFailed(ctx, "list tombstones", err)
		tombstones = nil
	}
	return models.MergeView(remote, local, tombstones)
}

func (c *Cache) listNotes(ctx context.Context, r repos, origin notes.Origin) []models.Note {
	list, skipped, err := r.notes.List(ctx, origin)
	if err != nil {
		c.readFailed(ctx, "list "+string(origin)+" notes", err)
		return nil
	}
	if skipped > 0 {
		c.log.Warn(ctx, "skipped malformed note rows", "origin", origin, "count", skipped)
	}
	return list
}

// FindNote looks id up in the merged view.
func (c *Cache) FindNote(ctx context.Context, id string) *models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()

	return findIn(c.view(ctx), id)
}

func findIn(view []models.Note, id string) *models.Note {
	for _, n := range view {
		if n.Id == id {
			return &n
		}
	}
	return nil
}

// SaveNote upserts n into the local overlay.
func (c *Cache) SaveNote(ctx context.Context, n models.Note) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "save note", func(ctx context.Context, r repos) error {
		return r.notes.Upsert(ctx, notes.OriginLocal, n)
	})
}

// DeleteNote drops id from the local overlay and hides it from the view with
// a tombstone until the remote snapshot confirms the deletion.
func (c *Cache) DeleteNote(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "delete note", func(ctx context.Context, r repos) error {
		if err := r.notes.Delete(ctx, notes.OriginLocal, id); err != nil {
			return err
		}
		return r.notes.AddTombstone(ctx, id)
	})
}

// RemoveNote records a deletion the remote service already confirmed.
func (c *Cache) RemoveNote(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "remove note", func(ctx context.Context, r repos) error {
		if err := r.notes.Delete(ctx, notes.OriginLocal, id); err != nil {
			return err
		}
		if err := r.notes.Delete(ctx, notes.OriginRemote, id); err != nil {
			return err
		}
		return r.notes.DeleteTombstone(ctx, id)
	})
}

// ForgetLocal drops id from the local overlay without a tombstone.
func (c *Cache) ForgetLocal(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "forget local note", func(ctx context.Context, r repos) error {
		return r.notes.Delete(ctx, notes.OriginLocal, id)
	})
}

// SetOnlineNotes replaces the remote snapshot. Overlay entries and tombstones
// that no pending queue entry refers to are dropped, since the snapshot now
// reflects them.
func (c *Cache) SetOnlineNotes(ctx context.Context, list []models.Note) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "set online notes", func(ctx context.Context, r repos) error {
		if err := r.notes.DeleteAll(ctx, notes.OriginRemote); err != nil {
			return err
		}
		for _, n := range list {
			n.Offline = false
			if err := r.notes.Upsert(ctx, notes.OriginRemote, n); err != nil {
				return err
			}
		}

		keep, err := pendingTargets(ctx, r)
		if err != nil {
			return err
		}

		local, _, err := r.notes.List(ctx, notes.OriginLocal)
		if err != nil {
			return err
		}
		for _, n := range local {
			if _, ok := keep[n.Id]; ok {
				continue
			}
			if err := r.notes.Delete(ctx, notes.OriginLocal, n.Id); err != nil {
				return err
			}
		}

		tombstones, err := r.notes.Tombstones(ctx)
		if err != nil {
			return err
		}
		for id := range tombstones {
			if _, ok := keep[id]; ok {
				continue
			}
			if err := r.notes.DeleteTombstone(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func pendingTargets(ctx context.Context, r repos) (map[string]struct{}, error) {
	entries, err := r.queue.List(ctx)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.State != models.EntryPending {
			continue
		}
		if id, err := e.TargetID(); err == nil && id != "" {
			keep[id] = struct{}{}
		}
	}
	return keep, nil
}

// PlaceholderID returns offline-<unix seconds of now>, moving forward one
// second at a time until the id is not used by any note or tombstone.
func (c *Cache) PlaceholderID(ctx context.Context, now time.Time) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.read()
	if !ok {
		return models.PlaceholderID(now)
	}
	id, err := nextPlaceholder(ctx, r, now)
	if err != nil {
		c.readFailed(ctx, "allocate placeholder", err)
	}
	return id
}

func nextPlaceholder(ctx context.Context, r repos, now time.Time) (string, error) {
	ts := now.Truncate(time.Second)
	tombstones, err := r.notes.Tombstones(ctx)
	if err != nil {
		return models.PlaceholderID(ts), err
	}
	for {
		id := models.PlaceholderID(ts)
		used, err := r.notes.Exists(ctx, id)
		if err != nil {
			return id, err
		}
		if _, dead := tombstones[id]; !used && !dead {
			return id, nil
		}
		ts = ts.Add(time.Second)
	}
}

func newEntry(action models.SyncAction, payload any) (models.SyncQueueEntry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.SyncQueueEntry{}, fmt.Errorf("encode %s payload: %w", action, err)
	}
	return models.SyncQueueEntry{
		Id:         uuid.NewString(),
		Action:     action,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
		State:      models.EntryPending,
	}, nil
}

func appendEntry(ctx context.Context, r repos, action models.SyncAction, payload any) error {
	e, err := newEntry(action, payload)
	if err != nil {
		return err
	}
	return r.queue.Append(ctx, &e)
}

// Enqueue appends a pending entry carrying payload encoded as JSON.
func (c *Cache) Enqueue(ctx context.Context, action models.SyncAction, payload any) (models.SyncQueueEntry, error) {
	e, err := newEntry(action, payload)
	if err != nil {
		return e, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.write(ctx, "enqueue", func(ctx context.Context, r repos) error {
		return r.queue.Append(ctx, &e)
	})
	return e, err
}

// CreateOffline gives n the next free placeholder id for n.CreatedAt, stores
// it in the overlay and queues its create. Either all of it is recorded or
// nothing is.
func (c *Cache) CreateOffline(ctx context.Context, n models.Note) (models.Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n.Offline = true
	err := c.write(ctx, "create offline note", func(ctx context.Context, r repos) error {
		id, err := nextPlaceholder(ctx, r, n.CreatedAt)
		if err != nil {
			return err
		}
		n.Id = id
		if err := r.notes.Upsert(ctx, notes.OriginLocal, n); err != nil {
			return err
		}
		return appendEntry(ctx, r, models.ActionCreate, n)
	})
	if n.Id == "" {
		n.Id = models.PlaceholderID(n.CreatedAt)
	}
	return n, err
}

// UpdateOffline looks id up in the merged view, lets mutate change it, saves
// the result in the overlay and queues patch, all under one lock hold and in
// one transaction. An unknown id returns (nil, nil) and queues nothing.
func (c *Cache) UpdateOffline(ctx context.Context, id string, patch models.NotePatch, mutate func(*models.Note)) (*models.Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var updated *models.Note
	err := c.write(ctx, "update offline note", func(ctx context.Context, r repos) error {
		n := findIn(c.merged(ctx, r), id)
		if n == nil {
			return nil
		}
		mutate(n)
		n.Id = id
		if err := r.notes.Upsert(ctx, notes.OriginLocal, *n); err != nil {
			return err
		}
		if err := appendEntry(ctx, r, models.ActionUpdate, models.UpdatePayload{Id: id, Data: patch}); err != nil {
			return err
		}
		updated = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOffline hides id behind a tombstone and queues its deletion in one
// transaction.
func (c *Cache) DeleteOffline(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "delete offline note", func(ctx context.Context, r repos) error {
		if err := r.notes.Delete(ctx, notes.OriginLocal, id); err != nil {
			return err
		}
		if err := r.notes.AddTombstone(ctx, id); err != nil {
			return err
		}
		return appendEntry(ctx, r, models.ActionDelete, models.DeletePayload{Id: id})
	})
}

// DrainQueue returns a snapshot of the queue in replay order.
func (c *Cache) DrainQueue(ctx context.Context) []models.SyncQueueEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.read()
	if !ok {
		return nil
	}
	entries, err := r.queue.List(ctx)
	if err != nil {
		c.readFailed(ctx, "list sync queue", err)
		return nil
	}
	return entries
}

// MarkEntry moves the entry with the given seq to state.
func (c *Cache) MarkEntry(ctx context.Context, seq int64, state models.EntryState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "mark entry", func(ctx context.Context, r repos) error {
		cur, err := r.queue.State(ctx, seq)
		if err != nil {
			return err
		}
		if !cur.CanTransition(state) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, state)
		}
		return r.queue.SetState(ctx, seq, state)
	})
}

// ClearQueue removes entries up to and including throughSeq.
func (c *Cache) ClearQueue(ctx context.Context, throughSeq int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(ctx, "clear queue", func(ctx context.Context, r repos) error {
		_, err := r.queue.DeleteThrough(ctx, throughSeq)
		return err
	})
}

// QueueLen is the number of entries still in the queue.
func (c *Cache) QueueLen(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.read()
	if !ok {
		return 0
	}
	n, err := r.queue.Count(ctx)
	if err != nil {
		c.readFailed(ctx, "count sync queue", err)
		return 0
	}
	return n
}
