// Package reconcile replays mutations queued while offline once the remote
// service is reachable again.
//
// A drain is best effort and at-most-once: each queued entry is submitted at
// most one time, failures are logged and dropped, and the queue is cleared
// afterwards. Entries left "submitted" by an interrupted drain are never
// resubmitted.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/client"
	"github.com/dmitrijs2005/notex/internal/client/models"
	"github.com/dmitrijs2005/notex/internal/logging"
)

var (
	// ErrInterrupted marks entries a previous drain submitted but never
	// finished.
	ErrInterrupted = errors.New("entry was interrupted in an earlier drain")
)

// Store is the part of the local cache the engine needs.
type Store interface {
	GetUser(ctx context.Context) *models.User
	SaveNote(ctx context.Context, n models.Note) error
	RemoveNote(ctx context.Context, id string) error
	ForgetLocal(ctx context.Context, id string) error

	DrainQueue(ctx context.Context) []models.SyncQueueEntry
	MarkEntry(ctx context.Context, seq int64, state models.EntryState) error
	ClearQueue(ctx context.Context, throughSeq int64) error
}

// Refresher reloads the remote note list into the cache.
type Refresher interface {
	ListNotes(ctx context.Context, authorID string) ([]models.Note, error)
}

// Outcome is the result of one queue entry.
type Outcome struct {
	Seq    int64
	Action models.SyncAction
	// Target is the note id the request was sent for, after placeholder ids
	// were rewritten.
	Target string
	State  models.EntryState
	Err    error
}

type Report struct {
	Done     int
	Failed   int
	Outcomes []Outcome
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.State == models.EntryDone {
		r.Done++
	} else {
		r.Failed++
	}
}

type Engine struct {
	mu        sync.Mutex
	store     Store
	remote    client.Client
	refresher Refresher
	log       logging.Logger
	timeout   time.Duration
}

func NewEngine(store Store, remote client.Client, refresher Refresher, log logging.Logger, timeout time.Duration) *Engine {
	return &Engine{
		store:     store,
		remote:    remote,
		refresher: refresher,
		log:       log.With("component", "reconcile"),
		timeout:   timeout,
	}
}

// HandleTransition drains the queue when the service comes back online.
func (e *Engine) HandleTransition(ctx context.Context, online bool) {
	if !online {
		return
	}
	e.Drain(ctx)
}

// pass maps placeholder ids created during one drain to their remote ids.
type pass struct {
	resolved map[string]string
}

// target rewrites id through the placeholder map. A placeholder whose create
// did not succeed is sent unchanged and left for the remote to reject.
func (p *pass) target(id string) string {
	if remoteID, ok := p.resolved[id]; ok {
		return remoteID
	}
	return id
}

// Drain replays the current queue snapshot in order and then refreshes the
// note list. It ignores cancellation of ctx and is serialized with other
// drains.
func (e *Engine) Drain(ctx context.Context) Report {
	ctx = context.WithoutCancel(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	var report Report
	entries := e.store.DrainQueue(ctx)
	p := &pass{resolved: make(map[string]string)}

	for _, entry := range entries {
		switch entry.State {
		case models.EntryPending:
			report.add(e.replay(ctx, p, entry))
		case models.EntrySubmitted:
			e.mark(ctx, entry.Seq, models.EntryFailed)
			report.add(Outcome{Seq: entry.Seq, Action: entry.Action, State: models.EntryFailed, Err: ErrInterrupted})
		}
	}

	if len(entries) > 0 {
		last := entries[len(entries)-1].Seq
		if err := e.store.ClearQueue(ctx, last); err != nil {
			e.log.Warn(ctx, "failed to clear sync queue", "through_seq", last, "error", err)
		}
		e.log.Info(ctx, "sync queue drained", "done", report.Done, "failed", report.Failed)
	}

	if u := e.store.GetUser(ctx); u != nil {
		if _, err := e.refresher.ListNotes(ctx, u.Id); err != nil {
			e.log.Warn(ctx, "note refresh after drain failed", "error", err)
		}
	}
	return report
}

func (e *Engine) mark(ctx context.Context, seq int64, state models.EntryState) {
	if err := e.store.MarkEntry(ctx, seq, state); err != nil {
		e.log.Warn(ctx, "failed to record entry state", "seq", seq, "state", state, "error", err)
	}
}

func (e *Engine) replay(ctx context.Context, p *pass, entry models.SyncQueueEntry) Outcome {
	out := Outcome{Seq: entry.Seq, Action: entry.Action}

	fail := func(err error) Outcome {
		out.State, out.Err = models.EntryFailed, err
		e.log.Warn(ctx, "queued change dropped",
			"seq", entry.Seq, "action", entry.Action, "target", out.Target, "error", err)
		return out
	}

	id, err := entry.TargetID()
	if err != nil {
		e.mark(ctx, entry.Seq, models.EntryFailed)
		return fail(fmt.Errorf("decode payload: %w", err))
	}
	out.Target = id
	if entry.Action != models.ActionCreate {
		out.Target = p.target(id)
	}

	e.mark(ctx, entry.Seq, models.EntrySubmitted)

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	err = e.submit(rctx, ctx, p, entry, out.Target)
	cancel()

	if err != nil {
		e.mark(ctx, entry.Seq, models.EntryFailed)
		return fail(err)
	}

	e.mark(ctx, entry.Seq, models.EntryDone)
	out.State = models.EntryDone
	e.log.Debug(ctx, "queued change applied", "seq", entry.Seq, "action", entry.Action, "target", out.Target)
	return out
}

// submit sends one entry. rctx bounds the remote call, ctx the cache writes.
func (e *Engine) submit(rctx, ctx context.Context, p *pass, entry models.SyncQueueEntry, target string) error {
	switch entry.Action {
	case models.ActionCreate:
		var n models.Note
		if err := json.Unmarshal(entry.Payload, &n); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		created, err := e.remote.CreateNote(rctx, n.Draft())
		if err != nil {
			return err
		}
		if n.Id != "" && n.Id != created.Id {
			p.resolved[n.Id] = created.Id
			if err := e.store.ForgetLocal(ctx, n.Id); err != nil {
				e.log.Warn(ctx, "failed to drop placeholder", "id", n.Id, "error", err)
			}
		}
		if err := e.store.SaveNote(ctx, *created); err != nil {
			e.log.Warn(ctx, "failed to cache created note", "id", created.Id, "error", err)
		}
		return nil

	case models.ActionUpdate:
		var u models.UpdatePayload
		if err := json.Unmarshal(entry.Payload, &u); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		updated, err := e.remote.UpdateNote(rctx, target, u.Data)
		if err != nil {
			return err
		}
		if err := e.store.SaveNote(ctx, *updated); err != nil {
			e.log.Warn(ctx, "failed to cache updated note", "id", target, "error", err)
		}
		return nil

	case models.ActionDelete:
		if err := e.remote.DeleteNote(rctx, target); err != nil {
			return err
		}
		if err := e.store.RemoveNote(ctx, target); err != nil {
			e.log.Warn(ctx, "failed to drop deleted note", "id", target, "error", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown action %q", entry.Action)
	}
}
