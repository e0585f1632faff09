package service

import (
	"context"
	"log/slog"
	"time"

	"task-app/task"
)

// ActorStore is a concurrency-safe implementation of Store, using the
// actor pattern (a single goroutine owns the state and serializes writes).
// It allows many concurrent readers without locking the file and guarantees
// that writes are applied one-at-a-time.
//
// Zero shared mutable state is exposed; callers interact via messages.
type ActorStore struct {
	path string

	cmds chan any
	quit chan struct{}
}

// NewActorStore spins up the actor and loads the initial snapshot from disk.
// Use Close() to stop the background goroutine.
func NewActorStore(path string) *ActorStore {
	s := &ActorStore{
		path: path,
		cmds: make(chan any),
		quit: make(chan struct{}),
	}
	go s.loop()
	return s
}

// internal message types
type (
	getReq struct {
		ctx   context.Context
		reply chan []task.Task
	}

	setReq struct {
		ctx   context.Context
		list  []task.Task
		reply chan error
	}

	updateReq struct {
		ctx    context.Context
		mutate func([]task.Task) ([]task.Task, error)
		reply  chan error
	}

	ensureReq struct {
		ctx   context.Context
		reply chan error
	}

	stopReq struct {
		done chan struct{}
	}
)

func (s *ActorStore) loop() {
	// private, goroutine-owned state
	var snapshot []task.Task
	// load once at startup; treat missing file as empty list
	{
		ctx := context.Background()
		list, err := task.Load(ctx, s.path)
		if err != nil {
			slog.Warn("actor: initial load failed; starting empty", "error", err, "path", s.path)
			list = []task.Task{}
		}
		snapshot = cloneList(list)
	}

	for {
		select {
		case msg := <-s.cmds:
			switch m := msg.(type) {
			case getReq:
				// return a copy to avoid races with callers
				m.reply <- cloneList(snapshot)

			case setReq:
				// replace in-memory snapshot then persist to disk
				snapshot = cloneList(m.list)
				err := task.Save(m.ctx, snapshot, s.path)
				m.reply <- err

			case updateReq:
				// the loop owns the snapshot, so the whole
				// read-modify-write runs without interleaving
				next, err := m.mutate(cloneList(snapshot))
				if err != nil {
					m.reply <- err
					break
				}
				snapshot = cloneList(next)
				m.reply <- task.Save(m.ctx, snapshot, s.path)

			case ensureReq:
				m.reply <- task.EnsureStorage(m.ctx, s.path)

			case stopReq:
				close(m.done)
				return
			}
		case <-s.quit:
			return
		}
	}
}

func cloneList(in []task.Task) []task.Task {
	out := make([]task.Task, len(in))
	copy(out, in)
	return out
}

// Ensure initializes the storage file through the actor.
func (s *ActorStore) Ensure(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- ensureReq{ctx: ctx, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load returns a stable snapshot of the current list.
// Many callers can invoke Load concurrently without contention.
func (s *ActorStore) Load(ctx context.Context) ([]task.Task, error) {
	reply := make(chan []task.Task, 1)
	select {
	case s.cmds <- getReq{ctx: ctx, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case list := <-reply:
		return list, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Save sends a write to the actor and waits for it to complete.
// Writes are serialized; the actor also updates its in-memory snapshot.
func (s *ActorStore) Save(ctx context.Context, list []task.Task) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- setReq{ctx: ctx, list: cloneList(list), reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Update applies a mutation inside the actor loop, so no other read or
// write can interleave with the read-modify-write cycle.
func (s *ActorStore) Update(ctx context.Context, mutate func([]task.Task) ([]task.Task, error)) error {
	reply := make(chan error, 1)
	select {
	case s.cmds <- updateReq{ctx: ctx, mutate: mutate, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the actor gracefully.
func (s *ActorStore) Close() {
	done := make(chan struct{})
	select {
	case s.cmds <- stopReq{done: done}:
	case <-time.After(100 * time.Millisecond):
		// actor might be unresponsive; fall back to best-effort quit
	}
	select {
	case <-done:
	case <-time.After(150 * time.Millisecond):
	}
	close(s.quit)
}
