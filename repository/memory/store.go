// Package memory is an in-process backend with the same transactional
// contract as the Postgres stores. It serves local runs without a database
// and the service tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository"
)

var errTxDone = errors.New("transaction has already been committed or rolled back")

type bookingKey struct {
	userID  string
	eventID string
}

// Store holds all tables. Transactions are serialised by a one-slot
// semaphore and hold the write lock until they end, so a transaction never
// observes another one's uncommitted writes and readers never observe any.
type Store struct {
	mu  sync.RWMutex
	sem chan struct{}

	events       map[string]model.Event
	bookings     map[string]model.Booking
	bookingIndex map[bookingKey]string
	users        map[string]model.User
	usersByEmail map[string]string

	now func() time.Time
}

var (
	_ repository.TxManager = (*Store)(nil)
	_ repository.Pinger    = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		sem:          make(chan struct{}, 1),
		events:       make(map[string]model.Event),
		bookings:     make(map[string]model.Booking),
		bookingIndex: make(map[bookingKey]string),
		users:        make(map[string]model.User),
		usersByEmail: make(map[string]string),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Begin waits for the running transaction, if any, to finish. The wait is
// abandoned when ctx is done.
func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to begin transaction: %w", ctx.Err())
	}
	s.mu.Lock()
	return &Tx{store: s, ctx: ctx}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Tx records an undo action per mutation and replays them in reverse on
// rollback. A transaction whose context ended before Commit is rolled back.
type Tx struct {
	store *Store
	ctx   context.Context
	undo  []func()
	done  bool
}

func (t *Tx) Commit() error {
	if t.done {
		return errTxDone
	}
	if err := t.ctx.Err(); err != nil {
		t.rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.finish()
	return nil
}

func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.rollback()
	return nil
}

func (t *Tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.finish()
}

func (t *Tx) finish() {
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	<-t.store.sem
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (s *Store) unwrapTx(ctx context.Context, tx repository.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil || t.store != s {
		return nil, repository.ErrTxMismatch
	}
	if t.done {
		return nil, errTxDone
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
