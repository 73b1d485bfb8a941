package appstate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
)

// Mutation changes a state in place and reports whether anything changed.
type Mutation func(state *State) (bool, error)

// Manager owns the load and save lifecycle of session state. Updates to the same
// session are applied one at a time within this process.
type Manager struct {
	store Store
	logg  *logger.Logger
	now   func() time.Time
	locks *keyedMutex
}

// NewManager builds a state manager over store.
func NewManager(store Store, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state store is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{
		store: store,
		logg:  logg,
		now:   time.Now,
		locks: newKeyedMutex(),
	}, nil
}

// Load returns the stored state or a fresh one when the session is new.
func (m *Manager) Load(ctx context.Context, sessionID string) (*State, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	state, err := m.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return New(sessionID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session state")
	}
	state.SessionID = sessionID
	return state, nil
}

// Update loads the session, applies fn and saves the result when fn reports a change.
// A state left blank is deleted instead of saved.
// An error from fn aborts the update without saving.
func (m *Manager) Update(ctx context.Context, sessionID string, fn Mutation) (*State, error) {
	sessionID = strings.TrimSpace(sessionID)
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	state, err := m.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	changed, err := fn(state)
	if err != nil {
		return nil, err
	}
	if !changed {
		return state, nil
	}

	state.UpdatedAt = m.now().UTC()
	if state.IsBlank() {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete session state")
		}
		return state, nil
	}
	if err := m.store.Save(ctx, state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save session state")
	}
	m.logg.Debug(ctx, "session state saved")
	return state, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns its release func. Entries are dropped
// once no goroutine holds or waits on them.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &refMutex{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
