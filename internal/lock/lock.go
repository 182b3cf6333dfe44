// Package lock serializes work per key. The interaction engine takes one lock
// per session so board turns and scene pointers are applied exactly once per
// request, even when a player double-submits.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBusy is returned when the lock could not be taken before ctx ended.
var ErrBusy = errors.New("lock: key is busy")

// Locker hands out exclusive locks by key. The returned unlock must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Local is an in-process Locker. Entries are reference counted and dropped
// when the last holder or waiter leaves.
type Local struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

// NewLocal returns an empty in-process locker.
func NewLocal() *Local {
	return &Local{entries: make(map[string]*entry)}
}

func (l *Local) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Lock blocks until key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquire(key)
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %v", ErrBusy, ctx.Err())
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.release(key, e)
		})
	}, nil
}

// Len reports how many keys are held or awaited.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
