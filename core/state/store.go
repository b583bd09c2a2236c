/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package state

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("state: store closed")

// Listener is called with the state produced by a dispatch.
type Listener func(State)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store owns a grid's State. Transitions go through a single writer lock
// so concurrent dispatches are applied one at a time, in lock order.
type Store struct {
	id  uuid.UUID
	log *zap.Logger

	mu        sync.Mutex
	state     State
	closed    bool
	listeners map[int]Listener
	nextID    int
}

// NewStore returns a store holding initial.
func NewStore(initial State, opts ...StoreOption) *Store {
	s := &Store{
		id:        uuid.New(),
		log:       zap.NewNop(),
		state:     initial,
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("grid", s.id.String()))
	return s
}

// ID identifies this store instance in logs.
func (s *Store) ID() uuid.UUID { return s.id }

// Snapshot returns the current state. The returned State must not be
// modified.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies actions in order as one transition. Listeners are called
// once with the resulting state, after the lock is released.
func (s *Store) Dispatch(actions ...Action) error {
	return s.Update(func(State) []Action { return actions })
}

// Update computes actions from the current state and applies them under
// the same lock, so read-modify-write helpers never act on a stale state.
func (s *Store) Update(fn func(State) []Action) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	actions := fn(s.state)
	if len(actions) == 0 {
		s.mu.Unlock()
		return nil
	}
	next := s.state
	for _, a := range actions {
		next = Reduce(next, a)
		s.log.Debug("dispatch", zap.String("action", a.Kind()))
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return nil
}

// Subscribe registers l for every later transition and returns a function
// that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Close releases the state and all listeners. Later dispatches return
// ErrClosed. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.state = State{}
	s.listeners = nil
	s.log.Debug("store closed")
	return nil
}
