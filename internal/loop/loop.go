// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package loop provides a cooperative single-threaded run loop with idle callbacks.
package loop

import (
	"context"
)

// An idle callback. Returns true to be called again on the next iteration
type Func func() bool

type source struct {
	owner   interface{}
	fn      Func
	removed bool
}

// A cooperative run loop. Idle sources and events all execute on the goroutine
// calling Iterate or Run, so they never run concurrently with each other.
// Post and Invoke may be called from any goroutine
type Loop struct {
	events chan func()
	idle   []*source
}

// Creates a loop with the given event queue capacity
func New(queue int) *Loop {
	return &Loop{events: make(chan func(), queue)}
}

// Adds an idle callback, identified by owner for later removal. Loop goroutine only
func (l *Loop) AddIdle(owner interface{}, fn Func) {
	l.idle = append(l.idle, &source{owner: owner, fn: fn})
}

// Removes all idle callbacks of the given owner and returns their number. Loop goroutine only
func (l *Loop) RemoveByOwner(owner interface{}) int {
	n := 0
	kept := l.idle[:0]
	for _, s := range l.idle {
		if s.owner == owner {
			s.removed = true
			n++
		} else {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(l.idle); i++ {
		l.idle[i] = nil
	}
	l.idle = kept
	return n
}

// Number of idle callbacks of the given owner. Loop goroutine only
func (l *Loop) IdleCount(owner interface{}) int {
	n := 0
	for _, s := range l.idle {
		if s.owner == owner {
			n++
		}
	}
	return n
}

// Reports whether events or idle callbacks are pending
func (l *Loop) Pending() bool {
	return len(l.events) > 0 || len(l.idle) > 0
}

// Queues fn for execution on the loop goroutine
func (l *Loop) Post(fn func()) {
	l.events <- fn
}

// Queues fn for execution on the loop goroutine and waits for it to complete
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case l.events <- func() { fn(); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Runs one iteration: all queued events first, then one pass over the idle
// callbacks in the order they were added. Returns false if there was nothing to do
func (l *Loop) Iterate() bool {
	worked := false
	for drained := false; !drained; {
		select {
		case fn := <-l.events:
			fn()
			worked = true
		default:
			drained = true
		}
	}
	if len(l.idle) == 0 {
		return worked
	}
	pass := append([]*source(nil), l.idle...)
	for _, s := range pass {
		if s.removed {
			continue
		}
		if !s.fn() && !s.removed {
			l.remove(s)
		}
	}
	return true
}

func (l *Loop) remove(s *source) {
	for i, t := range l.idle {
		if t == s {
			s.removed = true
			l.idle = append(l.idle[:i], l.idle[i+1:]...)
			return
		}
	}
}

// Iterates until no events or idle callbacks remain. Returns the number of iterations
func (l *Loop) RunPending() int {
	n := 0
	for l.Iterate() {
		n++
	}
	return n
}

// Runs the loop until the context is cancelled. Blocks waiting for events while
// no idle callbacks are registered
func (l *Loop) Run(ctx context.Context) error {
	for {
		if len(l.idle) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case fn := <-l.events:
				fn()
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Iterate()
	}
}
