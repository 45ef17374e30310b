// Package looper runs posted tasks one at a time, in post order, on a single
// dedicated goroutine.
package looper

import (
	"errors"
	"sync"
)

// ErrQuit is returned by operations on a looper that has been asked to quit.
var ErrQuit = errors.New("looper: quit")

// Looper is a serial background worker. Post never blocks the caller.
type Looper struct {
	name string

	mu       sync.Mutex
	tasks    []func()
	quitting bool
	wake     chan struct{}
	done     chan struct{}
}

// New starts a looper goroutine.
func New(name string) *Looper {
	l := &Looper{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.loop()
	return l
}

// Name returns the name given to New.
func (l *Looper) Name() string {
	return l.name
}

// Post queues fn. It returns false once QuitSafely has been called.
func (l *Looper) Post(fn func()) bool {
	l.mu.Lock()
	if l.quitting {
		l.mu.Unlock()
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Flush waits until every task posted before the call has run.
// It must not be called from the looper goroutine.
func (l *Looper) Flush() error {
	ran := make(chan struct{})
	if !l.Post(func() { close(ran) }) {
		return ErrQuit
	}
	<-ran
	return nil
}

// QuitSafely stops accepting tasks, runs the ones already queued and waits
// for the goroutine to exit. Safe to call more than once.
func (l *Looper) QuitSafely() {
	l.mu.Lock()
	already := l.quitting
	l.quitting = true
	l.mu.Unlock()

	if !already {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	<-l.done
}

// Done is closed once the looper goroutine has exited.
func (l *Looper) Done() <-chan struct{} {
	return l.done
}

func (l *Looper) loop() {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.tasks
		l.tasks = nil
		quitting := l.quitting
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
		if len(batch) > 0 {
			continue
		}
		if quitting {
			return
		}
		<-l.wake
	}
}
