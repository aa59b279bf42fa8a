// Package async runs detached tasks whose panics are recovered and logged.
package async

import (
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Recover logs panic details without crashing the process.
func Recover(name string) {
	if r := recover(); r != nil {
		logrus.WithField("task", name).Errorf("goroutine panic: %v, stack: %s", r, debug.Stack())
	}
}

// Group tracks detached tasks so callers that care (tests, one-shot CLI runs)
// can wait for them. The zero value is ready to use.
type Group struct {
	wg sync.WaitGroup
}

// Go starts fn as a tracked detached task.
func (g *Group) Go(name string, fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer Recover(name)
		fn()
	}()
}

// Wait blocks until every task started so far has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}
