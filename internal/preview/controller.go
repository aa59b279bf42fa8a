// Package preview keeps a node's preview in step with its selected remote asset.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/async"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/editor"
	"github.com/olduvai-jp/ComfyUI-S3-IO/internal/notify"
)

// State of the most recent preview request
type State int

const (
	StateIdle State = iota
	StateFetching
	StateApplied
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateApplied:
		return "applied"
	case StateDiscarded:
		return "discarded"
	default:
		return "idle"
	}
}

// Stats counts preview requests by outcome
type Stats struct {
	Issued    uint64
	Applied   uint64
	Discarded uint64
}

// Controller fetches previews for one node. Every request takes a new
// generation; a response is applied only while its generation is still the
// latest, so the last selection always wins regardless of arrival order. Once
// attached to a combo, a response is also dropped when its name is no longer
// the combo's selection.
type Controller struct {
	ctx      context.Context
	route    string
	fetcher  Fetcher
	node     *editor.Node
	notifier notify.Notifier

	mu         sync.Mutex
	combo      *editor.ComboWidget
	generation uint64
	state      State
	stats      Stats

	tasks async.Group
}

// NewController creates a controller fetching from route for node
func NewController(ctx context.Context, route string, fetcher Fetcher, node *editor.Node, notifier notify.Notifier) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	if notifier == nil {
		notifier = notify.NewToaster(nil)
	}
	return &Controller{
		ctx:      ctx,
		route:    route,
		fetcher:  fetcher,
		node:     node,
		notifier: notifier,
	}
}

// Attach hooks the controller onto combo's callback chain and requests a
// preview for the current value.
func (c *Controller) Attach(combo *editor.ComboWidget) {
	c.mu.Lock()
	c.combo = combo
	c.mu.Unlock()

	combo.Callbacks.Append(func(sel editor.Selection) editor.Selection {
		c.Request(sel)
		return sel
	})
	c.Request(combo.Value())
}

// Request starts a fetch for the first selected value and returns its
// generation. An empty selection or a missing route is a no-op.
func (c *Controller) Request(sel editor.Selection) (uint64, bool) {
	name := sel.First()
	if name == "" || c.route == "" || c.fetcher == nil {
		return 0, false
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = StateFetching
	c.stats.Issued++
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{"node": c.node.ID, "generation": gen}).Debugf("Fetching preview for %s", name)

	c.tasks.Go("preview", func() {
		entry, err := c.fetcher.FetchPreview(c.ctx, c.route, name)
		c.complete(gen, name, entry, err)
	})
	return gen, true
}

func (c *Controller) complete(gen uint64, name string, entry *editor.OutputEntry, err error) {
	log := logrus.WithFields(logrus.Fields{"node": c.node.ID, "generation": gen})

	c.mu.Lock()
	if gen != c.generation {
		c.stats.Discarded++
		c.mu.Unlock()
		log.Debugf("Discarded stale preview for %s", name)
		return
	}
	if c.combo != nil && c.combo.Value().First() != name {
		c.state = StateDiscarded
		c.stats.Discarded++
		c.mu.Unlock()
		log.Debugf("Discarded preview for %s, no longer selected", name)
		return
	}
	c.state = StateApplied
	c.stats.Applied++

	usable := err == nil && entry != nil && entry.Filename != ""
	if usable {
		c.node.SetOutput(editor.Output{
			Images:   []editor.OutputEntry{*entry},
			Animated: []bool{false},
		})
	}
	c.mu.Unlock()

	if usable {
		c.node.RequestRedraw()
		return
	}

	var statusErr *StatusError
	switch {
	case err == nil:
		log.Debugf("Preview for %s has no filename", name)
	case errors.As(err, &statusErr):
		log.Debugf("No preview for %s: %v", name, err)
	default:
		log.Warnf("Preview fetch failed: %v", err)
		c.notifier.Notify("Preview failed", fmt.Sprintf("%s: %v", name, err), notify.SeverityWarn)
	}
}

// Generation returns the latest issued generation
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// State returns the state of the most recent request
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns request counters
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Wait blocks until all in-flight fetches have completed
func (c *Controller) Wait() {
	c.tasks.Wait()
}
