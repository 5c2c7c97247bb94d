package handlers

import (
	"log"
	"sync"
	"time"

	"github.com/zhaobenny/babylog/internal/aggregator"
)

// PublishFunc sends a user's report somewhere, typically an MQTT broker
type PublishFunc func(username string, report aggregator.Report) error

// PublishDebouncer delays publishing so a burst of syncs from one user
// results in a single publish of the newest report
type PublishDebouncer struct {
	publish PublishFunc
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*pendingPublish
}

type pendingPublish struct {
	generation int
	report     aggregator.Report
}

// NewPublishDebouncer creates a debouncer with the specified delay
func NewPublishDebouncer(publish PublishFunc, delay time.Duration) *PublishDebouncer {
	return &PublishDebouncer{
		publish: publish,
		delay:   delay,
		pending: make(map[string]*pendingPublish),
	}
}

// Schedule queues a publish for a user, resetting the timer if one is already pending
func (d *PublishDebouncer) Schedule(username string, report aggregator.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, exists := d.pending[username]
	if !exists {
		p = &pendingPublish{}
		d.pending[username] = p
	}
	// Bumping the generation invalidates the older timer
	p.generation++
	p.report = report
	gen := p.generation
	time.AfterFunc(d.delay, func() {
		d.flush(username, gen)
	})
}

// Pending returns the number of users with a queued publish
func (d *PublishDebouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *PublishDebouncer) flush(username string, generation int) {
	d.mu.Lock()
	p, exists := d.pending[username]
	if !exists || p.generation != generation {
		d.mu.Unlock()
		return
	}
	delete(d.pending, username)
	d.mu.Unlock()

	if err := d.publish(username, p.report); err != nil {
		log.Printf("[publish] %s: %v", username, err)
	}
}
