// Package notify is the portal's transient message area.
//
// Each visitor has one message slot. Showing a message replaces whatever is
// there and arms a fixed auto-hide timer; messages are never queued. A timer
// only clears the message it was armed for, so a second message shown
// quickly after the first still gets its full display time.
package notify

import (
	"sync"
	"time"
)

// AutoHide is how long a message stays visible.
const AutoHide = 5 * time.Second

// Severity picks the style of a message.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
)

// Notice is one visible message.
type Notice struct {
	Severity Severity
	Text     string
	ShownAt  time.Time
}

// HideAfter is the time left before the notice auto-hides, measured from now.
func (n Notice) HideAfter(now time.Time) time.Duration {
	left := n.ShownAt.Add(AutoHide).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// timerFunc matches time.AfterFunc; tests substitute a manual clock.
type timerFunc func(d time.Duration, f func()) stopper

type stopper interface {
	Stop() bool
}

type slot struct {
	notice Notice
	gen    uint64
	timer  stopper
}

// Board holds the message slot of every visitor.
type Board struct {
	mu      sync.Mutex
	slots   map[string]*slot
	gen     uint64
	ttl     time.Duration
	now     func() time.Time
	afterFn timerFunc
}

// NewBoard creates a Board with the standard 5 second auto-hide.
func NewBoard() *Board {
	return newBoard(AutoHide, time.Now, func(d time.Duration, f func()) stopper {
		return time.AfterFunc(d, f)
	})
}

func newBoard(ttl time.Duration, now func() time.Time, after timerFunc) *Board {
	return &Board{
		slots:   make(map[string]*slot),
		ttl:     ttl,
		now:     now,
		afterFn: after,
	}
}

// Show replaces the visitor's current message and arms the auto-hide timer.
func (b *Board) Show(visitorID string, sev Severity, text string) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.gen++
	gen := b.gen
	n := Notice{Severity: sev, Text: text, ShownAt: b.now()}

	if old, ok := b.slots[visitorID]; ok && old.timer != nil {
		old.timer.Stop()
	}
	s := &slot{notice: n, gen: gen}
	s.timer = b.afterFn(b.ttl, func() { b.hide(visitorID, gen) })
	b.slots[visitorID] = s

	return n
}

// Current returns the visitor's visible message, if any.
func (b *Board) Current(visitorID string) (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[visitorID]
	if !ok {
		return Notice{}, false
	}
	return s.notice, true
}

// Dismiss hides the visitor's message now.
func (b *Board) Dismiss(visitorID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.slots[visitorID]; ok {
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(b.slots, visitorID)
	}
}

// Len is the number of visitors with a visible message.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}

// hide clears the slot only if it still holds the message armed as gen.
func (b *Board) hide(visitorID string, gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.slots[visitorID]; ok && s.gen == gen {
		delete(b.slots, visitorID)
	}
}
