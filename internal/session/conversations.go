package session

import (
	"sort"
	"sync"
	"time"
)

// Tracker records which Yuanbao conversations the server has talked to.
type Tracker struct {
	mu     sync.RWMutex
	convs  map[string]*Conversation
	maxAge time.Duration
	now    func() time.Time
}

// Conversation is the tracked state of one Yuanbao conversation.
type Conversation struct {
	ID           string
	Model        string
	CreatedAt    time.Time
	LastActivity time.Time
	MessageCount int
}

// NewTracker constructs a tracker; entries idle longer than maxAge are
// dropped by Cleanup. A zero maxAge keeps everything.
func NewTracker(maxAge time.Duration) *Tracker {
	return &Tracker{
		convs:  make(map[string]*Conversation),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Save stores or updates a conversation after a chat turn.
func (t *Tracker) Save(id, model string) Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	c, ok := t.convs[id]
	if !ok {
		c = &Conversation{ID: id, CreatedAt: now}
		t.convs[id] = c
	}
	c.Model = model
	c.LastActivity = now
	c.MessageCount++
	return *c
}

// Get returns a conversation by id.
func (t *Tracker) Get(id string) (Conversation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.convs[id]
	if !ok {
		return Conversation{}, false
	}
	return *c, true
}

// Len is the number of tracked conversations.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.convs)
}

// Cleanup removes expired conversations and returns count.
func (t *Tracker) Cleanup() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxAge <= 0 {
		return 0
	}
	now := t.now()
	removed := 0
	for id, c := range t.convs {
		if now.Sub(c.LastActivity) > t.maxAge {
			delete(t.convs, id)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot ordered by most recent activity.
func (t *Tracker) Stats() []Conversation {
	t.mu.RLock()
	out := make([]Conversation, 0, len(t.convs))
	for _, c := range t.convs {
		out = append(out, *c)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out
}
