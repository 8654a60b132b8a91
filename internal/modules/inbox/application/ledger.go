package application

import (
	"sync"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
)

// Ledger applies every change that touches both the cache and the unread
// counter under one lock, so the badge never reflects an entry the list does
// not (or the reverse). Cache reloads merge under the same lock.
type Ledger struct {
	mu      sync.Mutex
	cache   *Cache
	counter *UnreadCounter
}

func NewLedger(cache *Cache, counter *UnreadCounter) *Ledger {
	l := &Ledger{cache: cache, counter: counter}
	cache.mu.Lock()
	cache.guard = &l.mu
	cache.mu.Unlock()
	return l
}

func (l *Ledger) Cache() *Cache { return l.cache }

func (l *Ledger) Counter() *UnreadCounter { return l.counter }

// Insert caches n if its id is new and counts it when unread.
func (l *Ledger) Insert(n domain.Notification) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.cache.UpsertIfAbsent(n) {
		return false
	}
	if !n.IsRead {
		l.counter.Increment()
	}
	return true
}

// ApplyRemoteRead reconciles a server side read flag change. The cached flag
// decides the transition when the entry is cached, so an UPDATE echoing an
// optimistic change is a no-op. Otherwise the old row from the event decides.
func (l *Ledger) ApplyRemoteRead(id string, oldRead *bool, newRead bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	wasRead, found := l.cache.SetRead(id, newRead)
	if !found {
		if oldRead == nil {
			return
		}
		wasRead = *oldRead
	}
	switch {
	case !wasRead && newRead:
		l.counter.Decrement()
	case wasRead && !newRead:
		l.counter.Increment()
	}
}

// MarkRead flips a cached unread entry to read. The returned undo restores it;
// it is nil when nothing changed. The id stays pinned until Settle.
func (l *Ledger) MarkRead(id string) (undo func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cache.Pin(id)
	wasRead, found := l.cache.SetRead(id, true)
	if !found || wasRead {
		return nil
	}
	l.counter.Decrement()
	return func() { l.restoreUnread([]string{id}, nil) }
}

// MarkAllRead marks everything read and zeroes the counter, which also
// covers unread entries the cache does not hold. Undo restores the counter
// verbatim. The changed ids stay pinned until Settle.
func (l *Ledger) MarkAllRead() (ids []string, undo func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	before := l.counter.Value()
	ids = l.cache.MarkAllRead()
	l.cache.Pin(ids...)
	l.counter.Set(0)
	return ids, func() { l.restoreUnread(ids, &before) }
}

// MarkRoomRead marks the cached unread messages of roomID read. The changed
// ids stay pinned until Settle.
func (l *Ledger) MarkRoomRead(roomID string) (ids []string, undo func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids = l.cache.MarkRoomRead(roomID)
	l.cache.Pin(ids...)
	for range ids {
		l.counter.Decrement()
	}
	return ids, func() { l.restoreUnread(ids, nil) }
}

// Settle releases the pins of an optimistic read once the server has answered.
func (l *Ledger) Settle(ids ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Unpin(ids...)
}

// Patch updates display fields of a cached entry.
func (l *Ledger) Patch(id string, fn func(*domain.Notification)) bool {
	return l.cache.Patch(id, fn)
}

// Sync replaces the counter with the server's unread count.
func (l *Ledger) Sync(unread int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counter.Set(unread)
}

func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Reset()
	l.counter.Reset()
}

// restoreUnread flips ids back to unread. With counter nil each entry that is
// still read and cached adds one; otherwise the counter is set to *counter.
func (l *Ledger) restoreUnread(ids []string, counter *int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	restored := 0
	for _, id := range ids {
		if wasRead, found := l.cache.SetRead(id, false); found && wasRead {
			restored++
		}
	}
	if counter != nil {
		l.counter.Set(*counter)
		return
	}
	for i := 0; i < restored; i++ {
		l.counter.Increment()
	}
}
