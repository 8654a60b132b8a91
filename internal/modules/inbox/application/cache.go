package application

import (
	"context"
	"sync"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
)

// Loader fetches the authoritative notification list for the bound user.
type Loader func(ctx context.Context) ([]domain.Notification, error)

// Cache is the read-through notification list of the session user, newest first.
// Each id appears at most once. Entries are never removed by the inbox itself;
// the size bound evicts the oldest.
type Cache struct {
	mu        sync.Mutex
	clock     domain.Clock
	ttl       time.Duration
	maxItems  int
	userID    string
	loader    Loader
	items     []domain.Notification
	loadedAt  time.Time
	listeners []func()

	// guard is held while a reload is merged. A Ledger installs its own lock
	// so a merge never lands between a cache write and its counter update.
	guard sync.Locker
	// epoch changes on Bind and Reset; a load that spans one is discarded.
	epoch uint64
	// seq orders local writes. touched holds the seq of the last insert or
	// read flag change per id, pins the number of unconfirmed reads per id.
	seq     uint64
	touched map[string]uint64
	pins    map[string]int
}

func NewCache(clock domain.Clock, ttl time.Duration, maxItems int) *Cache {
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &Cache{
		clock:    clock,
		ttl:      ttl,
		maxItems: maxItems,
		touched:  make(map[string]uint64),
		pins:     make(map[string]int),
	}
}

// Bind scopes the cache to userID and drops anything cached for another user.
func (c *Cache) Bind(userID string, loader Loader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != userID {
		c.items = nil
		c.loadedAt = time.Time{}
		c.touched = make(map[string]uint64)
	}
	c.userID = userID
	c.loader = loader
	c.epoch++
}

// List serves the cached list, reloading it first when it is stale. The
// loader runs unlocked; its result is merged with writes made meanwhile.
func (c *Cache) List(ctx context.Context) ([]domain.Notification, error) {
	c.mu.Lock()
	loader := c.loader
	fresh := !c.loadedAt.IsZero() && c.clock.Now().Sub(c.loadedAt) < c.ttl
	if fresh || loader == nil {
		out := c.snapshotLocked()
		c.mu.Unlock()
		return out, nil
	}
	epoch, since := c.epoch, c.seq
	guard := c.guard
	c.mu.Unlock()

	loaded, err := loader(ctx)
	if err != nil {
		return c.Items(), err
	}

	if guard != nil {
		guard.Lock()
		defer guard.Unlock()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return c.snapshotLocked(), nil
	}
	c.mergeLocked(dedupe(loaded), since)
	c.loadedAt = c.clock.Now()
	return c.snapshotLocked(), nil
}

// mergeLocked folds a server list loaded after write since into the cache.
// Entries written locally after since and missing from the load are kept in
// front. For ids on both sides the cached copy is kept, so enriched display
// fields survive, and the server read flag wins unless the local flag is
// newer than the load or still awaiting confirmation. The unread counter is
// not touched: every entry it counted is still cached.
func (c *Cache) mergeLocked(loaded []domain.Notification, since uint64) {
	inLoad := make(map[string]struct{}, len(loaded))
	for _, n := range loaded {
		inLoad[n.ID] = struct{}{}
	}

	merged := make([]domain.Notification, 0, len(loaded)+len(c.items))
	for _, n := range c.items {
		if _, ok := inLoad[n.ID]; !ok && c.touched[n.ID] > since {
			merged = append(merged, n)
		}
	}
	for _, n := range loaded {
		if i := c.indexLocked(n.ID); i >= 0 {
			server := n.IsRead
			n = c.items[i]
			if c.touched[n.ID] <= since && c.pins[n.ID] == 0 {
				n.IsRead = server
			}
		}
		merged = append(merged, n)
	}

	c.items = merged
	c.trimLocked()
	touched := make(map[string]uint64, len(c.items))
	for _, n := range c.items {
		if s, ok := c.touched[n.ID]; ok {
			touched[n.ID] = s
		}
	}
	c.touched = touched
}

// Items returns the cached list without loading.
func (c *Cache) Items() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cache) Get(id string) (domain.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	return domain.Notification{}, false
}

// UpsertIfAbsent prepends n unless its id is already cached.
func (c *Cache) UpsertIfAbsent(n domain.Notification) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(n.ID) >= 0 {
		return false
	}
	c.items = append([]domain.Notification{n}, c.items...)
	c.trimLocked()
	c.touchLocked(n.ID)
	return true
}

// Patch applies fn to the cached entry. The id cannot be changed.
func (c *Cache) Patch(id string, fn func(*domain.Notification)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	fn(&c.items[i])
	c.items[i].ID = id
	return true
}

// SetRead sets the read flag and returns the previous one.
func (c *Cache) SetRead(id string, read bool) (prev bool, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return false, false
	}
	prev = c.items[i].IsRead
	c.items[i].IsRead = read
	c.touchLocked(id)
	return prev, true
}

// MarkAllRead marks every cached entry read and returns the ids that changed.
func (c *Cache) MarkAllRead() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var changed []string
	for i := range c.items {
		if !c.items[i].IsRead {
			c.items[i].IsRead = true
			changed = append(changed, c.items[i].ID)
			c.touchLocked(c.items[i].ID)
		}
	}
	return changed
}

// MarkRoomRead marks the unread message notifications of roomID read and returns their ids.
func (c *Cache) MarkRoomRead(roomID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var changed []string
	for i := range c.items {
		n := &c.items[i]
		if n.IsRead || n.Type != messageType || n.RoomID() != roomID {
			continue
		}
		n.IsRead = true
		changed = append(changed, n.ID)
		c.touchLocked(n.ID)
	}
	return changed
}

// Pin keeps the local read flag of ids through reloads until Unpin. Pins nest.
func (c *Cache) Pin(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.pins[id]++
	}
}

func (c *Cache) Unpin(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if c.pins[id] <= 1 {
			delete(c.pins, id)
			continue
		}
		c.pins[id]--
	}
}

// UnreadCount counts unread cached entries.
func (c *Cache) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, n := range c.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// Invalidate marks the list stale and signals list and badge consumers.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loadedAt = time.Time{}
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnInvalidate registers fn to run after every Invalidate.
func (c *Cache) OnInvalidate(fn func()) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Reset empties the cache and unbinds it at session end.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.loadedAt = time.Time{}
	c.userID = ""
	c.loader = nil
	c.touched = make(map[string]uint64)
	c.pins = make(map[string]int)
	c.epoch++
}

func (c *Cache) touchLocked(id string) {
	c.seq++
	c.touched[id] = c.seq
}

func (c *Cache) indexLocked(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) trimLocked() {
	if c.maxItems > 0 && len(c.items) > c.maxItems {
		c.items = c.items[:c.maxItems]
	}
}

func (c *Cache) snapshotLocked() []domain.Notification {
	out := make([]domain.Notification, len(c.items))
	copy(out, c.items)
	return out
}

func dedupe(in []domain.Notification) []domain.Notification {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Notification, 0, len(in))
	for _, n := range in {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}
