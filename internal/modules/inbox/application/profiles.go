package application

import (
	"context"
	"sync"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

type profileEntry struct {
	display notif.ProfileDisplay
	expires time.Time
}

// CachedProfiles memoizes profile lookups for ttl. Errors are not cached.
type CachedProfiles struct {
	next  domain.ProfileLookup
	clock domain.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]profileEntry
}

func NewCachedProfiles(next domain.ProfileLookup, clock domain.Clock, ttl time.Duration) *CachedProfiles {
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &CachedProfiles{next: next, clock: clock, ttl: ttl, entries: make(map[string]profileEntry)}
}

func (p *CachedProfiles) Display(ctx context.Context, userID string) (notif.ProfileDisplay, error) {
	now := p.clock.Now()

	p.mu.Lock()
	if e, ok := p.entries[userID]; ok && now.Before(e.expires) {
		p.mu.Unlock()
		return e.display, nil
	}
	p.mu.Unlock()

	display, err := p.next.Display(ctx, userID)
	if err != nil {
		return notif.ProfileDisplay{}, err
	}

	p.mu.Lock()
	p.entries[userID] = profileEntry{display: display, expires: now.Add(p.ttl)}
	p.mu.Unlock()
	return display, nil
}

// Purge drops every cached profile.
func (p *CachedProfiles) Purge() {
	p.mu.Lock()
	p.entries = make(map[string]profileEntry)
	p.mu.Unlock()
}
