package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/stretchr/testify/mock"
)

var errBoom = errors.New("boom")

// fakeClock fires timers only when Advance moves past their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	seq     int
	at      time.Time
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) domain.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, seq: c.seq, at: c.now.Add(d), delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, running due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

// Pending lists the delays of timers that have not fired or been stopped.
func (c *fakeClock) Pending() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.delay)
		}
	}
	return out
}

// fakeChannel is a channel whose frames are pushed by the test.
type fakeChannel struct {
	frames    chan domain.Frame
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{frames: make(chan domain.Frame, 16)}
}

func (c *fakeChannel) Frames() <-chan domain.Frame { return c.frames }

func (c *fakeChannel) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.frames)
	})
	return nil
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeChannel) send(f domain.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.frames <- f
	}
}

func (c *fakeChannel) status(s domain.ChannelStatus) {
	c.send(domain.Frame{Status: s})
}

func (c *fakeChannel) insert(rec notif.Record) {
	c.send(domain.Frame{Event: &notif.ChangeEvent{Event: notif.EventInsert, New: &rec}})
}

// fakeTransport hands out channels in order and records every Open.
type fakeTransport struct {
	mu       sync.Mutex
	opened   []*fakeChannel
	openErrs []error
}

func (t *fakeTransport) Open(ctx context.Context, userID string) (domain.Channel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.openErrs) > 0 {
		err := t.openErrs[0]
		t.openErrs = t.openErrs[1:]
		if err != nil {
			t.opened = append(t.opened, nil)
			return nil, err
		}
	}
	ch := newFakeChannel()
	t.opened = append(t.opened, ch)
	return ch, nil
}

func (t *fakeTransport) opens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.opened)
}

func (t *fakeTransport) last() *fakeChannel {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opened[len(t.opened)-1]
}

// recordingListener collects delivered events.
type recordingListener struct {
	mu      sync.Mutex
	inserts []string
	updates []string
}

func (l *recordingListener) OnInsert(_ context.Context, rec notif.Record) {
	l.mu.Lock()
	l.inserts = append(l.inserts, rec.ID)
	l.mu.Unlock()
}

func (l *recordingListener) OnUpdate(_ context.Context, rec notif.Record, _ *notif.Record) {
	l.mu.Lock()
	l.updates = append(l.updates, rec.ID)
	l.mu.Unlock()
}

func (l *recordingListener) insertIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.inserts...)
}

// apiMock is a NotificationAPI with overridable behaviour.
type apiMock struct {
	mu          sync.Mutex
	listFn      func(notif.Filter) ([]notif.Record, error)
	unreadCount int
	unreadErr   error
	markErr     func(id string) error
	markAllErr  error
	markRoomErr error
	markCalls   []string
	release     chan struct{}
}

func (a *apiMock) List(_ context.Context, f notif.Filter) ([]notif.Record, error) {
	if a.listFn == nil {
		return nil, nil
	}
	return a.listFn(f)
}

func (a *apiMock) UnreadCount(context.Context) (int, error) {
	return a.unreadCount, a.unreadErr
}

func (a *apiMock) MarkAsRead(_ context.Context, id string) error {
	a.mu.Lock()
	a.markCalls = append(a.markCalls, id)
	release := a.release
	a.mu.Unlock()
	if release != nil {
		<-release
	}
	if a.markErr != nil {
		return a.markErr(id)
	}
	return nil
}

func (a *apiMock) MarkAllAsRead(context.Context, string) error { return a.markAllErr }

func (a *apiMock) MarkRoomMessagesAsRead(context.Context, string, string) (int, error) {
	if a.markRoomErr != nil {
		return 0, a.markRoomErr
	}
	return 1, nil
}

func (a *apiMock) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.markCalls...)
}

type profilesMock struct {
	mu       sync.Mutex
	displays map[string]notif.ProfileDisplay
	err      error
	calls    int
}

func (p *profilesMock) Display(_ context.Context, userID string) (notif.ProfileDisplay, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return notif.ProfileDisplay{}, p.err
	}
	d, ok := p.displays[userID]
	if !ok {
		return notif.ProfileDisplay{}, notif.ErrProfileNotFound
	}
	return d, nil
}

type viewEvent struct {
	op     string
	id     string
	reason domain.DismissReason
}

type recordingView struct {
	mu     sync.Mutex
	events []viewEvent
}

func (v *recordingView) Present(n domain.Notification) {
	v.mu.Lock()
	v.events = append(v.events, viewEvent{op: "present", id: n.ID})
	v.mu.Unlock()
}

func (v *recordingView) Remove(id string, reason domain.DismissReason) {
	v.mu.Lock()
	v.events = append(v.events, viewEvent{op: "remove", id: id, reason: reason})
	v.mu.Unlock()
}

func (v *recordingView) presented() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var ids []string
	for _, e := range v.events {
		if e.op == "present" {
			ids = append(ids, e.id)
		}
	}
	return ids
}

func (v *recordingView) lastRemoval() viewEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := len(v.events) - 1; i >= 0; i-- {
		if v.events[i].op == "remove" {
			return v.events[i]
		}
	}
	return viewEvent{}
}

type actionsMock struct {
	mock.Mock
}

func (m *actionsMock) AcceptInvitation(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *actionsMock) RejectInvitation(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *actionsMock) ReplyToMessage(ctx context.Context, roomID, text string) error {
	args := m.Called(ctx, roomID, text)
	return args.Error(0)
}

type navigatorMock struct {
	mock.Mock
}

func (m *navigatorMock) Navigate(ctx context.Context, d domain.Destination) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func unread(id string, typ domain.Type) domain.Notification {
	return domain.Notification{ID: id, Type: typ, SenderName: domain.DefaultSenderName}
}

func record(id, typ string) notif.Record {
	return notif.Record{ID: id, Type: typ, Title: "t", Content: "c", ReceiverID: "me", CreatedAt: time.Unix(0, 0)}
}
