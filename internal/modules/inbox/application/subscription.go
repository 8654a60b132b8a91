package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// DefaultRetryDelays is the reconnect schedule. Its length is the retry budget.
var DefaultRetryDelays = []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}

// SubscriptionState is the manager's view of its channel.
type SubscriptionState int

const (
	StateIdle SubscriptionState = iota
	StateConnecting
	StateSubscribed
	StateRetrying
	StateFailed
	StateClosed
)

func (s SubscriptionState) String() string {
	return [...]string{"idle", "connecting", "subscribed", "retrying", "failed", "closed"}[s]
}

// Listener receives change events in the order the channel delivered them.
type Listener interface {
	OnInsert(ctx context.Context, rec notif.Record)
	OnUpdate(ctx context.Context, rec notif.Record, old *notif.Record)
}

// SubscriptionManager keeps at most one live channel for the session user and
// reconnects it on abnormal close with a bounded schedule.
type SubscriptionManager struct {
	transport domain.Transport
	clock     domain.Clock
	delays    []time.Duration
	listener  Listener
	logger    *slog.Logger

	mu         sync.Mutex
	ctx        context.Context
	userID     string
	channel    domain.Channel
	gen        uint64
	retries    int
	retryTimer domain.Timer
	cleaningUp bool
	state      SubscriptionState
	wg         sync.WaitGroup
}

func NewSubscriptionManager(transport domain.Transport, listener Listener, clock domain.Clock, delays []time.Duration, logger *slog.Logger) *SubscriptionManager {
	if clock == nil {
		clock = domain.SystemClock()
	}
	if delays == nil {
		delays = DefaultRetryDelays
	}
	return &SubscriptionManager{
		transport: transport,
		clock:     clock,
		delays:    delays,
		listener:  listener,
		logger:    logging.OrDefault(logger).With("component", "subscription"),
	}
}

// Open subscribes userID, closing any channel that is already open first.
// Connection failures are retried in the background and never returned.
func (m *SubscriptionManager) Open(ctx context.Context, userID string) {
	m.mu.Lock()
	old := m.teardownLocked()
	m.ctx = context.WithoutCancel(ctx)
	m.userID = userID
	m.mu.Unlock()

	m.closeChannel(old)
	m.finishTeardown()
	m.connect()
}

// Close unsubscribes and cancels any pending retry. Safe to call repeatedly.
func (m *SubscriptionManager) Close() {
	m.mu.Lock()
	old := m.teardownLocked()
	m.state = StateClosed
	m.mu.Unlock()

	m.closeChannel(old)
	m.finishTeardown()
}

// Wait blocks until every channel pump has exited. Call after Close.
func (m *SubscriptionManager) Wait() {
	m.wg.Wait()
}

func (m *SubscriptionManager) State() SubscriptionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Retries is the number of reconnects since the last successful subscribe.
func (m *SubscriptionManager) Retries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retries
}

// teardownLocked invalidates the current generation and returns the channel
// to close. The cleaning up flag stays set until finishTeardown.
func (m *SubscriptionManager) teardownLocked() domain.Channel {
	m.cleaningUp = true
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	old := m.channel
	m.channel = nil
	m.gen++
	m.retries = 0
	return old
}

func (m *SubscriptionManager) finishTeardown() {
	m.mu.Lock()
	m.cleaningUp = false
	m.mu.Unlock()
}

func (m *SubscriptionManager) closeChannel(ch domain.Channel) {
	if ch == nil {
		return
	}
	if err := ch.Close(); err != nil {
		m.logger.Warn("error closing channel", "error", err)
	}
}

func (m *SubscriptionManager) connect() {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	ctx, userID := m.ctx, m.userID
	m.state = StateConnecting
	m.mu.Unlock()

	ch, err := m.transport.Open(ctx, userID)
	if err != nil {
		m.handleStatus(gen, domain.StatusChannelError, err)
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.closeChannel(ch)
		return
	}
	m.channel = ch
	m.wg.Add(1)
	m.mu.Unlock()

	go m.pump(gen, ch)
}

func (m *SubscriptionManager) pump(gen uint64, ch domain.Channel) {
	defer m.wg.Done()

	for frame := range ch.Frames() {
		if !m.current(gen) {
			return
		}
		if frame.Event != nil {
			m.dispatch(*frame.Event)
			continue
		}
		m.handleStatus(gen, frame.Status, frame.Err)
		if frame.Status.Terminal() {
			return
		}
	}
	m.handleStatus(gen, domain.StatusClosed, nil)
}

func (m *SubscriptionManager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen
}

func (m *SubscriptionManager) dispatch(ev notif.ChangeEvent) {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()

	eventsTotal.WithLabelValues(string(ev.Event)).Inc()
	switch ev.Event {
	case notif.EventSubscribed:
		m.handleStatusCurrent(domain.StatusSubscribed)
	case notif.EventInsert:
		if ev.New != nil {
			m.listener.OnInsert(ctx, *ev.New)
		}
	case notif.EventUpdate:
		if ev.New != nil {
			m.listener.OnUpdate(ctx, *ev.New, ev.Old)
		}
	}
}

func (m *SubscriptionManager) handleStatusCurrent(status domain.ChannelStatus) {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	m.handleStatus(gen, status, nil)
}

func (m *SubscriptionManager) handleStatus(gen uint64, status domain.ChannelStatus, cause error) {
	m.mu.Lock()
	if gen != m.gen || m.cleaningUp || m.state == StateClosed {
		m.mu.Unlock()
		if status.Terminal() {
			m.logger.Debug("channel closed during teardown, skipping retry", "status", status.String())
		}
		return
	}

	switch {
	case status == domain.StatusSubscribed:
		m.retries = 0
		m.state = StateSubscribed
		userID := m.userID
		m.mu.Unlock()
		m.logger.Info("subscribed", "user_id", userID)
		return

	case status.Terminal():
		old := m.channel
		m.channel = nil
		userID := m.userID

		if m.retries >= len(m.delays) {
			m.state = StateFailed
			m.mu.Unlock()
			m.closeChannel(old)
			subscriptionFailuresTotal.Inc()
			m.logger.Error("max retries exceeded", "user_id", userID, "status", status.String(), "error", cause)
			return
		}

		delay := m.delays[m.retries]
		m.state = StateRetrying
		m.retryTimer = m.clock.AfterFunc(delay, func() { m.retry(gen) })
		attempt := m.retries + 1
		m.mu.Unlock()

		m.closeChannel(old)
		m.logger.Warn("subscription error, retrying",
			"user_id", userID,
			"status", status.String(),
			"error", cause,
			"delay", delay,
			"attempt", fmt.Sprintf("%d/%d", attempt, len(m.delays)),
		)
		return
	}
	m.mu.Unlock()
}

func (m *SubscriptionManager) retry(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.cleaningUp || m.state != StateRetrying {
		m.mu.Unlock()
		return
	}
	m.retryTimer = nil
	m.retries++
	m.mu.Unlock()

	reconnectAttemptsTotal.Inc()
	m.connect()
}
