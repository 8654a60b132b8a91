package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// DefaultReconcileDelay batches the refetch that follows successful mutations.
const DefaultReconcileDelay = 500 * time.Millisecond

// flight tracks the optimistic read of one id while calls for it are pending.
// The row is rolled back only if none of the overlapping calls succeeded.
type flight struct {
	pending int
	ok      bool
	undo    func()
}

// MutationGateway applies read mutations to the ledger before the server
// confirms them and restores the prior state when the server refuses.
type MutationGateway struct {
	api      domain.NotificationAPI
	ledger   *Ledger
	clock    domain.Clock
	delay    time.Duration
	logger   *slog.Logger
	inFlight sync.WaitGroup

	mu        sync.Mutex
	flights   map[string]*flight
	timer     domain.Timer
	timerGen  uint64
	reconcile sync.WaitGroup
	closed    bool
}

func NewMutationGateway(api domain.NotificationAPI, ledger *Ledger, clock domain.Clock, delay time.Duration, logger *slog.Logger) *MutationGateway {
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &MutationGateway{
		api:     api,
		ledger:  ledger,
		clock:   clock,
		delay:   delay,
		logger:  logging.OrDefault(logger).With("component", "mutation_gateway"),
		flights: make(map[string]*flight),
	}
}

// MarkAsRead marks id read locally, then on the server.
func (g *MutationGateway) MarkAsRead(ctx context.Context, id string) error {
	f := g.begin(id)
	err := g.api.MarkAsRead(ctx, id)
	g.finish(ctx, id, f, err)
	if err != nil {
		return fmt.Errorf("mark %s read: %w", id, err)
	}
	return nil
}

// MarkAsReadAsync applies the optimistic update now and confirms it in the
// background. Failures are logged and rolled back.
func (g *MutationGateway) MarkAsReadAsync(ctx context.Context, id string) {
	f := g.begin(id)
	ctx = context.WithoutCancel(ctx)
	g.inFlight.Add(1)
	go func() {
		defer g.inFlight.Done()
		g.finish(ctx, id, f, g.api.MarkAsRead(ctx, id))
	}()
}

func (g *MutationGateway) MarkAllAsRead(ctx context.Context, userID string) error {
	ids, undo := g.ledger.MarkAllRead()
	defer g.ledger.Settle(ids...)
	if err := g.api.MarkAllAsRead(ctx, userID); err != nil {
		undo()
		rollbacksTotal.WithLabelValues("mark_all").Inc()
		g.logger.Warn("mark all read failed, rolled back", "user_id", userID, "error", err)
		return fmt.Errorf("mark all read: %w", err)
	}
	g.scheduleReconcile(ctx)
	return nil
}

// MarkRoomMessagesAsRead returns the number of rows the server updated.
func (g *MutationGateway) MarkRoomMessagesAsRead(ctx context.Context, userID, roomID string) (int, error) {
	ids, undo := g.ledger.MarkRoomRead(roomID)
	defer g.ledger.Settle(ids...)
	updated, err := g.api.MarkRoomMessagesAsRead(ctx, userID, roomID)
	if err != nil {
		undo()
		rollbacksTotal.WithLabelValues("mark_room").Inc()
		g.logger.Warn("mark room read failed, rolled back", "user_id", userID, "room_id", roomID, "error", err)
		return 0, fmt.Errorf("mark room %s read: %w", roomID, err)
	}
	g.scheduleReconcile(ctx)
	return updated, nil
}

// Wait blocks until background confirmations and any pending refetch finish.
func (g *MutationGateway) Wait() {
	g.inFlight.Wait()
	g.reconcile.Wait()
}

// Close cancels a pending refetch and stops scheduling new ones until
// Resume. Background confirmations still complete.
func (g *MutationGateway) Close() {
	g.mu.Lock()
	g.closed = true
	g.stopTimerLocked()
	g.mu.Unlock()
}

func (g *MutationGateway) Resume() {
	g.mu.Lock()
	g.closed = false
	g.mu.Unlock()
}

func (g *MutationGateway) begin(id string) *flight {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.flights[id]
	if !ok {
		f = &flight{undo: g.ledger.MarkRead(id)}
		g.flights[id] = f
	}
	f.pending++
	return f
}

func (g *MutationGateway) finish(ctx context.Context, id string, f *flight, err error) {
	g.mu.Lock()
	f.pending--
	if err == nil {
		f.ok = true
	}
	done := f.pending == 0
	if done {
		delete(g.flights, id)
	}
	g.mu.Unlock()

	if err != nil {
		g.logger.Warn("mark read failed", "notification_id", id, "error", err)
	}
	if done && !f.ok && f.undo != nil {
		f.undo()
		rollbacksTotal.WithLabelValues("mark_read").Inc()
		g.logger.Warn("rolled back optimistic read", "notification_id", id)
	}
	if done {
		g.ledger.Settle(id)
	}
	if err == nil {
		g.scheduleReconcile(ctx)
	}
}

func (g *MutationGateway) scheduleReconcile(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.stopTimerLocked()
	g.timerGen++
	gen := g.timerGen
	g.reconcile.Add(1)
	g.timer = g.clock.AfterFunc(g.delay, func() {
		defer g.reconcile.Done()
		g.refetch(ctx, gen)
	})
}

func (g *MutationGateway) stopTimerLocked() {
	if g.timer != nil && g.timer.Stop() {
		g.reconcile.Done()
	}
	g.timer = nil
}

// refetch replaces the counter with the server count and invalidates the list.
// It backs off while optimistic reads are still unconfirmed.
func (g *MutationGateway) refetch(ctx context.Context, gen uint64) {
	g.mu.Lock()
	if gen != g.timerGen || g.closed {
		g.mu.Unlock()
		return
	}
	g.timer = nil
	busy := len(g.flights) > 0
	g.mu.Unlock()

	if busy {
		g.scheduleReconcile(ctx)
		return
	}

	count, err := g.api.UnreadCount(ctx)
	if err != nil {
		g.logger.Warn("unread count refetch failed", "error", err)
		return
	}
	g.ledger.Sync(count)
	g.ledger.Cache().Invalidate()
}
