package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

const (
	DefaultBannerTimeout = 5 * time.Second
	DefaultExitAnimation = 120 * time.Millisecond
)

// BannerConfig holds the collaborators of a BannerController.
type BannerConfig struct {
	Clock         domain.Clock
	Timeout       time.Duration
	ExitAnimation time.Duration
	Suppressor    *Suppressor
	View          domain.BannerView
	Gateway       *MutationGateway
	Cache         *Cache
	Actions       domain.ActionService
	Navigator     domain.Navigator
	Logger        *slog.Logger
}

// BannerController shows queued notifications one at a time. It implements Presenter.
type BannerController struct {
	clock      domain.Clock
	timeout    time.Duration
	exitAnim   time.Duration
	suppressor *Suppressor
	view       domain.BannerView
	gateway    *MutationGateway
	cache      *Cache
	actions    domain.ActionService
	navigator  domain.Navigator
	logger     *slog.Logger

	mu           sync.Mutex
	queue        []domain.Notification
	current      *domain.Notification
	phase        domain.Phase
	lastShownID  string
	seen         map[string]struct{}
	timer        domain.Timer
	timerGen     uint64
	interactions map[domain.Interaction]struct{}
}

func NewBannerController(cfg BannerConfig) *BannerController {
	if cfg.Clock == nil {
		cfg.Clock = domain.SystemClock()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBannerTimeout
	}
	if cfg.ExitAnimation < 0 {
		cfg.ExitAnimation = 0
	}
	return &BannerController{
		clock:        cfg.Clock,
		timeout:      cfg.Timeout,
		exitAnim:     cfg.ExitAnimation,
		suppressor:   cfg.Suppressor,
		view:         cfg.View,
		gateway:      cfg.Gateway,
		cache:        cfg.Cache,
		actions:      cfg.Actions,
		navigator:    cfg.Navigator,
		logger:       logging.OrDefault(cfg.Logger).With("component", "banner"),
		seen:         make(map[string]struct{}),
		interactions: make(map[domain.Interaction]struct{}),
	}
}

// Show queues n for display, or displays it at once when nothing is showing.
// An id is presented at most once per session.
func (c *BannerController) Show(n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n.ID == c.lastShownID {
		bannerDuplicatesTotal.Inc()
		return
	}
	if _, dup := c.seen[n.ID]; dup {
		bannerDuplicatesTotal.Inc()
		return
	}
	if c.suppressor.Suppressed(n, SiteEnqueue) {
		return
	}
	c.seen[n.ID] = struct{}{}
	c.queue = append(c.queue, n)
	c.drainLocked()
}

func (c *BannerController) Current() (domain.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.Notification{}, false
	}
	return *c.current, true
}

func (c *BannerController) Phase() domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// QueueIDs lists waiting notifications in display order.
func (c *BannerController) QueueIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, len(c.queue))
	for i, n := range c.queue {
		ids[i] = n.ID
	}
	return ids
}

// InteractionStart holds the auto-dismiss timer until every interaction has ended.
func (c *BannerController) InteractionStart(kind domain.Interaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != domain.PhaseShowing {
		return
	}
	c.interactions[kind] = struct{}{}
	c.stopTimerLocked()
}

// InteractionEnd restarts the full timeout once no interaction remains.
func (c *BannerController) InteractionEnd(kind domain.Interaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.interactions[kind]; !ok {
		return
	}
	delete(c.interactions, kind)
	if c.phase == domain.PhaseShowing {
		c.armLocked()
	}
}

// Swipe ends a horizontal drag. Past either threshold the banner plays its
// exit animation and is removed; otherwise it springs back and the timer restarts.
func (c *BannerController) Swipe(offset, velocity float64) (domain.SwipeDecision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != domain.PhaseShowing {
		return domain.SwipeDecision{}, domain.ErrNoCurrentBanner
	}
	delete(c.interactions, domain.InteractionDrag)

	decision := domain.DecideSwipe(offset, velocity)
	if !decision.Dismiss {
		c.armLocked()
		return decision, nil
	}

	c.phase = domain.PhaseDismissing
	c.stopTimerLocked()
	gen, id := c.timerGen, c.current.ID
	c.timer = c.clock.AfterFunc(c.exitAnim, func() { c.finishDismiss(gen, id) })
	return decision, nil
}

// Close removes the current banner immediately.
func (c *BannerController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.ErrNoCurrentBanner
	}
	c.resolveLocked(domain.DismissClosed)
	return nil
}

// Open marks the current notification read, navigates to its destination and
// closes the banner.
func (c *BannerController) Open(ctx context.Context) (domain.Destination, error) {
	n, err := c.take(nil)
	if err != nil {
		return domain.Destination{}, err
	}

	if !n.IsRead {
		c.gateway.MarkAsReadAsync(ctx, n.ID)
	}
	c.cache.Invalidate()

	dest := domain.Route(n)
	var navErr error
	if dest.Kind != domain.DestinationNone {
		if navErr = c.navigator.Navigate(ctx, dest); navErr != nil {
			c.logger.Warn("navigation failed", "notification_id", n.ID, "destination", dest.String(), "error", navErr)
		}
	}
	c.resolveIfCurrent(n.ID, domain.DismissOpened)
	if navErr != nil {
		return dest, fmt.Errorf("navigate: %w", navErr)
	}
	return dest, nil
}

func (c *BannerController) Accept(ctx context.Context) error {
	return c.invitationAction(ctx, c.actions.AcceptInvitation)
}

func (c *BannerController) Reject(ctx context.Context) error {
	return c.invitationAction(ctx, c.actions.RejectInvitation)
}

// Reply sends text to the room of the current message notification.
func (c *BannerController) Reply(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyReply
	}
	n, err := c.take(func(n domain.Notification) bool { return n.Type == notif.TypeMessage && replyRoom(n) != "" })
	if err != nil {
		return err
	}
	return c.runAction(ctx, n, func(ctx context.Context) error {
		return c.actions.ReplyToMessage(ctx, replyRoom(n), text)
	})
}

// Reset clears every banner and forgets what was shown. Used on logout.
func (c *BannerController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	if c.current != nil {
		c.view.Remove(c.current.ID, domain.DismissReset)
	}
	c.current = nil
	c.queue = nil
	c.phase = domain.PhaseIdle
	c.lastShownID = ""
	c.seen = make(map[string]struct{})
	c.interactions = make(map[domain.Interaction]struct{})
}

func (c *BannerController) invitationAction(ctx context.Context, call func(context.Context, string) error) error {
	n, err := c.take(func(n domain.Notification) bool { return n.Type == notif.TypeInvitation && invitationID(n) != "" })
	if err != nil {
		return err
	}
	return c.runAction(ctx, n, func(ctx context.Context) error {
		return call(ctx, invitationID(n))
	})
}

// take returns the showing notification when it passes ok. Action buttons
// hold the timer while their request is pending.
func (c *BannerController) take(ok func(domain.Notification) bool) (domain.Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.phase != domain.PhaseShowing {
		return domain.Notification{}, domain.ErrNoCurrentBanner
	}
	n := *c.current
	if ok != nil {
		if !ok(n) {
			return domain.Notification{}, domain.ErrUnsupportedAction
		}
		c.interactions[domain.InteractionAction] = struct{}{}
		c.stopTimerLocked()
	}
	return n, nil
}

// runAction keeps the banner open when the action fails so the user can retry.
func (c *BannerController) runAction(ctx context.Context, n domain.Notification, action func(context.Context) error) error {
	if err := action(ctx); err != nil {
		c.logger.Warn("banner action failed", "notification_id", n.ID, "type", string(n.Type), "error", err)
		c.InteractionEnd(domain.InteractionAction)
		return err
	}
	if !n.IsRead {
		c.gateway.MarkAsReadAsync(ctx, n.ID)
	}
	c.cache.Invalidate()
	c.resolveIfCurrent(n.ID, domain.DismissAction)
	return nil
}

func (c *BannerController) resolveIfCurrent(id string, reason domain.DismissReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.ID == id {
		c.resolveLocked(reason)
	}
}

func (c *BannerController) finishDismiss(gen uint64, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen || c.phase != domain.PhaseDismissing || c.current == nil || c.current.ID != id {
		return
	}
	c.resolveLocked(domain.DismissSwipe)
}

func (c *BannerController) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen || c.phase != domain.PhaseShowing {
		return
	}
	c.resolveLocked(domain.DismissTimeout)
}

func (c *BannerController) resolveLocked(reason domain.DismissReason) {
	c.stopTimerLocked()
	c.view.Remove(c.current.ID, reason)
	bannersDismissedTotal.WithLabelValues(string(reason)).Inc()
	c.current = nil
	c.phase = domain.PhaseIdle
	c.interactions = make(map[domain.Interaction]struct{})
	c.drainLocked()
}

// drainLocked presents the next queued notification when idle. The room
// rule is checked again since the user may have opened the room meanwhile.
func (c *BannerController) drainLocked() {
	for c.phase == domain.PhaseIdle && len(c.queue) > 0 {
		n := c.queue[0]
		c.queue = c.queue[1:]
		if c.suppressor.Suppressed(n, SiteDrain) {
			continue
		}
		if cached, ok := c.cache.Get(n.ID); ok {
			n = cached
		}
		c.current = &n
		c.lastShownID = n.ID
		c.phase = domain.PhaseShowing
		c.view.Present(n)
		bannersShownTotal.Inc()
		c.armLocked()
	}
}

func (c *BannerController) armLocked() {
	c.stopTimerLocked()
	if len(c.interactions) > 0 {
		return
	}
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(c.timeout, func() { c.expire(gen) })
}

// stopTimerLocked also bumps the generation so a timer that already fired
// and is waiting on the lock becomes a no-op.
func (c *BannerController) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func invitationID(n domain.Notification) string {
	if md, ok := n.Metadata.(domain.InvitationMeta); ok && md.InvitationID != "" {
		return md.InvitationID
	}
	return n.RelatedID
}

func replyRoom(n domain.Notification) string {
	if md, ok := n.Metadata.(domain.MessageMeta); ok {
		return firstNonEmpty(n.RoomID(), md.RoomID)
	}
	return n.RoomID()
}
