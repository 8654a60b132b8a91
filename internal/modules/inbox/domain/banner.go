package domain

// Phase is the banner presentation state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseShowing
	PhaseDismissing
)

func (p Phase) String() string {
	switch p {
	case PhaseShowing:
		return "showing"
	case PhaseDismissing:
		return "dismissing"
	default:
		return "idle"
	}
}

// DismissReason says why a banner left the screen.
type DismissReason string

const (
	DismissTimeout DismissReason = "timeout"
	DismissSwipe   DismissReason = "swipe"
	DismissClosed  DismissReason = "closed"
	DismissAction  DismissReason = "action"
	DismissOpened  DismissReason = "opened"
	DismissReset   DismissReason = "reset"
)

// Interaction is a kind of user engagement that holds the auto-dismiss timer.
type Interaction string

const (
	InteractionHover  Interaction = "hover"
	InteractionFocus  Interaction = "focus"
	InteractionDrag   Interaction = "drag"
	InteractionTyping Interaction = "typing"
	InteractionAction Interaction = "action"
)

// BannerView renders banners. Calls are made while the controller holds its
// lock, so implementations must not call back into the controller.
type BannerView interface {
	Present(n Notification)
	Remove(id string, reason DismissReason)
}
