package application

import (
	"context"
	"testing"
	"time"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = time.Second

func newTestManager(t *testing.T) (*SubscriptionManager, *fakeTransport, *fakeClock, *recordingListener) {
	t.Helper()
	transport := &fakeTransport{}
	clock := newFakeClock()
	listener := &recordingListener{}
	m := NewSubscriptionManager(transport, listener, clock, nil, nil)
	t.Cleanup(func() {
		m.Close()
		m.Wait()
	})
	return m, transport, clock, listener
}

func pendingIs(clock *fakeClock, want ...time.Duration) func() bool {
	return func() bool {
		got := clock.Pending()
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}
}

func TestSubscriptionManager_SubscribedState(t *testing.T) {
	m, transport, _, _ := newTestManager(t)

	m.Open(context.Background(), "me")
	require.Equal(t, 1, transport.opens())
	assert.Equal(t, StateConnecting, m.State())

	transport.last().status(domain.StatusSubscribed)
	require.Eventually(t, func() bool { return m.State() == StateSubscribed }, waitFor, time.Millisecond)
}

func TestSubscriptionManager_BoundedRetry(t *testing.T) {
	m, transport, clock, _ := newTestManager(t)
	m.Open(context.Background(), "me")

	transport.last().status(domain.StatusChannelError)
	require.Eventually(t, pendingIs(clock, time.Second), waitFor, time.Millisecond)
	assert.Equal(t, StateRetrying, m.State())

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 1, transport.opens())
	clock.Advance(time.Millisecond)
	require.Equal(t, 2, transport.opens())

	transport.last().status(domain.StatusTimedOut)
	require.Eventually(t, pendingIs(clock, 2*time.Second), waitFor, time.Millisecond)
	clock.Advance(2 * time.Second)
	require.Equal(t, 3, transport.opens())

	transport.last().status(domain.StatusClosed)
	require.Eventually(t, func() bool { return m.State() == StateFailed }, waitFor, time.Millisecond)
	assert.Empty(t, clock.Pending())

	clock.Advance(time.Minute)
	assert.Equal(t, 3, transport.opens(), "no retries past the budget")
}

func TestSubscriptionManager_SubscribedResetsRetries(t *testing.T) {
	m, transport, clock, _ := newTestManager(t)
	m.Open(context.Background(), "me")

	transport.last().status(domain.StatusChannelError)
	require.Eventually(t, pendingIs(clock, time.Second), waitFor, time.Millisecond)
	clock.Advance(time.Second)
	require.Equal(t, 1, m.Retries())

	transport.last().status(domain.StatusSubscribed)
	require.Eventually(t, func() bool { return m.Retries() == 0 }, waitFor, time.Millisecond)

	transport.last().status(domain.StatusChannelError)
	require.Eventually(t, pendingIs(clock, time.Second), waitFor, time.Millisecond)
}

func TestSubscriptionManager_NoRetryDuringTeardown(t *testing.T) {
	m, transport, clock, _ := newTestManager(t)
	m.Open(context.Background(), "me")
	ch := transport.last()

	m.Close()
	m.Close()

	assert.True(t, ch.isClosed())
	assert.Equal(t, StateClosed, m.State())
	clock.Advance(time.Minute)
	assert.Empty(t, clock.Pending())
	assert.Equal(t, 1, transport.opens())
}

func TestSubscriptionManager_CloseCancelsPendingRetry(t *testing.T) {
	m, transport, clock, _ := newTestManager(t)
	m.Open(context.Background(), "me")

	transport.last().status(domain.StatusChannelError)
	require.Eventually(t, pendingIs(clock, time.Second), waitFor, time.Millisecond)

	m.Close()
	assert.Empty(t, clock.Pending())
	assert.Equal(t, 0, m.Retries())

	clock.Advance(10 * time.Second)
	assert.Equal(t, 1, transport.opens())
}

func TestSubscriptionManager_ReopenClosesPreviousChannel(t *testing.T) {
	m, transport, clock, _ := newTestManager(t)
	m.Open(context.Background(), "me")
	first := transport.last()

	m.Open(context.Background(), "me")
	require.Equal(t, 2, transport.opens())
	assert.True(t, first.isClosed())
	assert.False(t, transport.last().isClosed())

	// the old channel's close must not schedule a retry
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, clock.Pending())
}

func TestSubscriptionManager_OpenErrorRetries(t *testing.T) {
	transport := &fakeTransport{openErrs: []error{errBoom}}
	clock := newFakeClock()
	m := NewSubscriptionManager(transport, &recordingListener{}, clock, nil, nil)
	defer m.Close()

	m.Open(context.Background(), "me")
	require.True(t, pendingIs(clock, time.Second)())

	clock.Advance(time.Second)
	assert.Equal(t, 2, transport.opens())
	assert.Equal(t, StateConnecting, m.State())
}

func TestSubscriptionManager_UnexpectedEndOfFrames(t *testing.T) {
	m, transport, clock, _ := newTestManager(t)
	m.Open(context.Background(), "me")

	// closing the channel from the transport side looks like an abnormal close
	require.NoError(t, transport.last().Close())
	require.Eventually(t, pendingIs(clock, time.Second), waitFor, time.Millisecond)
	assert.Equal(t, StateRetrying, m.State())
}

func TestSubscriptionManager_DeliversInOrder(t *testing.T) {
	m, transport, _, listener := newTestManager(t)
	m.Open(context.Background(), "me")

	ch := transport.last()
	ch.insert(record("a", "invitation"))
	ch.insert(record("b", "message"))
	ch.insert(record("c", "follow"))

	require.Eventually(t, func() bool { return len(listener.insertIDs()) == 3 }, waitFor, time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, listener.insertIDs())
}

func TestSubscriptionState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "closed", StateClosed.String())
}
