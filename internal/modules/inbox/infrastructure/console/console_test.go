package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/saransh1220/notify-relay/internal/modules/inbox/domain"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView(t *testing.T) {
	var buf bytes.Buffer
	v := NewView(logging.NewWithWriter(&buf, "debug", "json"))

	v.Present(domain.Notification{ID: "n1", Type: "invitation", SenderName: "Mina"})
	v.Remove("n1", domain.DismissSwipe)

	out := buf.String()
	assert.Contains(t, out, `"notification_id":"n1"`)
	assert.Contains(t, out, `"sender":"Mina"`)
	assert.Contains(t, out, `"reason":"swipe"`)
}

func TestNavigator(t *testing.T) {
	var buf bytes.Buffer
	n := NewNavigator(logging.NewWithWriter(&buf, "info", "json"))

	require.NoError(t, n.Navigate(context.Background(), domain.Destination{Kind: domain.DestinationPartnerProfile, PartnerID: "u1"}))
	assert.Contains(t, buf.String(), `"to":"partner:u1"`)
}
