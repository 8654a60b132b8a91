package domain

import (
	"testing"

	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name string
		n    Notification
		want string
	}{
		{"invitation from metadata", Notification{Type: notif.TypeInvitation, RelatedID: "r1", Metadata: InvitationMeta{InvitationID: "inv1"}}, "/manage?invitationId=inv1&tab=invitations"},
		{"invitation from related id", Notification{Type: notif.TypeInvitation, RelatedID: "r1"}, "/manage?invitationId=r1&tab=invitations"},
		{"invitation without ids", Notification{Type: notif.TypeInvitation}, "/manage?tab=invitations"},
		{"question default mode", Notification{Type: notif.TypeQuestion, RelatedID: "i9"}, "/manage?invitationId=i9&mode=received&tab=invitations"},
		{"answer sent mode", Notification{Type: notif.TypeAnswer, Metadata: QuestionMeta{Common: Common{Mode: "sent"}, InvitationID: "i2"}}, "/manage?invitationId=i2&mode=sent&tab=invitations"},
		{"message prefers activity id", Notification{Type: notif.TypeMessage, ActivityID: "a1", RelatedID: "r1"}, "/messages/a1"},
		{"message from metadata room", Notification{Type: notif.TypeMessage, Metadata: MessageMeta{RoomID: "m1"}}, "/messages/m1"},
		{"message without room", Notification{Type: notif.TypeMessage}, ""},
		{"application", Notification{Type: notif.TypeApplication, Metadata: ApplicationMeta{ApplicationID: "app1"}}, "/manage?applicationId=app1&mode=received&tab=invitations"},
		{"talk request", Notification{Type: notif.TypeTalkRequest, RelatedID: "t1"}, "/manage?mode=received&tab=invitations&talkRequestId=t1"},
		{"talk rejected", Notification{Type: notif.TypeTalkRequestRejected, Metadata: TalkRequestMeta{TalkRequestID: "t2"}}, "/manage?mode=sent&tab=invitations&talkRequestId=t2"},
		{"talk accepted with room", Notification{Type: notif.TypeTalkRequestAccepted, Metadata: TalkRequestMeta{ChatRoomID: "c1"}}, "/messages/c1"},
		{"talk accepted without room", Notification{Type: notif.TypeTalkRequestAccepted}, "/manage?tab=invitations"},
		{"member left project", Notification{Type: notif.TypeMemberLeft, RelatedID: "p1", Metadata: MembershipMeta{RelatedType: "project"}}, "/explore/project/p1?tab=team"},
		{"member removed collaboration", Notification{Type: notif.TypeMemberRemoved, ActivityType: "collaboration", Metadata: MembershipMeta{CollaborationID: "c2"}}, "/explore/collaboration/c2?tab=members"},
		{"member left unknown", Notification{Type: notif.TypeMemberLeft}, "/manage"},
		{"partnership", Notification{Type: notif.TypePartnershipInquiry}, "/manage?subTab=partnership&tab=projects"},
		{"follow", Notification{Type: notif.TypeFollow, RelatedID: "u7"}, "partner:u7"},
		{"like without related", Notification{Type: notif.TypeLike}, ""},
		{"security has no screen", Notification{Type: notif.TypeSecurity}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.n).String())
		})
	}
}

func TestRoute_FollowIsPartnerProfile(t *testing.T) {
	d := Route(Notification{Type: notif.TypeLike, RelatedID: "u1"})
	assert.Equal(t, DestinationPartnerProfile, d.Kind)
	assert.Equal(t, "u1", d.PartnerID)
}
