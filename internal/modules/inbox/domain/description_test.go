package domain

import (
	"testing"

	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildDescription(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		action  string
		sender  string
		target  string
		md      Metadata
		message string
		want    string
	}{
		{"new invitation", notif.TypeInvitation, "", "브랜드A", "프로젝트X", nil, "", `브랜드A님이 "프로젝트X"에 초대했어요.`},
		{"invitation default target", notif.TypeInvitation, "new", "브랜드A", "", nil, "", `브랜드A님이 "프로젝트"에 초대했어요.`},
		{"invitation accepted", notif.TypeInvitation, "accepted", "아티스트B", "협업Y", nil, "", `아티스트B님이 "협업Y" 초대를 수락했어요.`},
		{"invitation rejected", notif.TypeInvitation, "rejected", "아티스트B", "협업Y", nil, "", `아티스트B님이 "협업Y" 초대를 거절했어요.`},
		{"application collaboration fallback", notif.TypeApplication, "", "C", "", ApplicationMeta{CollaborationTitle: "x"}, "", `C님이 "협업"에 지원했어요.`},
		{"application project fallback", notif.TypeApplication, "", "C", "", nil, "", `C님이 "프로젝트"에 지원했어요.`},
		{"application accepted", notif.TypeApplication, "accepted", "C", "P", nil, "", `C님이 "P" 지원을 수락했어요.`},
		{"talk request", notif.TypeTalkRequest, "", "D", "", nil, "", "D님이 대화를 요청했어요."},
		{"talk accepted", notif.TypeTalkRequestAccepted, "", "D", "", nil, "", "D님이 대화 요청을 수락했어요."},
		{"talk rejected", notif.TypeTalkRequestRejected, "", "D", "", nil, "", "D님이 대화 요청을 거절했어요."},
		{"question", notif.TypeQuestion, "", "E", "", nil, "", "E님이 질문을 남겼어요."},
		{"answer", notif.TypeAnswer, "", "E", "", nil, "", "E님이 답변을 남겼어요."},
		{"message with mention", notif.TypeMessage, "", "사용자C", "", nil, "@[홍길동](user-123) 확인 부탁드립니다", "사용자C: @홍길동 확인 부탁드립니다"},
		{"system message", notif.TypeMessage, "", "F", "", nil, "민수님이 입장했어요.", "민수님이 입장했어요."},
		{"conversation started", notif.TypeMessage, "", "F", "", nil, "대화가 시작되었어요.", "대화가 시작되었어요."},
		{"empty name", notif.TypeDeadline, "", "", "", nil, "", "사용자님의 알림"},
		{"fallback", notif.TypeMarketing, "", "G", "", nil, "", "G님의 알림"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDescription(tt.typ, tt.action, tt.sender, tt.target, tt.md, tt.message)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlattenMentions(t *testing.T) {
	assert.Equal(t, "@a and @b", FlattenMentions("@[a](1) and @[b](2)"))
	assert.Equal(t, "no mentions", FlattenMentions("no mentions"))
}

func TestTargetTitle(t *testing.T) {
	assert.Equal(t, "Collab", TargetTitle(ApplicationMeta{CollaborationTitle: "Collab", ProjectTitle: "Proj"}))
	assert.Equal(t, "Proj", TargetTitle(ApplicationMeta{ProjectTitle: "Proj"}))
	assert.Equal(t, "T", TargetTitle(InvitationMeta{Common: Common{TargetTitle: "T"}}))
	assert.Equal(t, "", TargetTitle(nil))
}
