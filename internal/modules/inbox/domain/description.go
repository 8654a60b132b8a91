package domain

import (
	"fmt"
	"regexp"
	"strings"

	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

var mentionPattern = regexp.MustCompile(`@\[([^\]]+)\]\([^)]+\)`)

// systemMessageMarkers identify chat system lines (joins, leaves, role changes)
// that are shown without a sender prefix.
var systemMessageMarkers = []string{"입장했어요", "퇴장했어요", "내보냈어요", "초대했어요", "권한을"}

const conversationStarted = "대화가 시작되었어요."

// FlattenMentions rewrites @[name](id) mentions to @name.
func FlattenMentions(s string) string {
	return mentionPattern.ReplaceAllString(s, "@$1")
}

func isSystemMessage(s string) bool {
	if s == conversationStarted {
		return true
	}
	for _, marker := range systemMessageMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// BuildDescription renders the display line for a notification once the
// sender's name is known. messageContent is only read for message types.
func BuildDescription(t Type, action, senderName, targetTitle string, md Metadata, messageContent string) string {
	name := senderName
	if name == "" {
		name = DefaultSenderName
	}

	switch t {
	case notif.TypeInvitation:
		switch action {
		case "accepted":
			return fmt.Sprintf("%s님이 \"%s\" 초대를 수락했어요.", name, targetTitle)
		case "rejected":
			return fmt.Sprintf("%s님이 \"%s\" 초대를 거절했어요.", name, targetTitle)
		}
		return fmt.Sprintf("%s님이 \"%s\"에 초대했어요.", name, orDefault(targetTitle, "프로젝트"))

	case notif.TypeApplication:
		switch action {
		case "accepted":
			return fmt.Sprintf("%s님이 \"%s\" 지원을 수락했어요.", name, targetTitle)
		case "rejected":
			return fmt.Sprintf("%s님이 \"%s\" 지원을 거절했어요.", name, targetTitle)
		}
		fallback := "프로젝트"
		if am, ok := md.(ApplicationMeta); ok && am.CollaborationTitle != "" {
			fallback = "협업"
		}
		return fmt.Sprintf("%s님이 \"%s\"에 지원했어요.", name, orDefault(targetTitle, fallback))

	case notif.TypeTalkRequest:
		return name + "님이 대화를 요청했어요."
	case notif.TypeTalkRequestAccepted:
		return name + "님이 대화 요청을 수락했어요."
	case notif.TypeTalkRequestRejected:
		return name + "님이 대화 요청을 거절했어요."
	case notif.TypeQuestion:
		return name + "님이 질문을 남겼어요."
	case notif.TypeAnswer:
		return name + "님이 답변을 남겼어요."

	case notif.TypeMessage:
		text := FlattenMentions(messageContent)
		if isSystemMessage(text) {
			return text
		}
		return name + ": " + text

	default:
		return name + "님의 알림"
	}
}

// TargetTitle picks the entity title a description refers to.
func TargetTitle(md Metadata) string {
	if am, ok := md.(ApplicationMeta); ok {
		if am.CollaborationTitle != "" {
			return am.CollaborationTitle
		}
		if am.ProjectTitle != "" {
			return am.ProjectTitle
		}
	}
	if md == nil {
		return ""
	}
	return md.Base().TargetTitle
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
