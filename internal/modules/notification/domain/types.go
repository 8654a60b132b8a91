package domain

// Type is the closed set of notification kinds stored in user_notifications.type
type Type string

const (
	TypeInvitation          Type = "invitation"
	TypeMessage             Type = "message"
	TypeDeadline            Type = "deadline"
	TypeApplication         Type = "application"
	TypeStatusChange        Type = "status_change"
	TypeWithdrawal          Type = "withdrawal"
	TypeFollow              Type = "follow"
	TypeLike                Type = "like"
	TypeQuestion            Type = "question"
	TypeAnswer              Type = "answer"
	TypePartnershipInquiry  Type = "partnership_inquiry"
	TypeTalkRequest         Type = "talk_request"
	TypeTalkRequestAccepted Type = "talk_request_accepted"
	TypeTalkRequestRejected Type = "talk_request_rejected"
	TypeMemberLeft          Type = "member_left"
	TypeMemberRemoved       Type = "member_removed"
	TypeProjectUpdate       Type = "project_update"
	TypeProjectComplete     Type = "project_complete"
	TypeMention             Type = "mention"
	TypeGroupMessage        Type = "group_message"
	TypeSecurity            Type = "security"
	TypeMarketing           Type = "marketing"
)

// AllTypes lists every Type in declaration order.
var AllTypes = []Type{
	TypeInvitation, TypeMessage, TypeDeadline, TypeApplication, TypeStatusChange,
	TypeWithdrawal, TypeFollow, TypeLike, TypeQuestion, TypeAnswer,
	TypePartnershipInquiry, TypeTalkRequest, TypeTalkRequestAccepted, TypeTalkRequestRejected,
	TypeMemberLeft, TypeMemberRemoved, TypeProjectUpdate, TypeProjectComplete,
	TypeMention, TypeGroupMessage, TypeSecurity, TypeMarketing,
}

// legacyTypes are older wire values that carry their action in the type name.
var legacyTypes = map[string]struct {
	Type   Type
	Action string
}{
	"invitation_accepted":  {TypeInvitation, "accepted"},
	"invitation_rejected":  {TypeInvitation, "rejected"},
	"application_accepted": {TypeApplication, "accepted"},
	"application_rejected": {TypeApplication, "rejected"},
}

func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType resolves a wire value to a Type. Legacy values return the action they encode.
// Unknown values are returned as-is with ok=false.
func ParseType(s string) (t Type, action string, ok bool) {
	if legacy, found := legacyTypes[s]; found {
		return legacy.Type, legacy.Action, true
	}
	t = Type(s)
	return t, "", t.Valid()
}
