package domain

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

// Common carries the keys any notification type may put in its metadata.
type Common struct {
	SenderID     string `mapstructure:"sender_id" json:"sender_id,omitempty"`
	SenderName   string `mapstructure:"sender_name" json:"sender_name,omitempty"`
	SenderAvatar string `mapstructure:"sender_avatar" json:"sender_avatar,omitempty"`
	Status       string `mapstructure:"status" json:"status,omitempty"`
	Action       string `mapstructure:"action" json:"action,omitempty"`
	TargetTitle  string `mapstructure:"target_title" json:"target_title,omitempty"`
	Mode         string `mapstructure:"mode" json:"mode,omitempty"`
	Starred      bool   `mapstructure:"is_starred" json:"is_starred,omitempty"`
}

// Metadata is the type dependent payload of a notification. The concrete
// type is chosen by DecodeMetadata from the notification type.
type Metadata interface {
	Base() Common
}

type InvitationMeta struct {
	Common         `mapstructure:",squash"`
	InvitationID   string `mapstructure:"invitation_id" json:"invitation_id,omitempty"`
	CoverImageURL  string `mapstructure:"cover_image_url" json:"cover_image_url,omitempty"`
	ReceiverName   string `mapstructure:"receiver_name" json:"receiver_name,omitempty"`
	ReceiverAvatar string `mapstructure:"receiver_avatar" json:"receiver_avatar,omitempty"`
}

type ApplicationMeta struct {
	Common             `mapstructure:",squash"`
	ApplicationID      string `mapstructure:"application_id" json:"application_id,omitempty"`
	CollaborationTitle string `mapstructure:"collaboration_title" json:"collaboration_title,omitempty"`
	ProjectTitle       string `mapstructure:"project_title" json:"project_title,omitempty"`
}

type MessageMeta struct {
	Common       `mapstructure:",squash"`
	RoomID       string `mapstructure:"room_id" json:"room_id,omitempty"`
	ChatRoomName string `mapstructure:"chat_room_name" json:"chat_room_name,omitempty"`
	RoomTitle    string `mapstructure:"room_title" json:"room_title,omitempty"`
	MentionType  string `mapstructure:"mention_type" json:"mention_type,omitempty"`
}

type TalkRequestMeta struct {
	Common         `mapstructure:",squash"`
	TalkRequestID  string `mapstructure:"talk_request_id" json:"talk_request_id,omitempty"`
	ChatRoomID     string `mapstructure:"chat_room_id" json:"chat_room_id,omitempty"`
	ReceiverName   string `mapstructure:"receiver_name" json:"receiver_name,omitempty"`
	ReceiverAvatar string `mapstructure:"receiver_avatar" json:"receiver_avatar,omitempty"`
}

// QuestionMeta covers question and answer notifications, both tied to an invitation.
type QuestionMeta struct {
	Common       `mapstructure:",squash"`
	InvitationID string `mapstructure:"invitation_id" json:"invitation_id,omitempty"`
}

type MembershipMeta struct {
	Common          `mapstructure:",squash"`
	RelatedType     string `mapstructure:"related_type" json:"related_type,omitempty"`
	ProjectID       string `mapstructure:"project_id" json:"project_id,omitempty"`
	CollaborationID string `mapstructure:"collaboration_id" json:"collaboration_id,omitempty"`
}

// GenericMeta is used for types whose metadata carries nothing type specific,
// and for types this client does not know.
type GenericMeta struct {
	Common `mapstructure:",squash"`
}

func (m InvitationMeta) Base() Common  { return m.Common }
func (m ApplicationMeta) Base() Common { return m.Common }
func (m MessageMeta) Base() Common     { return m.Common }
func (m TalkRequestMeta) Base() Common { return m.Common }
func (m QuestionMeta) Base() Common    { return m.Common }
func (m MembershipMeta) Base() Common  { return m.Common }
func (m GenericMeta) Base() Common     { return m.Common }

// DecodeMetadata decodes raw into the metadata shape of t. On a decode error
// the returned value is still usable (the zero shape) alongside the error.
func DecodeMetadata(t Type, raw map[string]interface{}) (Metadata, error) {
	switch t {
	case notif.TypeInvitation:
		var m InvitationMeta
		err := decodeInto(raw, &m)
		return m, err
	case notif.TypeApplication, notif.TypeWithdrawal:
		var m ApplicationMeta
		err := decodeInto(raw, &m)
		return m, err
	case notif.TypeMessage, notif.TypeMention, notif.TypeGroupMessage:
		var m MessageMeta
		err := decodeInto(raw, &m)
		return m, err
	case notif.TypeTalkRequest, notif.TypeTalkRequestAccepted, notif.TypeTalkRequestRejected:
		var m TalkRequestMeta
		err := decodeInto(raw, &m)
		return m, err
	case notif.TypeQuestion, notif.TypeAnswer:
		var m QuestionMeta
		err := decodeInto(raw, &m)
		return m, err
	case notif.TypeMemberLeft, notif.TypeMemberRemoved, notif.TypeProjectUpdate, notif.TypeProjectComplete:
		var m MembershipMeta
		err := decodeInto(raw, &m)
		return m, err
	case notif.TypeDeadline, notif.TypeStatusChange, notif.TypeFollow, notif.TypeLike,
		notif.TypePartnershipInquiry, notif.TypeSecurity, notif.TypeMarketing:
		var m GenericMeta
		err := decodeInto(raw, &m)
		return m, err
	default:
		var m GenericMeta
		err := decodeInto(raw, &m)
		return m, err
	}
}

func decodeInto(raw map[string]interface{}, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	return nil
}
