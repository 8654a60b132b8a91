package domain

import (
	"net/url"

	notif "github.com/saransh1220/notify-relay/internal/modules/notification/domain"
)

// DestinationKind tells the navigator what sort of screen to open.
type DestinationKind string

const (
	DestinationNone           DestinationKind = ""
	DestinationPath           DestinationKind = "path"
	DestinationPartnerProfile DestinationKind = "partner_profile"
)

// Destination is where tapping a notification leads.
type Destination struct {
	Kind      DestinationKind
	Path      string
	Query     url.Values
	PartnerID string
}

// String renders a path destination as a relative URL.
func (d Destination) String() string {
	switch d.Kind {
	case DestinationPath:
		if len(d.Query) == 0 {
			return d.Path
		}
		return d.Path + "?" + d.Query.Encode()
	case DestinationPartnerProfile:
		return "partner:" + d.PartnerID
	default:
		return ""
	}
}

func path(p string, kv ...string) Destination {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q.Set(kv[i], kv[i+1])
		}
	}
	return Destination{Kind: DestinationPath, Path: p, Query: q}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Route resolves the destination for a notification from its type, related id
// and metadata. Types without a screen return DestinationNone.
func Route(n Notification) Destination {
	base := Common{}
	if n.Metadata != nil {
		base = n.Metadata.Base()
	}

	switch n.Type {
	case notif.TypeFollow, notif.TypeLike:
		if n.RelatedID == "" {
			return Destination{}
		}
		return Destination{Kind: DestinationPartnerProfile, PartnerID: n.RelatedID}

	case notif.TypeInvitation:
		var id string
		if m, ok := n.Metadata.(InvitationMeta); ok {
			id = m.InvitationID
		}
		return path("/manage", "tab", "invitations", "invitationId", first(id, n.RelatedID))

	case notif.TypeQuestion, notif.TypeAnswer:
		var id string
		if m, ok := n.Metadata.(QuestionMeta); ok {
			id = m.InvitationID
		}
		return path("/manage", "tab", "invitations", "mode", first(base.Mode, "received"), "invitationId", first(id, n.RelatedID))

	case notif.TypeMessage:
		var metaRoom string
		if m, ok := n.Metadata.(MessageMeta); ok {
			metaRoom = m.RoomID
		}
		room := first(n.ActivityID, n.RelatedID, metaRoom)
		if room == "" {
			return Destination{}
		}
		return Destination{Kind: DestinationPath, Path: "/messages/" + url.PathEscape(room)}

	case notif.TypeApplication:
		var id string
		if m, ok := n.Metadata.(ApplicationMeta); ok {
			id = m.ApplicationID
		}
		return path("/manage", "tab", "invitations", "mode", first(base.Mode, "received"), "applicationId", first(id, n.RelatedID))

	case notif.TypeTalkRequest, notif.TypeTalkRequestRejected:
		var id string
		if m, ok := n.Metadata.(TalkRequestMeta); ok {
			id = m.TalkRequestID
		}
		mode := "received"
		if n.Type == notif.TypeTalkRequestRejected {
			mode = "sent"
		}
		return path("/manage", "tab", "invitations", "mode", mode, "talkRequestId", first(id, n.RelatedID))

	case notif.TypeTalkRequestAccepted:
		if m, ok := n.Metadata.(TalkRequestMeta); ok && m.ChatRoomID != "" {
			return Destination{Kind: DestinationPath, Path: "/messages/" + url.PathEscape(m.ChatRoomID)}
		}
		return path("/manage", "tab", "invitations")

	case notif.TypeMemberLeft, notif.TypeMemberRemoved:
		var relatedType, projectID, collabID string
		if m, ok := n.Metadata.(MembershipMeta); ok {
			relatedType, projectID, collabID = m.RelatedType, m.ProjectID, m.CollaborationID
		}
		relatedType = first(relatedType, n.ActivityType)
		entity := first(n.RelatedID, projectID, collabID)
		switch {
		case relatedType == "project" && entity != "":
			return path("/explore/project/"+url.PathEscape(entity), "tab", "team")
		case relatedType == "collaboration" && entity != "":
			return path("/explore/collaboration/"+url.PathEscape(entity), "tab", "members")
		}
		return path("/manage")

	case notif.TypePartnershipInquiry:
		return path("/manage", "tab", "projects", "subTab", "partnership")

	default:
		return Destination{}
	}
}
