package conversation

import (
	"bytes"
	"encoding/json"
	"strings"

	"livechat-engine/internal/domain"
)

// Event is one input to the engine: a push event, a user action or a timer
// firing. Each variant knows how to apply itself to a reducer step.
type Event interface {
	Name() string
	apply(s *step)
}

// Push events.

type LoggedIntoSite struct{}

type UserTyping struct {
	Signal domain.TypingSignal
}

type EngagementUpdated struct {
	Engagement domain.Engagement
}

type EngagementClosed struct {
	EngagementID int64
	ClosedBy     domain.Role
}

type RequestTimedOut struct {
	Message domain.Message
}

type ProfileReceived struct {
	Profile domain.Profile
}

type GreetingReceived struct {
	Text string
}

// MessageReceived is a single message from the push channel. Raw holds the
// payload as delivered; when set, only the keys it carries overwrite an
// existing message on merge.
type MessageReceived struct {
	Message domain.Message
	Raw     json.RawMessage
}

type ProfileUpdateSucceeded struct {
	Profile domain.Profile
}

type ProfileUpdateFailed struct{}

type HistoryPage struct {
	Items []domain.Message
	Meta  domain.PaginationMeta
}

// User actions.

type SetChatOpen struct {
	Open bool
}

type ToggleFullscreen struct{}

type SendMessage struct {
	Text string
	File *domain.Attachment
}

type NotifyTyping struct{}

type RequestNextPage struct{}

type CloseChat struct{}

type OpenPersonalizationForm struct{}

type ClosePersonalizationForm struct{}

type HideThankYou struct{}

type PruneOutdated struct{}

// Timer firings.

type typingExpired struct{}

type thankYouExpired struct{}

// flagsLoaded carries the flags persisted under a newly applied namespace.
type flagsLoaded struct {
	values map[string]bool
}

func (LoggedIntoSite) Name() string         { return string(domain.EventLoggedIntoSite) }
func (UserTyping) Name() string             { return string(domain.EventUserIsTyping) }
func (EngagementUpdated) Name() string      { return string(domain.EventUpdateEngagement) }
func (EngagementClosed) Name() string       { return string(domain.EventEngagementClosed) }
func (RequestTimedOut) Name() string        { return string(domain.EventCustomerRequestTimedOut) }
func (ProfileReceived) Name() string        { return string(domain.EventProfile) }
func (GreetingReceived) Name() string       { return string(domain.EventGreetingMessage) }
func (MessageReceived) Name() string        { return string(domain.EventNewMessage) }
func (ProfileUpdateSucceeded) Name() string { return string(domain.EventProfileUpdateSuccess) }
func (ProfileUpdateFailed) Name() string    { return string(domain.EventProfileUpdateFailed) }
func (HistoryPage) Name() string            { return string(domain.EventMessages) }

func (SetChatOpen) Name() string              { return "action.set_chat_open" }
func (ToggleFullscreen) Name() string         { return "action.toggle_fullscreen" }
func (SendMessage) Name() string              { return "action.send_message" }
func (NotifyTyping) Name() string             { return "action.notify_typing" }
func (RequestNextPage) Name() string          { return "action.request_next_page" }
func (CloseChat) Name() string                { return "action.close_chat" }
func (OpenPersonalizationForm) Name() string  { return "action.open_personalization_form" }
func (ClosePersonalizationForm) Name() string { return "action.close_personalization_form" }
func (HideThankYou) Name() string             { return "action.hide_thank_you" }
func (PruneOutdated) Name() string            { return "action.prune_outdated" }

func (typingExpired) Name() string   { return "timer.typing_expired" }
func (thankYouExpired) Name() string { return "timer.thank_you_expired" }

func (flagsLoaded) Name() string { return "store.flags_loaded" }

type closedPayload struct {
	EngagementID int64       `json:"engagement_id"`
	ClosedBy     domain.Role `json:"closedBy"`
}

type messagesPayload struct {
	Items []domain.Message      `json:"items"`
	Meta  domain.PaginationMeta `json:"meta"`
}

// Decode turns a named push event and its JSON payload into an Event,
// rejecting payloads whose shape does not match the event.
func Decode(name domain.EventName, data json.RawMessage) (Event, error) {
	switch name {
	case domain.EventLoggedIntoSite:
		return LoggedIntoSite{}, nil

	case domain.EventProfileUpdateFailed:
		return ProfileUpdateFailed{}, nil

	case domain.EventUserIsTyping:
		var sig domain.TypingSignal
		if err := decodeObject(data, &sig); err != nil {
			return nil, err
		}
		if sig.UserID == 0 {
			return nil, newError(ErrorInvalidPayload, "typing_missing_user_id", nil)
		}
		return UserTyping{Signal: sig}, nil

	case domain.EventUpdateEngagement:
		var eng domain.Engagement
		if err := decodeObject(data, &eng); err != nil {
			return nil, err
		}
		if eng.ID == 0 {
			return nil, newError(ErrorInvalidPayload, "engagement_missing_id", nil)
		}
		return EngagementUpdated{Engagement: eng}, nil

	case domain.EventEngagementClosed:
		var p closedPayload
		if err := decodeObject(data, &p); err != nil {
			return nil, err
		}
		if p.EngagementID == 0 || strings.TrimSpace(string(p.ClosedBy)) == "" {
			return nil, newError(ErrorInvalidPayload, "closed_missing_fields", nil)
		}
		return EngagementClosed{EngagementID: p.EngagementID, ClosedBy: p.ClosedBy}, nil

	case domain.EventCustomerRequestTimedOut:
		var m domain.Message
		if err := decodeObject(data, &m); err != nil {
			return nil, err
		}
		return RequestTimedOut{Message: m}, nil

	case domain.EventProfile, domain.EventProfileUpdateSuccess:
		var p domain.Profile
		if err := decodeObject(data, &p); err != nil {
			return nil, err
		}
		if p.ID == 0 {
			return nil, newError(ErrorInvalidPayload, "profile_missing_id", nil)
		}
		if name == domain.EventProfile {
			return ProfileReceived{Profile: p}, nil
		}
		return ProfileUpdateSucceeded{Profile: p}, nil

	case domain.EventGreetingMessage:
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return nil, newError(ErrorInvalidPayload, "greeting_not_string", err)
		}
		return GreetingReceived{Text: text}, nil

	case domain.EventNewMessage:
		var m domain.Message
		if err := decodeObject(data, &m); err != nil {
			return nil, err
		}
		if m.ID == 0 && m.UID == "" {
			return nil, newError(ErrorInvalidPayload, "message_missing_identity", nil)
		}
		return MessageReceived{Message: m, Raw: append(json.RawMessage(nil), data...)}, nil

	case domain.EventMessages:
		var p messagesPayload
		if err := decodeObject(data, &p); err != nil {
			return nil, err
		}
		return HistoryPage{Items: p.Items, Meta: p.Meta}, nil

	default:
		return nil, newError(ErrorUnknownEvent, string(name), nil)
	}
}

func decodeObject(data json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return newError(ErrorInvalidPayload, "payload_not_object", nil)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return newError(ErrorInvalidPayload, "payload_decode", err)
	}
	return nil
}
