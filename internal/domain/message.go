package domain

import (
	"encoding/json"
	"time"
)

// MessageType classifies a conversation message.
type MessageType string

const (
	MessageTypeMessage     MessageType = "MESSAGE"
	MessageTypeBot         MessageType = "BOT"
	MessageTypeSurvey      MessageType = "SURVEY"
	MessageTypeNote        MessageType = "NOTE"
	MessageTypeSystemEvent MessageType = "SYSTEM_EVENT"
)

// Sender identifies the author of a message.
type Sender struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Survey carries the survey prompt attached to a SURVEY message.
type Survey struct {
	IsSentByAgent bool `json:"is_sent_by_agent"`
}

// Attachment is an uploaded file referenced by a message. Upload itself happens elsewhere.
type Attachment struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Message is a single conversation message as seen by the widget.
//
// ID is zero until the server has assigned one; UID is the client-generated
// correlation id of locally composed messages. PostedAt is nil for messages
// that are still in flight. Keys the engine does not model are kept in Extra
// so that merges and re-encoding preserve them.
type Message struct {
	ID          int64       `json:"id,omitempty"`
	UID         string      `json:"uid,omitempty"`
	CaseID      *int64      `json:"case_id"`
	From        Sender      `json:"from"`
	PostedBy    string      `json:"posted_by,omitempty"`
	MessageType MessageType `json:"message_type"`
	PostedAt    *time.Time  `json:"posted_at,omitempty"`
	Survey      *Survey     `json:"survey,omitempty"`
	Message     string      `json:"message,omitempty"`
	File        *Attachment `json:"file,omitempty"`
	FileError   string      `json:"file_error,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// messageFields mirrors Message without its JSON methods.
type messageFields Message

var knownMessageKeys = []string{
	"id", "uid", "case_id", "from", "posted_by", "message_type",
	"posted_at", "survey", "message", "file", "file_error",
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var fields messageFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownMessageKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		fields.Extra = raw
	}
	*m = Message(fields)
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(messageFields(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}
	out := make(map[string]json.RawMessage, len(m.Extra)+len(knownMessageKeys))
	for k, v := range m.Extra {
		out[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	cp := m
	if m.CaseID != nil {
		id := *m.CaseID
		cp.CaseID = &id
	}
	if m.PostedAt != nil {
		at := *m.PostedAt
		cp.PostedAt = &at
	}
	if m.Survey != nil {
		s := *m.Survey
		cp.Survey = &s
	}
	if m.File != nil {
		f := *m.File
		cp.File = &f
	}
	if m.Extra != nil {
		cp.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			cp.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return cp
}

// SameIdentity reports whether m and other refer to the same stored message:
// equal non-empty UIDs, or equal non-zero IDs.
func (m Message) SameIdentity(other Message) bool {
	if m.UID != "" && m.UID == other.UID {
		return true
	}
	return m.ID != 0 && m.ID == other.ID
}

// BelongsTo reports whether the message was posted in the given case.
func (m Message) BelongsTo(caseID int64) bool {
	return m.CaseID != nil && *m.CaseID == caseID
}

// IsSurveyShown reports whether a SURVEY message may be displayed. Only survey
// prompts sent from the agent side are shown; other message types always pass.
func (m Message) IsSurveyShown() bool {
	if m.MessageType != MessageTypeSurvey {
		return true
	}
	return m.Survey != nil && m.Survey.IsSentByAgent
}

// Age returns how long ago the message was posted. ok is false when the
// message has no posted_at yet.
func (m Message) Age(now time.Time) (age time.Duration, ok bool) {
	if m.PostedAt == nil {
		return 0, false
	}
	return now.Sub(*m.PostedAt), true
}

// CompareMessages orders messages by (posted_at, id). Messages without
// posted_at sort after all timestamped ones and compare equal to each other,
// so a stable sort keeps their relative positions.
func CompareMessages(a, b Message) int {
	switch {
	case a.PostedAt == nil && b.PostedAt == nil:
		return 0
	case a.PostedAt == nil:
		return 1
	case b.PostedAt == nil:
		return -1
	}
	if c := a.PostedAt.Compare(*b.PostedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
