package conversation

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"livechat-engine/internal/domain"
)

// findMessage locates the stored message m refers to, matching by uid first
// and by id otherwise.
func findMessage(msgs []domain.Message, m domain.Message) int {
	if m.UID != "" {
		if i := slices.IndexFunc(msgs, func(x domain.Message) bool { return x.UID == m.UID }); i >= 0 {
			return i
		}
	}
	if m.ID != 0 {
		return slices.IndexFunc(msgs, func(x domain.Message) bool { return x.ID == m.ID })
	}
	return -1
}

func containsIdentity(msgs []domain.Message, m domain.Message) bool {
	return slices.ContainsFunc(msgs, m.SameIdentity)
}

// mergeBatch prepends the unseen, displayable items of a history page and
// re-sorts the result. Items already stored are dropped, not updated.
func mergeBatch(stored, items []domain.Message) []domain.Message {
	fresh := make([]domain.Message, 0, len(items))
	for _, m := range items {
		if !m.IsSurveyShown() {
			continue
		}
		if containsIdentity(stored, m) || containsIdentity(fresh, m) {
			continue
		}
		fresh = append(fresh, m.Clone())
	}
	if len(fresh) == 0 {
		return stored
	}
	merged := append(fresh, stored...)
	slices.SortStableFunc(merged, domain.CompareMessages)
	return merged
}

// insertionPoint is the index of the first stored message ordered strictly
// after m, or len(msgs) when m lacks posted_at or nothing is later.
func insertionPoint(msgs []domain.Message, m domain.Message) int {
	if m.PostedAt == nil {
		return len(msgs)
	}
	i := slices.IndexFunc(msgs, func(x domain.Message) bool {
		return x.PostedAt != nil && domain.CompareMessages(x, m) > 0
	})
	if i < 0 {
		return len(msgs)
	}
	return i
}

// mergeMessage overlays patch onto existing: every key present in patch
// replaces the stored value, other keys are kept.
func mergeMessage(existing domain.Message, patch json.RawMessage) (domain.Message, error) {
	base, err := json.Marshal(existing)
	if err != nil {
		return domain.Message{}, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return domain.Message{}, err
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return domain.Message{}, err
	}
	for k, v := range overlay {
		fields[k] = v
	}
	blob, err := json.Marshal(fields)
	if err != nil {
		return domain.Message{}, err
	}
	var out domain.Message
	if err := json.Unmarshal(blob, &out); err != nil {
		return domain.Message{}, err
	}
	return out, nil
}

// upsert merges m into its stored counterpart or inserts it in order.
// inserted reports whether m was new. A merge that moves posted_at or that
// resolves to an identity held by another entry re-places the message and
// drops the other copy.
func (s *step) upsert(m domain.Message, patch json.RawMessage) (inserted bool) {
	i := findMessage(s.st.Messages, m)
	if i < 0 {
		s.st.Messages = slices.Insert(s.st.Messages, insertionPoint(s.st.Messages, m), m.Clone())
		return true
	}
	if len(patch) == 0 {
		patch, _ = json.Marshal(m)
	}
	prev := s.st.Messages[i]
	merged, err := mergeMessage(prev, patch)
	if err != nil {
		merged = m.Clone()
	}
	rest := slices.Delete(s.st.Messages, i, i+1)
	n := len(rest)
	rest = slices.DeleteFunc(rest, merged.SameIdentity)
	if len(rest) == n && samePostedAt(prev.PostedAt, merged.PostedAt) {
		s.st.Messages = slices.Insert(rest, i, merged)
		return false
	}
	s.st.Messages = slices.Insert(rest, insertionPoint(rest, merged), merged)
	return false
}

func samePostedAt(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (e HistoryPage) apply(s *step) {
	s.st.Messages = mergeBatch(s.st.Messages, e.Items)
	if s.st.Meta.Supersedes(e.Meta) {
		s.st.Meta = e.Meta
	}
}

func (e MessageReceived) apply(s *step) {
	if !s.st.Engagement.Active() {
		return
	}
	if !e.Message.IsSurveyShown() {
		return
	}
	inserted := s.upsert(e.Message, e.Raw)
	s.clearTyping()
	if inserted {
		s.noteArrival(e.Message)
	}
}

var newUID = func() string {
	return uuid.NewString()
}

func (e SendMessage) apply(s *step) {
	text := strings.TrimSpace(e.Text)
	if text == "" && e.File == nil {
		return
	}
	now := s.now.UTC()
	m := domain.Message{
		UID:         newUID(),
		From:        domain.Sender{ID: s.st.Profile.ID, Name: s.st.Profile.Name},
		PostedBy:    string(domain.RoleCustomer),
		MessageType: domain.MessageTypeMessage,
		PostedAt:    &now,
		Message:     text,
		File:        e.File,
	}
	if s.st.Engagement.Active() && !s.st.Engagement.Closed() {
		id := s.st.Engagement.ID
		m.CaseID = &id
		s.upsert(m, nil)
	}
	s.emit(domain.EventNewMessage, m.Clone())
}
