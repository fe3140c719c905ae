package conversation

import (
	"time"

	"livechat-engine/internal/domain"
)

func (s *step) incrementUnread() {
	s.st.Unread++
	s.st.UnreadSeeded = true
}

// resetUnread zeroes the counter and acknowledges the conversation as viewed.
func (s *step) resetUnread() {
	s.st.Unread = 0
	s.st.UnreadSeeded = true
	if !s.st.Engagement.Active() {
		return
	}
	s.emit(domain.EventUpdateMessagesViewedTime, domain.ViewedTime{
		CaseID:   s.st.Engagement.ID,
		UserID:   s.st.Profile.ID,
		IsAgent:  false,
		ViewedAt: s.now.UTC().Format(time.RFC3339Nano),
	})
}

// noteArrival updates the unread count for a newly stored message.
func (s *step) noteArrival(m domain.Message) {
	if s.st.ChatOpen {
		s.resetUnread()
		return
	}
	if !s.shown(m) || m.MessageType == domain.MessageTypeBot || s.isSelf(m.From.ID) {
		return
	}
	s.incrementUnread()
}
