package conversation

import (
	"livechat-engine/internal/domain"
)

func (s *step) showThankYou() {
	s.st.ThankYouVisible = true
	s.st.ThankYouPersonalize = !s.st.CustomerPersonalized
}

func (s *step) hideThankYou() {
	s.st.ThankYouVisible = false
	s.st.ThankYouPersonalize = false
}

// resetConversation drops the engagement and everything attributed to it.
func (s *step) resetConversation() {
	s.st.Engagement = domain.Engagement{}
	s.st.Messages = nil
	s.st.Meta = domain.PaginationMeta{}
	s.clearTyping()
}

func (e EngagementUpdated) apply(s *step) {
	s.st.Engagement = e.Engagement.Clone()
	if !s.st.UnreadSeeded && e.Engagement.UnreadMessagesCount != nil {
		s.st.Unread = max(*e.Engagement.UnreadMessagesCount, 0)
		s.st.UnreadSeeded = true
	}
	if s.st.ChatOpen {
		s.resetUnread()
	}
}

func (e EngagementClosed) apply(s *step) {
	if !s.st.Engagement.Active() || e.EngagementID != s.st.Engagement.ID {
		return
	}
	s.showThankYou()
	if e.ClosedBy == domain.RoleAgent {
		// History stays visible and the case id is kept for trailing events.
		s.st.Engagement.MarkClosedByAgent()
		s.st.Engagement.Unassign()
		s.exitFullscreen()
		return
	}
	s.resetConversation()
	s.setChatOpen(false)
	s.st.Unread = 0
}

func (e RequestTimedOut) apply(s *step) {
	if !s.st.Engagement.Active() {
		return
	}
	s.st.Engagement.MarkTimedOut()
	s.st.Engagement.Unassign()
	s.exitFullscreen()
	if e.Message.ID != 0 || e.Message.UID != "" || e.Message.Message != "" {
		s.upsert(e.Message, nil)
	}
	if s.st.ChatOpen {
		s.resetUnread()
		return
	}
	s.incrementUnread()
}

func (CloseChat) apply(s *step) {
	if s.st.Engagement.Active() && !s.st.Engagement.Closed() {
		s.emit(domain.EventCustomerCloseEngagement, nil)
	}
	s.resetConversation()
	s.showThankYou()
	s.arm(TimerThankYou, s.cfg.ThankYouHideAfter)
}

func (HideThankYou) apply(s *step) {
	s.hideThankYou()
	s.cancel(TimerThankYou)
}

func (thankYouExpired) apply(s *step) {
	s.hideThankYou()
}
