package conversation

import (
	"slices"

	"livechat-engine/internal/domain"
)

// stale reports whether m is old enough to drop. Messages of the live, open
// engagement are kept regardless of age; messages without posted_at are kept.
func (s *step) stale(m domain.Message) bool {
	age, ok := m.Age(s.now)
	if !ok || age <= s.cfg.StaleAfter {
		return false
	}
	live := s.st.Engagement.Phase() == domain.PhaseOpen
	return !(live && m.BelongsTo(s.st.Engagement.ID))
}

func (PruneOutdated) apply(s *step) {
	if len(s.st.Messages) == 0 {
		return
	}
	kept := slices.DeleteFunc(slices.Clone(s.st.Messages), s.stale)
	if len(kept) == len(s.st.Messages) {
		return
	}
	if len(kept) == 0 {
		// Nothing left to show: treat as an implicit close.
		s.setChatOpen(false)
		s.resetConversation()
		s.st.Unread = 0
		return
	}
	s.st.Messages = kept
}
