package conversation

import (
	"livechat-engine/internal/domain"
)

func (e ProfileReceived) apply(s *step) {
	s.st.Profile = e.Profile
	s.st.CustomerPersonalized = e.Profile.IsPersonalized
	s.effects = append(s.effects, RekeyFlags{Namespace: e.Profile.Name})
	s.writeFlag(ScopeLocal, domain.FlagCustomerPersonalized, e.Profile.IsPersonalized)
}

func (e ProfileUpdateSucceeded) apply(s *step) {
	p := e.Profile
	s.st.Profile = p
	s.st.CustomerPersonalized = p.IsPersonalized
	for i := range s.st.Messages {
		if s.st.Messages[i].From.ID == p.ID {
			s.st.Messages[i].From.Name = p.Name
		}
	}
	s.writeFlag(ScopeLocal, domain.FlagCustomerPersonalized, p.IsPersonalized)
	s.setPersonalizationForm(false)
}

func (ProfileUpdateFailed) apply(s *step) {
	s.setPersonalizationForm(false)
}

// The profile is authoritative for customerPersonalizedFlag, so only the
// panel and form flags are taken from the identity's stored values.
func (e flagsLoaded) apply(s *step) {
	if v, ok := e.values[domain.FlagChatOpened]; ok && v != s.st.ChatOpen {
		s.st.ChatOpen = v
		if v {
			s.resetUnread()
		}
	}
	if v, ok := e.values[domain.FlagFullscreen]; ok {
		s.st.Fullscreen = v
	}
	if v, ok := e.values[domain.FlagDisplayPersonalizationForm]; ok {
		s.st.PersonalizationFormOpen = v
	}
}
