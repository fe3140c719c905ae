package conversation

import (
	"slices"

	"livechat-engine/internal/domain"
)

// State is the single conversation snapshot owned by the Engine.
type State struct {
	Messages   []domain.Message      `json:"messages"`
	Meta       domain.PaginationMeta `json:"meta"`
	Engagement domain.Engagement     `json:"engagement"`
	Profile    domain.Profile        `json:"profile"`
	Typing     *domain.TypingSignal  `json:"typing"`

	Unread int `json:"unread"`
	// UnreadSeeded is set once the unread count has been established, either
	// from an engagement update or by local bookkeeping.
	UnreadSeeded bool `json:"-"`

	ChatOpen                bool   `json:"chatOpen"`
	Fullscreen              bool   `json:"fullscreen"`
	ThankYouVisible         bool   `json:"thankYouVisible"`
	ThankYouPersonalize     bool   `json:"thankYouPersonalize"`
	PersonalizationFormOpen bool   `json:"personalizationFormOpen"`
	CustomerPersonalized    bool   `json:"customerPersonalized"`
	Greeting                string `json:"greeting,omitempty"`
	LoggedIn                bool   `json:"loggedIn"`
}

// Flags are the persisted UI flags read at start-up.
type Flags struct {
	ChatOpened                 bool
	Fullscreen                 bool
	DisplayPersonalizationForm bool
	CustomerPersonalized       bool
}

// InitialState builds the state a fresh engine starts from.
func InitialState(f Flags) State {
	return State{
		ChatOpen:                f.ChatOpened,
		Fullscreen:              f.Fullscreen,
		PersonalizationFormOpen: f.DisplayPersonalizationForm,
		CustomerPersonalized:    f.CustomerPersonalized,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	cp := s
	if s.Messages != nil {
		cp.Messages = make([]domain.Message, len(s.Messages))
		for i, m := range s.Messages {
			cp.Messages[i] = m.Clone()
		}
	}
	cp.Engagement = s.Engagement.Clone()
	if s.Typing != nil {
		t := *s.Typing
		cp.Typing = &t
	}
	return cp
}

// LastShownMessage returns the newest message that passes shown.
func (s State) LastShownMessage(shown func(domain.Message) bool) (domain.Message, bool) {
	for _, m := range slices.Backward(s.Messages) {
		if shown(m) {
			return m, true
		}
	}
	return domain.Message{}, false
}

// Phase is the lifecycle position of the active engagement.
func (s State) Phase() domain.Phase {
	return s.Engagement.Phase()
}
