package conversation

import (
	"strconv"
	"time"

	"livechat-engine/internal/domain"
)

// Eligibility decides whether a message counts toward display, "last
// message" and unread logic.
type Eligibility func(domain.Message) bool

// DefaultShown hides internal notes, system events, surveys not sent from the
// agent side and messages with neither a body nor a file.
func DefaultShown(m domain.Message) bool {
	switch m.MessageType {
	case domain.MessageTypeNote, domain.MessageTypeSystemEvent:
		return false
	}
	if !m.IsSurveyShown() {
		return false
	}
	return m.Message != "" || m.File != nil || m.MessageType == domain.MessageTypeSurvey
}

// step is one reducer run: a private copy of the state plus the effects the
// event asked for.
type step struct {
	st      State
	now     time.Time
	cfg     Config
	shown   Eligibility
	effects []Effect
}

// reduce applies ev to a copy of st. It never touches st itself.
func reduce(st State, ev Event, now time.Time, cfg Config, shown Eligibility) (State, []Effect) {
	s := &step{st: st.Clone(), now: now, cfg: cfg, shown: shown}
	ev.apply(s)
	return s.st, s.effects
}

func (s *step) emit(name domain.EventName, payload any) {
	s.effects = append(s.effects, Emit{Event: name, Payload: payload})
}

func (s *step) arm(timer TimerKind, after time.Duration) {
	s.effects = append(s.effects, ArmTimer{Timer: timer, After: after})
}

func (s *step) cancel(timer TimerKind) {
	s.effects = append(s.effects, CancelTimer{Timer: timer})
}

func (s *step) writeFlag(scope FlagScope, key string, value bool) {
	s.effects = append(s.effects, WriteFlag{Scope: scope, Key: key, Value: strconv.FormatBool(value)})
}

func (s *step) isSelf(userID int64) bool {
	return s.st.Profile.ID != 0 && userID == s.st.Profile.ID
}

// Chat panel and fullscreen.

func (s *step) setChatOpen(open bool) {
	if s.st.ChatOpen == open {
		return
	}
	s.st.ChatOpen = open
	s.writeFlag(ScopeSession, domain.FlagChatOpened, open)
	if open {
		s.resetUnread()
	}
}

func (s *step) exitFullscreen() {
	if !s.st.Fullscreen {
		return
	}
	s.st.Fullscreen = false
	s.writeFlag(ScopeSession, domain.FlagFullscreen, false)
}

func (s *step) setPersonalizationForm(open bool) {
	s.st.PersonalizationFormOpen = open
	s.writeFlag(ScopeLocal, domain.FlagDisplayPersonalizationForm, open)
}

func (e SetChatOpen) apply(s *step) {
	s.setChatOpen(e.Open)
}

func (ToggleFullscreen) apply(s *step) {
	s.st.Fullscreen = !s.st.Fullscreen
	s.writeFlag(ScopeSession, domain.FlagFullscreen, s.st.Fullscreen)
}

func (OpenPersonalizationForm) apply(s *step) {
	s.setPersonalizationForm(true)
}

func (ClosePersonalizationForm) apply(s *step) {
	s.setPersonalizationForm(false)
}

func (LoggedIntoSite) apply(s *step) {
	s.st.LoggedIn = true
	s.emit(domain.EventMessages, domain.PageRequest{Page: 1})
}

func (e GreetingReceived) apply(s *step) {
	s.st.Greeting = e.Text
}

func (RequestNextPage) apply(s *step) {
	if !s.st.Meta.HasMore() {
		return
	}
	s.emit(domain.EventMessages, domain.PageRequest{Page: s.st.Meta.CurrentPage + 1})
}

func (NotifyTyping) apply(s *step) {
	s.emit(domain.EventUserIsTyping, nil)
}
