package conversation

func (e UserTyping) apply(s *step) {
	if s.isSelf(e.Signal.UserID) {
		return
	}
	sig := e.Signal
	s.st.Typing = &sig
	s.arm(TimerTyping, s.cfg.TypingTTL)
}

func (s *step) clearTyping() {
	if s.st.Typing == nil {
		return
	}
	s.st.Typing = nil
	s.cancel(TimerTyping)
}

func (typingExpired) apply(s *step) {
	s.st.Typing = nil
}
