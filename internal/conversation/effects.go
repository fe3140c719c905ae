package conversation

import (
	"time"

	"livechat-engine/internal/domain"
)

// Effect is a side effect requested by the reducer. The engine carries
// effects out after the new state has been committed.
type Effect interface {
	effect()
}

type TimerKind string

const (
	TimerTyping   TimerKind = "typing"
	TimerThankYou TimerKind = "thank_you"
)

type FlagScope string

const (
	ScopeLocal   FlagScope = "local"
	ScopeSession FlagScope = "session"
)

// Emit sends a command to the transport.
type Emit struct {
	Event   domain.EventName
	Payload any
}

// ArmTimer (re)schedules a timer, superseding any pending instance.
type ArmTimer struct {
	Timer TimerKind
	After time.Duration
}

type CancelTimer struct {
	Timer TimerKind
}

// WriteFlag persists a UI flag to one of the key-value stores.
type WriteFlag struct {
	Scope FlagScope
	Key   string
	Value string
}

// RekeyFlags namespaces both flag stores under the given identity.
type RekeyFlags struct {
	Namespace string
}

func (Emit) effect()        {}
func (ArmTimer) effect()    {}
func (CancelTimer) effect() {}
func (WriteFlag) effect()   {}
func (RekeyFlags) effect()  {}

// expiry maps a timer to the event it produces when it fires.
func (k TimerKind) expiry() Event {
	if k == TimerTyping {
		return typingExpired{}
	}
	return thankYouExpired{}
}
