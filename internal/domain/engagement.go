package domain

// EngagementState is the server-side state of a support case.
type EngagementState string

const (
	EngagementOpen   EngagementState = "OPEN"
	EngagementSolved EngagementState = "SOLVED"
	EngagementClosed EngagementState = "CLOSED"
)

// Phase is the client-side lifecycle position of the active engagement.
type Phase string

const (
	PhaseNone             Phase = "NONE"
	PhaseOpen             Phase = "OPEN"
	PhaseClosedByAgent    Phase = "CLOSED_BY_AGENT"
	PhaseClosedByCustomer Phase = "CLOSED_BY_CUSTOMER"
	PhaseTimedOut         Phase = "TIMED_OUT"
)

// Role names the side that closed an engagement.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleCustomer Role = "site_customer"
)

type AgentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Engagement is the active support case (a conversation session).
type Engagement struct {
	ID                   int64           `json:"id,omitempty"`
	State                EngagementState `json:"state,omitempty"`
	IsClosedByAgent      bool            `json:"isClosedByAgent,omitempty"`
	IsClosedWithTimedOut bool            `json:"isClosedWithTimedOut,omitempty"`
	Agent                *AgentRef       `json:"agent,omitempty"`
	AssignedToAgent      *int64          `json:"assigned_to_agent,omitempty"`
	UnreadMessagesCount  *int            `json:"unread_messages_count,omitempty"`
}

// Active reports whether an engagement is present at all.
func (e Engagement) Active() bool {
	return e.ID != 0
}

// Phase derives the lifecycle position from the engagement's flags.
func (e Engagement) Phase() Phase {
	switch {
	case e.ID == 0:
		return PhaseNone
	case e.IsClosedWithTimedOut:
		return PhaseTimedOut
	case e.IsClosedByAgent:
		return PhaseClosedByAgent
	case e.State == EngagementSolved || e.State == EngagementClosed:
		return PhaseClosedByCustomer
	default:
		return PhaseOpen
	}
}

// Closed reports whether the engagement no longer accepts messages under its case id.
func (e Engagement) Closed() bool {
	return e.IsClosedByAgent || e.IsClosedWithTimedOut
}

// MarkClosedByAgent sets the agent-closed flag. Terminal flags are exclusive.
func (e *Engagement) MarkClosedByAgent() {
	e.IsClosedByAgent = true
	e.IsClosedWithTimedOut = false
}

// MarkTimedOut sets the timed-out flag. Terminal flags are exclusive.
func (e *Engagement) MarkTimedOut() {
	e.IsClosedWithTimedOut = true
	e.IsClosedByAgent = false
}

// Unassign strips agent assignment from the engagement.
func (e *Engagement) Unassign() {
	e.Agent = nil
	e.AssignedToAgent = nil
}

func (e Engagement) Clone() Engagement {
	cp := e
	if e.Agent != nil {
		a := *e.Agent
		cp.Agent = &a
	}
	if e.AssignedToAgent != nil {
		id := *e.AssignedToAgent
		cp.AssignedToAgent = &id
	}
	if e.UnreadMessagesCount != nil {
		n := *e.UnreadMessagesCount
		cp.UnreadMessagesCount = &n
	}
	return cp
}

// PaginationMeta describes which history page has been loaded.
type PaginationMeta struct {
	CurrentPage  int   `json:"currentPage"`
	PageCount    int   `json:"pageCount"`
	EngagementID int64 `json:"engagementId"`
}

// Supersedes reports whether next should replace m. Within one engagement
// pages only move forward; a different engagement always replaces.
func (m PaginationMeta) Supersedes(next PaginationMeta) bool {
	if next.EngagementID != m.EngagementID {
		return true
	}
	return next.CurrentPage > m.CurrentPage
}

// HasMore reports whether an older history page can still be requested.
func (m PaginationMeta) HasMore() bool {
	return m.CurrentPage < m.PageCount
}

// Profile is the local site customer.
type Profile struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	IsPersonalized bool   `json:"is_personalized"`
}

// TypingSignal says the other party is typing.
type TypingSignal struct {
	AvatarURL string `json:"avatar_url"`
	UserID    int64  `json:"user_id"`
}
