package domain

// EventName is a transport event name, shared by inbound and outbound traffic.
type EventName string

// Push events received from, and commands sent to, the transport.
const (
	EventLoggedIntoSite           EventName = "LOGGED_INTO_SITE"
	EventUserIsTyping             EventName = "USER_IS_TYPING"
	EventUpdateEngagement         EventName = "UPDATE_ENGAGEMENT"
	EventEngagementClosed         EventName = "ENGAGEMENT_CLOSED"
	EventCustomerRequestTimedOut  EventName = "CUSTOMER_REQUEST_TIMEDOUT"
	EventProfile                  EventName = "PROFILE"
	EventGreetingMessage          EventName = "GREETING_MESSAGE"
	EventNewMessage               EventName = "NEW_MESSAGE"
	EventProfileUpdateSuccess     EventName = "SITE_CUSTOMER_PROFILE_UPDATE_SUCCESS"
	EventProfileUpdateFailed      EventName = "SITE_CUSTOMER_PROFILE_UPDATE_FAILED"
	EventMessages                 EventName = "MESSAGES"
	EventUpdateMessagesViewedTime EventName = "UPDATE_MESSAGES_VIEWED_TIME"
	EventCustomerCloseEngagement  EventName = "SITE_CUSTOMER_CLOSE_ENGAGEMENT"
)

// Outbound payloads.

type PageRequest struct {
	Page int `json:"page"`
}

type ViewedTime struct {
	CaseID   int64  `json:"case_id"`
	UserID   int64  `json:"user_id"`
	IsAgent  bool   `json:"is_agent"`
	ViewedAt string `json:"viewed_at"`
}

// Flag keys read from the persistent key-value stores at start-up.
const (
	FlagChatOpened                 = "chatOpenedFlag"
	FlagFullscreen                 = "fullscreenState"
	FlagDisplayPersonalizationForm = "displayPersonalizationFormFlag"
	FlagCustomerPersonalized       = "customerPersonalizedFlag"
)
