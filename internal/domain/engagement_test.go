package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngagement_Phase(t *testing.T) {
	cases := []struct {
		name string
		eng  Engagement
		want Phase
	}{
		{"none", Engagement{}, PhaseNone},
		{"open", Engagement{ID: 1, State: EngagementOpen}, PhaseOpen},
		{"closed by agent", Engagement{ID: 1, State: EngagementOpen, IsClosedByAgent: true}, PhaseClosedByAgent},
		{"timed out", Engagement{ID: 1, IsClosedWithTimedOut: true}, PhaseTimedOut},
		{"solved", Engagement{ID: 1, State: EngagementSolved}, PhaseClosedByCustomer},
		{"closed", Engagement{ID: 1, State: EngagementClosed}, PhaseClosedByCustomer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.eng.Phase())
		})
	}
}

func TestEngagement_TerminalFlagsAreExclusive(t *testing.T) {
	var e Engagement
	e.MarkClosedByAgent()
	e.MarkTimedOut()
	require.True(t, e.IsClosedWithTimedOut)
	require.False(t, e.IsClosedByAgent)

	e.MarkClosedByAgent()
	require.True(t, e.IsClosedByAgent)
	require.False(t, e.IsClosedWithTimedOut)
	require.True(t, e.Closed())
}

func TestEngagement_CloneIsDeep(t *testing.T) {
	agent := int64(900)
	n := 3
	e := Engagement{ID: 1, Agent: &AgentRef{ID: 900}, AssignedToAgent: &agent, UnreadMessagesCount: &n}

	cp := e.Clone()
	cp.Agent.ID = 1
	*cp.AssignedToAgent = 1
	*cp.UnreadMessagesCount = 0
	cp.Unassign()

	require.Equal(t, int64(900), e.Agent.ID)
	require.Equal(t, int64(900), *e.AssignedToAgent)
	require.Equal(t, 3, *e.UnreadMessagesCount)
	require.Nil(t, cp.Agent)
}

func TestPaginationMeta_Supersedes(t *testing.T) {
	cur := PaginationMeta{CurrentPage: 3, PageCount: 5, EngagementID: 42}

	require.False(t, cur.Supersedes(PaginationMeta{CurrentPage: 2, EngagementID: 42}))
	require.False(t, cur.Supersedes(PaginationMeta{CurrentPage: 3, EngagementID: 42}))
	require.True(t, cur.Supersedes(PaginationMeta{CurrentPage: 4, EngagementID: 42}))
	require.True(t, cur.Supersedes(PaginationMeta{CurrentPage: 1, EngagementID: 43}))

	require.True(t, cur.HasMore())
	require.False(t, PaginationMeta{CurrentPage: 5, PageCount: 5}.HasMore())
}
