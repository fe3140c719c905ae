package conversation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"livechat-engine/internal/domain"
	"livechat-engine/internal/flagstore"
)

func TestProfileReceived_RekeysFlagStores(t *testing.T) {
	h := newHarness(t, State{})

	st := h.handle(ProfileReceived{Profile: domain.Profile{ID: 7, Name: "dana", IsPersonalized: true}})

	require.Equal(t, int64(7), st.Profile.ID)
	require.True(t, st.CustomerPersonalized)
	require.Equal(t, "dana", h.local.namespace)
	require.Equal(t, "dana", h.session.namespace)
	require.Equal(t, "true", h.local.vals["dana/"+domain.FlagCustomerPersonalized])
}

func TestProfileReceived_ReloadsFlagsStoredForIdentity(t *testing.T) {
	h := newHarness(t, State{Engagement: openEngagement(), Unread: 3})
	h.local.vals["dana/"+domain.FlagDisplayPersonalizationForm] = "true"
	h.local.vals["dana/"+domain.FlagCustomerPersonalized] = "true"
	h.session.vals["dana/"+domain.FlagChatOpened] = "true"

	st := h.handle(ProfileReceived{Profile: domain.Profile{ID: 7, Name: "dana"}})

	require.True(t, st.PersonalizationFormOpen)
	require.True(t, st.ChatOpen)
	require.Zero(t, st.Unread)
	require.False(t, st.CustomerPersonalized)
	require.Equal(t, "false", h.local.vals["dana/"+domain.FlagCustomerPersonalized])
	_, ok := h.transport.last(domain.EventUpdateMessagesViewedTime)
	require.True(t, ok)
}

func TestProfileReceived_KeepsFlagsWhenIdentityHasNone(t *testing.T) {
	h := newHarness(t, State{ChatOpen: true, Fullscreen: true})

	st := h.handle(ProfileReceived{Profile: domain.Profile{ID: 7, Name: "dana"}})

	require.True(t, st.ChatOpen)
	require.True(t, st.Fullscreen)
}

func TestProfileReceived_FlagsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.db")
	open := func() *flagstore.SQLiteStore {
		s, err := flagstore.NewSQLiteStore(path)
		require.NoError(t, err)
		return s
	}
	newEngine := func(local *flagstore.SQLiteStore) *Engine {
		session := flagstore.NewMemoryStore()
		flags, err := LoadFlags(t.Context(), local, session)
		require.NoError(t, err)
		sched := &manualScheduler{}
		e, err := NewEngine(&fakeTransport{}, local, session, Config{Clock: sched.now}, InitialState(flags), WithScheduler(sched))
		require.NoError(t, err)
		return e
	}
	profile := ProfileReceived{Profile: domain.Profile{ID: 7, Name: "Dana"}}

	local := open()
	e := newEngine(local)
	e.Handle(t.Context(), profile)
	e.Handle(t.Context(), OpenPersonalizationForm{})
	require.NoError(t, local.Close())

	local = open()
	defer local.Close()
	e = newEngine(local)
	require.False(t, e.Snapshot().PersonalizationFormOpen)

	e.Handle(t.Context(), profile)
	require.True(t, e.Snapshot().PersonalizationFormOpen)
}

func TestProfileUpdateSucceeded_RenamesAuthoredMessages(t *testing.T) {
	mine := msg(1, ts(1))
	mine.From = domain.Sender{ID: 7, Name: "Guest"}
	theirs := msg(2, ts(2))
	state := withEngagement(mine, theirs)
	state.PersonalizationFormOpen = true
	h := newHarness(t, state)

	st := h.handle(ProfileUpdateSucceeded{Profile: domain.Profile{ID: 7, Name: "Dana Scully", IsPersonalized: true}})

	require.Equal(t, "Dana Scully", st.Messages[0].From.Name)
	require.Equal(t, "Agent Smith", st.Messages[1].From.Name)
	require.Equal(t, "Dana Scully", st.Profile.Name)
	require.True(t, st.CustomerPersonalized)
	require.False(t, st.PersonalizationFormOpen)
	require.Equal(t, "false", h.local.vals["/"+domain.FlagDisplayPersonalizationForm])
}

func TestProfileUpdateFailed_ClosesForm(t *testing.T) {
	h := newHarness(t, State{PersonalizationFormOpen: true, Profile: domain.Profile{ID: 7, Name: "Guest"}})

	st := h.handle(ProfileUpdateFailed{})

	require.False(t, st.PersonalizationFormOpen)
	require.Equal(t, "Guest", st.Profile.Name)
}

func TestPersonalizationForm_Toggle(t *testing.T) {
	h := newHarness(t, State{})

	st := h.handle(OpenPersonalizationForm{})
	require.True(t, st.PersonalizationFormOpen)
	require.Equal(t, "true", h.local.vals["/"+domain.FlagDisplayPersonalizationForm])

	st = h.handle(ClosePersonalizationForm{})
	require.False(t, st.PersonalizationFormOpen)
}
