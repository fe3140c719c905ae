package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"livechat-engine/internal/domain"
)

var baseTime = time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)

type fakeTransport struct {
	emits []Emit
	err   error
}

func (f *fakeTransport) Emit(_ context.Context, event domain.EventName, payload any) error {
	f.emits = append(f.emits, Emit{Event: event, Payload: payload})
	return f.err
}

func (f *fakeTransport) names() []domain.EventName {
	out := make([]domain.EventName, 0, len(f.emits))
	for _, e := range f.emits {
		out = append(out, e.Event)
	}
	return out
}

func (f *fakeTransport) last(event domain.EventName) (Emit, bool) {
	for i := len(f.emits) - 1; i >= 0; i-- {
		if f.emits[i].Event == event {
			return f.emits[i], true
		}
	}
	return Emit{}, false
}

type fakeFlags struct {
	namespace string
	vals      map[string]string
	getErr    error
	setErr    error
}

func newFakeFlags() *fakeFlags {
	return &fakeFlags{vals: map[string]string{}}
}

func (f *fakeFlags) Get(_ context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.vals[f.namespace+"/"+key]
	return v, ok, nil
}

func (f *fakeFlags) Set(_ context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.vals[f.namespace+"/"+key] = value
	return nil
}

func (f *fakeFlags) Namespace(name string) {
	f.namespace = name
}

// manualScheduler fires callbacks only when the test advances it.
type manualScheduler struct {
	elapsed time.Duration
	tasks   []*manualTask
}

type manualTask struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	t := &manualTask{at: m.elapsed + d, f: f}
	m.tasks = append(m.tasks, t)
	return func() bool {
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

func (m *manualScheduler) Advance(d time.Duration) {
	m.elapsed += d
	for _, t := range append([]*manualTask(nil), m.tasks...) {
		if t.stopped || t.fired || t.at > m.elapsed {
			continue
		}
		t.fired = true
		t.f()
	}
}

func (m *manualScheduler) now() time.Time {
	return baseTime.Add(m.elapsed)
}

type harness struct {
	engine    *Engine
	transport *fakeTransport
	sched     *manualScheduler
	local     *fakeFlags
	session   *fakeFlags
}

func newHarness(t *testing.T, initial State) *harness {
	t.Helper()
	h := &harness{
		transport: &fakeTransport{},
		sched:     &manualScheduler{},
		local:     newFakeFlags(),
		session:   newFakeFlags(),
	}
	e, err := NewEngine(h.transport, h.local, h.session, Config{Clock: h.sched.now}, initial, WithScheduler(h.sched))
	require.NoError(t, err)
	h.engine = e
	return h
}

func (h *harness) handle(events ...Event) State {
	for _, ev := range events {
		h.engine.Handle(context.Background(), ev)
	}
	return h.engine.Snapshot()
}

func ts(minutes int) *time.Time {
	t := baseTime.Add(time.Duration(minutes) * time.Minute)
	return &t
}

func caseID(id int64) *int64 {
	return &id
}

func msg(id int64, postedAt *time.Time) domain.Message {
	return domain.Message{
		ID:          id,
		CaseID:      caseID(42),
		From:        domain.Sender{ID: 900, Name: "Agent Smith"},
		MessageType: domain.MessageTypeMessage,
		PostedAt:    postedAt,
		Message:     "hello",
	}
}

func openEngagement() domain.Engagement {
	agent := int64(900)
	return domain.Engagement{
		ID:              42,
		State:           domain.EngagementOpen,
		Agent:           &domain.AgentRef{ID: 900, Name: "Agent Smith"},
		AssignedToAgent: &agent,
	}
}

func withEngagement(messages ...domain.Message) State {
	return State{
		Engagement: openEngagement(),
		Profile:    domain.Profile{ID: 7, Name: "Dana"},
		Messages:   messages,
	}
}

func ids(msgs []domain.Message) []int64 {
	out := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func requireOrdered(t *testing.T, msgs []domain.Message) {
	t.Helper()
	var timed []domain.Message
	for _, m := range msgs {
		if m.PostedAt != nil {
			timed = append(timed, m)
		}
	}
	for i := 1; i < len(timed); i++ {
		require.LessOrEqual(t, domain.CompareMessages(timed[i-1], timed[i]), 0, "messages %d and %d out of order", timed[i-1].ID, timed[i].ID)
	}
}

func requireUnique(t *testing.T, msgs []domain.Message) {
	t.Helper()
	seenIDs := map[int64]bool{}
	seenUIDs := map[string]bool{}
	for _, m := range msgs {
		if m.ID != 0 {
			require.False(t, seenIDs[m.ID], "duplicate id %d", m.ID)
			seenIDs[m.ID] = true
		}
		if m.UID != "" {
			require.False(t, seenUIDs[m.UID], "duplicate uid %s", m.UID)
			seenUIDs[m.UID] = true
		}
	}
}
