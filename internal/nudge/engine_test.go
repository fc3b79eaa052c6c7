package nudge

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"reveal/internal/bridge"
	"reveal/internal/decision"
	"reveal/internal/events"
	"reveal/internal/logging"
	"reveal/internal/position"
	"reveal/internal/schedule"
	"reveal/internal/surface"
)

type hostLog struct {
	dismissed []string
	clicked   []string
	tracked   []string
	payloads  []map[string]any
}

func (h *hostLog) callbacks() bridge.Callbacks {
	return bridge.Callbacks{
		OnDismiss:     func(id string) { h.dismissed = append(h.dismissed, id) },
		OnActionClick: func(id string) { h.clicked = append(h.clicked, id) },
		OnTrack: func(kind, name string, payload map[string]any) {
			h.tracked = append(h.tracked, name+":"+payload["nudgeId"].(string))
			h.payloads = append(h.payloads, payload)
		},
	}
}

type rig struct {
	engine *Engine
	clock  *schedule.Manual
	root   *surface.Root
	host   *hostLog
}

func newRig(t *testing.T, registry bridge.ShownRegistry, mutate ...func(*Options)) *rig {
	t.Helper()
	if registry == nil {
		registry = bridge.NewMemoryRegistry()
	}
	r := &rig{clock: schedule.NewManual(), root: surface.NewRoot(), host: &hostLog{}}
	opts := Options{
		Callbacks: r.host.callbacks(),
		Registry:  registry,
		Root:      r.root,
		Scheduler: r.clock,
		MaxWidth:  48,
	}
	for _, m := range mutate {
		m(&opts)
	}
	r.engine = New(opts)
	r.engine.Resize(120, 40)
	t.Cleanup(r.engine.Close)
	return r
}

func wire(id string) *decision.WireNudgeDecision {
	return &decision.WireNudgeDecision{
		NudgeID:    id,
		TemplateID: decision.TemplateTooltip,
		Title:      "Tip",
		Body:       "Press / to search.",
	}
}

func TestScenarioTopRightPersistsUntilManualDismiss(t *testing.T) {
	r := newRig(t, nil)
	w := wire("n1")
	w.Quadrant = decision.QuadrantTopRight
	r.engine.SetDecision(w)

	r.clock.Advance(time.Second)
	pos, ok := r.engine.Position()
	require.True(t, ok)
	assert.GreaterOrEqual(t, pos.Left, 80, "right third of a 120-column viewport")
	assert.Less(t, pos.Top, 20, "top half")

	r.clock.Advance(24 * time.Hour)
	assert.True(t, r.engine.Visibility().IsVisible)
	assert.Empty(t, r.host.dismissed)

	assert.True(t, r.engine.Dismiss(events.ReasonManual))
	assert.Equal(t, []string{"n1"}, r.host.dismissed)
	assert.False(t, r.engine.Visibility().IsVisible)
	_, ok = r.engine.Position()
	assert.False(t, ok)
}

func TestScenarioReplacementDoesNotDismiss(t *testing.T) {
	r := newRig(t, nil)
	r.engine.SetDecision(wire("n1"))
	r.engine.SetDecision(wire("n2"))

	assert.Empty(t, r.host.dismissed)
	assert.Equal(t, []string{"nudge_shown:n1", "nudge_shown:n2"}, r.host.tracked)
	assert.Equal(t, "n2", r.engine.ctrl.ActiveID())
}

func TestScenarioUnknownTemplate(t *testing.T) {
	t.Cleanup(logging.Reset)
	core, logs := observer.New(zapcore.DebugLevel)
	logging.UseCore(core, true)

	r := newRig(t, nil)
	w := wire("c1")
	w.TemplateID = "carousel"
	assert.NotPanics(t, func() {
		r.engine.SetDecision(w)
		r.engine.SetDecision(w)
		r.clock.Advance(time.Second)
	})

	assert.Equal(t, "base", r.engine.View("base"))
	assert.Empty(t, r.host.tracked)
	assert.Equal(t, 1, logs.FilterLoggerName(string(logging.CategoryTemplate)).Len())
}

func TestUnknownTemplateSilentWithoutDebug(t *testing.T) {
	t.Cleanup(logging.Reset)
	core, logs := observer.New(zapcore.DebugLevel)
	logging.UseCore(core, false)

	r := newRig(t, nil)
	w := wire("c1")
	w.TemplateID = "carousel"
	r.engine.SetDecision(w)
	assert.Zero(t, logs.Len())
}

func TestShownAtMostOnceAcrossEngines(t *testing.T) {
	reg := bridge.NewMemoryRegistry()
	a := newRig(t, reg)
	b := newRig(t, reg)

	a.engine.SetDecision(wire("n1"))
	b.engine.SetDecision(wire("n1"))
	a.engine.SetDecision(nil)
	a.engine.SetDecision(wire("n1"))

	assert.Equal(t, []string{"nudge_shown:n1"}, a.host.tracked)
	assert.Empty(t, b.host.tracked)
	assert.True(t, b.engine.Visibility().HasBeenShown)
}

func TestAutoDismissThroughEngine(t *testing.T) {
	r := newRig(t, nil, func(o *Options) {
		ms := 1000
		o.Defaults.AutoDismissMs = &ms
	})
	r.engine.SetDecision(wire("n1"))

	r.clock.Advance(999 * time.Millisecond)
	assert.Empty(t, r.host.dismissed)
	r.clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"n1"}, r.host.dismissed)
	assert.Equal(t, "auto", r.host.payloads[len(r.host.payloads)-1]["reason"])
	assert.Equal(t, "base", r.engine.View("base"))
}

func TestChangingAutoDismissRearmsFromNow(t *testing.T) {
	r := newRig(t, nil, func(o *Options) {
		ms := 2000
		o.Defaults.AutoDismissMs = &ms
	})
	r.engine.SetDecision(wire("n1"))
	r.clock.Advance(1000 * time.Millisecond)

	longer := 3000
	r.engine.SetOptions(decision.MapOptions{AutoDismissMs: &longer})

	r.clock.Advance(1000 * time.Millisecond)
	assert.Empty(t, r.host.dismissed, "old 2000ms deadline no longer applies")
	r.clock.Advance(1999 * time.Millisecond)
	assert.Empty(t, r.host.dismissed)
	r.clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"n1"}, r.host.dismissed)

	r.clock.Advance(10 * time.Second)
	assert.Equal(t, []string{"n1"}, r.host.dismissed)
	assert.Equal(t, []string{"nudge_shown:n1", "nudge_dismissed:n1"}, r.host.tracked)
}

func TestOptionsMsgUpdatesHeldDecision(t *testing.T) {
	r := newRig(t, nil)
	r.engine.SetDecision(wire("n1"))
	cur, _ := r.engine.Current()
	require.True(t, cur.Dismissible)

	off := false
	handled, _ := r.engine.Update(OptionsMsg{Options: decision.MapOptions{Dismissible: &off}})
	assert.True(t, handled)

	cur, ok := r.engine.Current()
	require.True(t, ok)
	assert.False(t, cur.Dismissible)
	assert.Equal(t, []string{"nudge_shown:n1"}, r.host.tracked, "same id is not shown again")

	r.engine.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, r.host.dismissed)
}

func TestSetOptionsWithoutDecisionOnlyStores(t *testing.T) {
	r := newRig(t, nil)
	ms := 500
	r.engine.SetOptions(decision.MapOptions{AutoDismissMs: &ms})
	_, ok := r.engine.Current()
	assert.False(t, ok)

	r.engine.SetDecision(wire("n1"))
	r.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, []string{"n1"}, r.host.dismissed)
}

func TestSetOptionsKeepsDismissedDecisionDismissed(t *testing.T) {
	r := newRig(t, nil)
	r.engine.SetDecision(wire("n1"))
	require.True(t, r.engine.Dismiss(events.ReasonManual))

	ms := 100
	r.engine.SetOptions(decision.MapOptions{AutoDismissMs: &ms})
	r.clock.Advance(time.Second)

	assert.Equal(t, []string{"n1"}, r.host.dismissed)
	assert.False(t, r.engine.Visibility().IsVisible)
}

func TestCloseBeforeExpiryPreventsDismiss(t *testing.T) {
	r := newRig(t, nil, func(o *Options) {
		ms := 1000
		o.Defaults.AutoDismissMs = &ms
	})
	r.engine.SetDecision(wire("n1"))
	r.engine.Close()

	r.clock.Advance(time.Hour)
	assert.Empty(t, r.host.dismissed)
	assert.Zero(t, r.clock.Pending())
	_, ok := r.root.Lookup(surface.DefaultMountPoint)
	assert.False(t, ok)
}

func TestInvalidAndExpiredDecisionsClear(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := newRig(t, nil, func(o *Options) { o.Now = func() time.Time { return now } })

	r.engine.SetDecision(wire("n1"))
	require.True(t, r.engine.Visibility().IsVisible)

	r.engine.SetDecision(&decision.WireNudgeDecision{TemplateID: decision.TemplateTooltip})
	assert.False(t, r.engine.Visibility().IsVisible)
	assert.Empty(t, r.host.dismissed)

	expired := wire("n2")
	past := now.Add(-time.Minute)
	expired.ExpiresAt = &past
	r.engine.SetDecision(expired)
	assert.False(t, r.engine.Visibility().IsVisible)

	fresh := wire("n3")
	future := now.Add(time.Minute)
	fresh.ExpiresAt = &future
	r.engine.SetDecision(fresh)
	assert.True(t, r.engine.Visibility().IsVisible)
}

func TestTargetNotFoundIsDiagnosticOnly(t *testing.T) {
	r := newRig(t, nil, func(o *Options) {
		o.Targets = surface.TargetFunc(func(string) (position.Rect, bool) { return position.Rect{}, false })
	})
	w := wire("n1")
	w.SlotID = "sidebar"
	r.engine.SetDecision(w)

	assert.Empty(t, r.host.dismissed)
	assert.Equal(t, []string{"nudge_dismissed:n1"}, r.host.tracked)
	assert.Equal(t, "target_not_found", r.host.payloads[0]["reason"])
	assert.False(t, r.engine.Visibility().IsVisible)
}

func TestKeyboardDismissAndAction(t *testing.T) {
	r := newRig(t, nil)
	w := wire("n1")
	w.CTAText = "Show me"
	r.engine.SetDecision(w)

	handled, _ := r.engine.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, handled)
	assert.Equal(t, []string{"n1"}, r.host.clicked)

	handled, _ = r.engine.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, handled)
	assert.Equal(t, []string{"n1"}, r.host.dismissed)
	assert.Equal(t, []string{"nudge_shown:n1", "nudge_action_clicked:n1", "nudge_dismissed:n1"}, r.host.tracked)

	handled, _ = r.engine.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, handled, "nothing mounted after dismissal")
}

func TestBlurDismissesAsTabHidden(t *testing.T) {
	r := newRig(t, nil)
	r.engine.SetDecision(wire("n1"))

	handled, _ := r.engine.Update(tea.BlurMsg{})
	assert.False(t, handled)
	assert.Equal(t, "tab_hidden", r.host.payloads[len(r.host.payloads)-1]["reason"])
}

func TestDecisionAndDismissMessages(t *testing.T) {
	r := newRig(t, nil)
	handled, _ := r.engine.Update(DecisionMsg{Decision: wire("n1")})
	assert.True(t, handled)
	assert.True(t, r.engine.Visibility().IsVisible)

	handled, _ = r.engine.Update(DismissMsg{Reason: events.ReasonNavigation})
	assert.True(t, handled)
	assert.Equal(t, []string{"n1"}, r.host.dismissed)
	assert.False(t, r.engine.Dismiss(events.ReasonManual))
}

func TestSetCallbacksSurvivesRerender(t *testing.T) {
	r := newRig(t, nil)
	r.engine.SetDecision(wire("n1"))

	fresh := &hostLog{}
	r.engine.SetCallbacks(fresh.callbacks())
	r.engine.Dismiss(events.ReasonManual)

	assert.Empty(t, r.host.dismissed)
	assert.Equal(t, []string{"n1"}, fresh.dismissed)
}

func TestEnvelopeInjectedEventsReachHost(t *testing.T) {
	r := newRig(t, nil)
	r.engine.SetDecision(wire("n1"))

	env, err := events.Wrap(events.ActionClick{ID: "n1"})
	require.NoError(t, err)
	require.NoError(t, env.Deliver(r.engine.Events()))
	assert.Equal(t, []string{"n1"}, r.host.clicked)
}

func TestEnvelopeMsgDeliversDecodedEvent(t *testing.T) {
	r := newRig(t, nil)
	r.engine.SetDecision(wire("n1"))

	env, err := events.DecodeEnvelope([]byte(`{"type":"reveal:dismiss","detail":{"id":"n1","reason":"navigation"}}`))
	require.NoError(t, err)
	handled, _ := r.engine.Update(EnvelopeMsg{Envelope: env})
	assert.True(t, handled)
	assert.Equal(t, []string{"n1"}, r.host.dismissed)
	assert.Equal(t, "navigation", r.host.payloads[len(r.host.payloads)-1]["reason"])

	handled, _ = r.engine.Update(EnvelopeMsg{Envelope: events.Envelope{Type: "reveal:hover"}})
	assert.True(t, handled, "malformed envelopes are dropped, not forwarded")
}

func TestViewCompositesOverlay(t *testing.T) {
	r := newRig(t, nil)
	r.engine.SetDecision(wire("n1"))
	r.clock.Advance(time.Second)

	base := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", 120)+"\n", 40), "\n")
	out := r.engine.View(base)
	assert.Contains(t, out, "Press / to search.")
	assert.Len(t, strings.Split(out, "\n"), 40)
}

func TestClosedEngineIgnoresEverything(t *testing.T) {
	r := newRig(t, nil)
	r.engine.Close()
	r.engine.SetDecision(wire("n1"))

	assert.False(t, r.engine.Visibility().IsVisible)
	assert.False(t, r.engine.Dismiss(events.ReasonManual))
	handled, _ := r.engine.Update(DecisionMsg{Decision: wire("n2")})
	assert.False(t, handled)
	assert.Empty(t, r.host.tracked)
}
