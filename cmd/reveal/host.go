package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"reveal/internal/decision"
	"reveal/internal/events"
	"reveal/internal/nudge"
	"reveal/internal/position"
	"reveal/internal/template"
)

type hostKeys struct {
	Quit    key.Binding
	Next    key.Binding
	Dismiss key.Binding
}

func defaultHostKeys() hostKeys {
	return hostKeys{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next nudge")),
		Dismiss: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dismiss")),
	}
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(template.Foreground).Background(template.Card).Bold(true)
	itemStyle   = lipgloss.NewStyle().Foreground(template.Accent).Background(template.Card)
	statusStyle = lipgloss.NewStyle().Foreground(template.Muted)
)

// headerItems are the anchor targets the demo exposes by slot id.
var headerItems = []string{"search", "settings", "help"}

// demoHost is a small scrolling page with a header bar whose items double as
// anchor targets for slotted decisions.
type demoHost struct {
	width, height int
	vp            viewport.Model
	keys          hostKeys
	status        string
	next          int

	header  string
	targets map[string]position.Rect
}

func newDemoHost() *demoHost {
	h := &demoHost{
		vp:      viewport.New(0, 0),
		keys:    defaultHostKeys(),
		status:  "waiting for a decision",
		targets: make(map[string]position.Rect),
	}
	h.vp.SetContent(demoContent())

	var b strings.Builder
	b.WriteString(headerStyle.Render(" reveal demo "))
	for _, name := range headerItems {
		b.WriteString(headerStyle.Render("  "))
		left := lipgloss.Width(b.String())
		label := itemStyle.Render("[" + name + "]")
		h.targets[name] = position.Rect{Top: 0, Left: left, Width: lipgloss.Width(label), Height: 1}
		b.WriteString(label)
	}
	h.header = b.String()
	return h
}

// Resolve implements surface.TargetResolver.
func (h *demoHost) Resolve(id string) (position.Rect, bool) {
	r, ok := h.targets[id]
	return r, ok
}

// note records the latest tracking event for the status line.
func (h *demoHost) note(name string, payload map[string]any) {
	if reason, ok := payload["reason"]; ok {
		h.status = fmt.Sprintf("%s (%v)", name, reason)
		return
	}
	h.status = name
}

func (h *demoHost) Init() tea.Cmd {
	return nil
}

func (h *demoHost) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width, h.height = msg.Width, msg.Height
		h.vp.Width = msg.Width
		h.vp.Height = max(msg.Height-2, 0)
		return h, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, h.keys.Quit):
			return h, tea.Quit
		case key.Matches(msg, h.keys.Next):
			d := demoDecision(h.next)
			h.next++
			return h, func() tea.Msg { return nudge.DecisionMsg{Decision: d} }
		case key.Matches(msg, h.keys.Dismiss):
			return h, func() tea.Msg { return nudge.DismissMsg{Reason: events.ReasonManual} }
		}
	}
	var cmd tea.Cmd
	h.vp, cmd = h.vp.Update(msg)
	return h, cmd
}

func (h *demoHost) View() string {
	help := fmt.Sprintf("%s · %s · %s · last: %s",
		h.keys.Next.Help().Key+" "+h.keys.Next.Help().Desc,
		h.keys.Dismiss.Help().Key+" "+h.keys.Dismiss.Help().Desc,
		h.keys.Quit.Help().Key+" "+h.keys.Quit.Help().Desc,
		h.status)
	return lipgloss.JoinVertical(lipgloss.Left, h.header, h.vp.View(), statusStyle.Render(help))
}

var demoDecisions = []decision.WireNudgeDecision{
	{TemplateID: decision.TemplateTooltip, SlotID: "search", Title: "Search", Body: "Press / to search everything.", CTAText: "Try it"},
	{TemplateID: decision.TemplateBanner, Quadrant: decision.QuadrantTopCenter, Title: "New", Body: "Saved views sync across devices.", CTAText: "Open"},
	{TemplateID: decision.TemplateModal, Title: "Welcome back", Body: "Three things changed since your last visit.", CTAText: "Take the tour"},
	{TemplateID: decision.TemplateTooltip, Quadrant: decision.QuadrantBottomRight, Title: "Tip", Body: "Scroll with the wheel or arrow keys."},
	{TemplateID: decision.TemplateTooltip, SlotID: "help", Title: "Stuck?", Body: "Docs and shortcuts live here."},
}

// demoDecision returns the i-th demo decision with a fresh nudge id.
func demoDecision(i int) *decision.WireNudgeDecision {
	d := demoDecisions[i%len(demoDecisions)]
	d.NudgeID = uuid.NewString()
	return &d
}

func demoContent() string {
	var b strings.Builder
	for i := 1; i <= 60; i++ {
		fmt.Fprintf(&b, "  %02d  Quarterly report row %d: %d open items\n", i, i, (i*7)%13)
	}
	return b.String()
}
