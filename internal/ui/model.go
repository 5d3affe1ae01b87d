package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/labstack/gommon/log"
	"github.com/muesli/termenv"

	"github.com/jwafle/pubtail/internal/telemetry"
	"github.com/jwafle/pubtail/internal/visualization"
)

// verticalMargin is the number of rows taken by tabs, status and help.
const verticalMargin = 5

// detail is the message pane for one topic. The view reads the topic's slot,
// so it always shows the latest snapshot.
type detail struct {
	topic string
	tag   string
	view  visualization.View
}

// Model is the Bubble Tea model driving the UI.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	recv   Receiver
	log    *log.Logger

	registry *visualization.Registry
	store    *telemetry.Store
	clip     func(string)

	spinner spinner.Model
	help    help.Model
	ready   bool
	paused  bool

	width, height int
	list          viewport.Model
	cur           cursor
	tab           tab
	detail        *detail
	notice        string

	err error
}

// Options wires a Model to its collaborators.
type Options struct {
	Receiver Receiver
	Registry *visualization.Registry
	Store    *telemetry.Store
	Logger   *log.Logger
}

// NewModel builds the shell. Cancelling ctx or quitting stops the receiver.
func NewModel(ctx context.Context, o Options) Model {
	ctx, cancel := context.WithCancel(ctx)
	if o.Registry == nil {
		o.Registry = visualization.Default()
	}
	if o.Store == nil {
		o.Store = telemetry.NewStore(0)
	}
	if o.Logger == nil {
		o.Logger = log.New("ui")
	}
	return Model{
		ctx:      ctx,
		cancel:   cancel,
		recv:     o.Receiver,
		log:      o.Logger,
		registry: o.Registry,
		store:    o.Store,
		clip:     termenv.Copy,
		spinner:  spinner.New(),
		help:     help.New(),
	}
}

// Err is the fault that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		readFrame(m.ctx, m.recv),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.notice = ""
		switch {
		case key.Matches(msg, Keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, Keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, Keys.Yank):
			m.yank()
		case m.tab == tabTopics && key.Matches(msg, Keys.Up):
			m.cur.move(-1, m.store.Topics())
			m.syncList()
		case m.tab == tabTopics && key.Matches(msg, Keys.Down):
			m.cur.move(1, m.store.Topics())
			m.syncList()
		case m.tab == tabTopics && key.Matches(msg, Keys.Open):
			m.open(m.cur.topic)
		case m.tab == tabMessage && key.Matches(msg, Keys.Back):
			m.tab = tabTopics
		case m.tab == tabMessage && m.detail != nil:
			cmds = append(cmds, m.detail.view.DataView().Update(msg))
		}
		var c tea.Cmd
		m.help, c = m.help.Update(msg)
		cmds = append(cmds, c)

	case tea.MouseMsg:
		if m.tab == tabMessage && m.detail != nil {
			cmds = append(cmds, m.detail.view.DataView().Update(msg))
		} else {
			var c tea.Cmd
			m.list, c = m.list.Update(msg)
			cmds = append(cmds, c)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		body := max(msg.Height-verticalMargin, 1)
		if !m.ready {
			m.list = viewport.New(msg.Width, body)
			m.ready = true
		} else {
			m.list.Width, m.list.Height = msg.Width, body
		}
		if m.detail != nil {
			m.detail.view.DataView().SetSize(msg.Width, body)
		}
		m.syncList()

	case telemetry.Message:
		if !m.paused {
			m.ingest(msg)
		}
		cmds = append(cmds, readFrame(m.ctx, m.recv))

	case error:
		m.err = msg
		m.cancel()
		return m, tea.Quit

	case spinner.TickMsg:
		var c tea.Cmd
		m.spinner, c = m.spinner.Update(msg)
		cmds = append(cmds, c)
		m.syncList()
	}

	return m, tea.Batch(cmds...)
}

// ingest publishes msg and keeps the open pane consistent with the store.
func (m *Model) ingest(msg telemetry.Message) {
	evicted := m.store.Add(msg)
	if evicted != "" {
		m.log.Debugf("evicted topic %q", evicted)
	}
	if m.detail != nil {
		switch {
		case evicted == m.detail.topic:
			m.notice = fmt.Sprintf("topic %q evicted", evicted)
			m.detail = nil
			m.tab = tabTopics
		case msg.Topic == m.detail.topic && msg.Tag != m.detail.tag:
			// A different payload type needs a different visualizer. A pane
			// the user has left is dropped; enter rebuilds it.
			if m.tab == tabMessage {
				m.open(msg.Topic)
			} else {
				m.detail = nil
			}
		}
	}
	m.syncList()
}

// open binds a view to the named topic's slot and shows it.
func (m *Model) open(name string) {
	t, ok := m.store.Get(name)
	if !ok {
		return
	}
	snap := t.Slot.Snapshot()
	v := m.registry.Open(t.Slot)
	if m.ready {
		v.DataView().SetSize(m.width, max(m.height-verticalMargin, 1))
	}
	m.detail = &detail{topic: name, tag: snap.Tag, view: v}
	m.tab = tabMessage
	m.log.Debugf("opened %q as %s", name, v.Kind())
}

func (m *Model) yank() {
	if m.detail == nil {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	lines := m.detail.view.Render(width)
	m.clip(ansi.Strip(strings.Join(lines, "\n")))
	m.notice = "copied " + m.detail.topic
}

func (m *Model) syncList() {
	if !m.ready {
		return
	}
	topics := m.store.Topics()
	m.cur.sync(topics)

	rows := make([]string, 0, len(topics))
	for i, t := range topics {
		rows = append(rows, m.renderRow(t, i == m.cur.index))
	}
	m.list.SetContent(strings.Join(rows, "\n"))

	if m.cur.index < m.list.YOffset {
		m.list.SetYOffset(m.cur.index)
	} else if m.cur.index >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(m.cur.index - m.list.Height + 1)
	}
}

func (m *Model) renderRow(t telemetry.Topic, selected bool) string {
	snap := t.Slot.Snapshot()
	marker := "  "
	if selected {
		marker = "▸ "
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		marker,
		nameStyle.Width(24).Render(ansi.Truncate(t.Name, 23, "…")),
		lipgloss.NewStyle().Width(14).Render(tagBadge(snap.Tag)),
		countStyle.Width(10).Render(fmt.Sprintf("%d msgs", t.Count)),
		countStyle.Width(10).Render(humanize.IBytes(uint64(snap.Size()))),
		countStyle.Render(humanize.Time(t.Updated)),
	)
	if selected {
		return selectedStyle.Width(m.width).Render(row)
	}
	return rowStyle.Render(row)
}

func (m Model) View() string {
	if !m.ready {
		return "initializing…"
	}
	var b strings.Builder

	b.WriteString(m.RenderTabs())
	b.WriteString("\n")
	switch {
	case m.tab == tabMessage && m.detail != nil:
		b.WriteString(m.detail.view.DataView().View())
	case m.store.Len() == 0:
		b.WriteString(lipgloss.NewStyle().Height(m.list.Height).Render(statusStyle.Render("waiting for messages…")))
	default:
		b.WriteString(m.list.View())
	}
	b.WriteString("\n")

	var status strings.Builder
	if m.paused {
		status.WriteString("[PAUSED] ")
	} else {
		status.WriteString(m.spinner.View())
		status.WriteString(" Streaming ")
	}
	fmt.Fprintf(&status, "%d topics", m.store.Len())
	if m.tab == tabMessage && m.detail != nil {
		pct := m.detail.view.DataView().Viewport().ScrollPercent()
		fmt.Fprintf(&status, " · %s · %s · %3.f%%", m.detail.topic, m.detail.view.Kind(), pct*100)
	}
	if m.notice != "" {
		status.WriteString(" · ")
		status.WriteString(m.notice)
	}
	b.WriteString(statusStyle.Render(status.String()))
	if m.err != nil {
		b.WriteString(" ")
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(Keys))

	return b.String()
}
