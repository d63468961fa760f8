package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/inkwell-kb/inkwell/internal/runtime"
	"github.com/inkwell-kb/inkwell/internal/store"
)

// refreshInterval is how often the dashboard re-polls the store.
const refreshInterval = 2 * time.Second

// StatusSnapshot is one refresh of everything the dashboard shows.
type StatusSnapshot struct {
	Runtime runtime.Status
	Stats   store.Stats
	Err     error
}

// SnapshotFunc produces a fresh snapshot; the dashboard calls it on a timer.
type SnapshotFunc func() StatusSnapshot

type tickMsg time.Time

type snapshotMsg StatusSnapshot

type statusModel struct {
	snapshot StatusSnapshot
	fetch    SnapshotFunc
	styles   Styles
	spin     spinner.Model
	loaded   bool
}

func newStatusModel(fetch SnapshotFunc, styles Styles) statusModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Good
	return statusModel{fetch: fetch, styles: styles, spin: sp}
}

func (m statusModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchCmd(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m statusModel) fetchCmd() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg { return snapshotMsg(fetch()) }
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), tick())
	case snapshotMsg:
		m.snapshot = StatusSnapshot(msg)
		m.loaded = true
		return m, nil
	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m statusModel) View() string {
	s := m.styles
	if !m.loaded {
		return m.spin.View() + " loading store statistics..."
	}
	if m.snapshot.Err != nil {
		return s.Warning.Render("status unavailable: "+m.snapshot.Err.Error()) + "\n"
	}

	body := renderSnapshot(m.snapshot, s)
	footer := s.Dim.Render("q to quit · refreshes every " + refreshInterval.String())
	return lipgloss.JoinVertical(lipgloss.Left, s.Panel.Render(body), footer) + "\n"
}

// renderSnapshot formats one snapshot; shared by the TUI view and the plain
// renderer so both always agree on content.
func renderSnapshot(snap StatusSnapshot, s Styles) string {
	rt := snap.Runtime
	st := snap.Stats

	embedderState := s.Warning.Render("offline (keyword-only recall)")
	if rt.EmbedderOnline {
		embedderState = s.Good.Render("online")
	}

	matrixState := "not loaded"
	if st.MatrixLoaded {
		matrixState = fmt.Sprintf("%d rows", st.MatrixRows)
	}

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", s.Label.Render(fmt.Sprintf("%-14s", label)), s.Value.Render(value)))
	}

	b.WriteString(s.Header.Render("inkwell status") + "\n\n")
	row("tier", rt.Tier.String())
	row("budget", fmt.Sprintf("%d MB ram · %d MB gpu · %d workers",
		rt.Budget.MaxMemoryMB, rt.Budget.MaxGPUMemoryMB, rt.Budget.MaxConcurrency))
	row("embedder", fmt.Sprintf("%s · %s", rt.EmbedderModel, embedderState))
	b.WriteString("\n")
	row("documents", fmt.Sprintf("%d", st.TotalDocuments))
	row("chunks", fmt.Sprintf("%d (%d sections, %d paragraphs)",
		st.TotalChunks, st.SectionChunks, st.ParagraphChunks))
	row("embeddings", fmt.Sprintf("%d stored · dim %d", st.EmbeddingsStored, st.EmbeddingDimension))
	row("matrix", matrixState)
	row("database", fmt.Sprintf("%.2f MB · %s", st.DBSizeMB, st.DBPath))

	return strings.TrimRight(b.String(), "\n")
}

// RunStatusTUI runs the interactive dashboard until the user quits.
func RunStatusTUI(fetch SnapshotFunc, noColor bool) error {
	styles := DefaultStyles()
	if noColor {
		styles = NoColorStyles()
	}
	program := tea.NewProgram(newStatusModel(fetch, styles))
	_, err := program.Run()
	return err
}

// RenderStatusPlain writes one snapshot to w without colors or interaction,
// for non-TTY output.
func RenderStatusPlain(w io.Writer, snap StatusSnapshot) error {
	if snap.Err != nil {
		_, err := fmt.Fprintf(w, "status unavailable: %v\n", snap.Err)
		return err
	}
	_, err := fmt.Fprintln(w, renderSnapshot(snap, NoColorStyles()))
	return err
}
