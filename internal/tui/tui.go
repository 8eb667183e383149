// Package tui provides the interactive BubbleTea launcher front end: a
// single search bar over both the Search Engine (apps, files, snippets)
// and the Action Dispatcher (quick links, patterns, script filters),
// merged into one ranked list.
//
// Layout:
//
//	┌─────────────────────────────────────┐
//	│  launchcore                         │  ← header
//	│  ❯ <query input>                    │  ← search bar
//	│  ─────────────────────────────────  │  ← divider
//	│  812  Visual Studio Code            │  ← results
//	│    gh rust-lang/rust → GitHub: ...   │
//	│  ...                                │
//	│  ─────────────────────────────────  │  ← divider
//	│  [3 results]  ↑↓ enter  esc  ^q     │  ← status bar
//	└─────────────────────────────────────┘
package tui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quillbar/launchcore/internal/dispatcher"
	"github.com/quillbar/launchcore/internal/search"
)

var (
	colorAccent  = lipgloss.Color("#7C6AF7")
	colorDim     = lipgloss.Color("#555555")
	colorMuted   = lipgloss.Color("#888888")
	colorText    = lipgloss.Color("#DDDDDD")
	colorSubdued = lipgloss.Color("#444444")
	colorScore   = lipgloss.Color("#5ECEF5")
	colorErr     = lipgloss.Color("#FF6B6B")
	colorGreen   = lipgloss.Color("#5AF078")

	sTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	sAccent = lipgloss.NewStyle().Foreground(colorAccent)
	sDim    = lipgloss.NewStyle().Foreground(colorDim)
	sMuted  = lipgloss.NewStyle().Foreground(colorMuted)
	sScore  = lipgloss.NewStyle().Foreground(colorScore).Bold(true)
	sName   = lipgloss.NewStyle().Foreground(colorText)
	sSub    = lipgloss.NewStyle().Foreground(colorMuted)
	sErr    = lipgloss.NewStyle().Foreground(colorErr)
	sGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	sSel    = lipgloss.NewStyle().
		Background(lipgloss.Color("#1E1A3A")).
		Foreground(colorText)
	sHint = lipgloss.NewStyle().
		Foreground(colorDim).
		Background(lipgloss.Color("#111111"))
	sDivider = lipgloss.NewStyle().Foreground(colorSubdued)
)

var kindIcon = map[search.Kind]string{
	search.KindApplication:    "󰀻 ",
	search.KindFile:           "󰈔 ",
	search.KindSnippet:        "󰩫 ",
	search.KindClipboardEntry: "󰅇 ",
	search.KindCustom:         " ",
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type spinTickMsg struct{}

func spinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return spinTickMsg{} })
}

type mode int

const (
	modeSearch mode = iota
	modeStats
)

// row is one rendered list entry — either a ranked search.Result or a
// dispatcher.ActionResult, unified for display and selection.
type row struct {
	isAction bool
	sr       search.Result
	ar       dispatcher.ActionResult
}

func (r row) title() string {
	if r.isAction {
		return r.ar.Title
	}
	return r.sr.Item.Name
}

func (r row) subtitle() string {
	if r.isAction {
		return r.ar.Subtitle
	}
	return r.sr.Item.Path
}

func (r row) score() float64 {
	if r.isAction {
		return float64(r.ar.Score)
	}
	return float64(r.sr.Score)
}

func (r row) icon() string {
	if r.isAction {
		return " "
	}
	return kindIcon[r.sr.Item.Kind]
}

type (
	resultMsg   []row
	errMsg      struct{ err error }
	debounceMsg struct {
		query string
		id    int
	}
)

// Model is the BubbleTea application model.
type Model struct {
	engine     *search.Engine
	dispatch   *dispatcher.Dispatcher
	input      textinput.Model
	rows       []row
	cursor     int
	mode       mode
	err        error
	width      int
	height     int
	searching  bool
	spinFrame  int
	debounceID int
	lastQuery  string
	limit      int
}

// New creates a launcher TUI model over the given Search Engine and
// Action Dispatcher. dispatch may be nil if no dispatcher is wired.
func New(engine *search.Engine, dispatch *dispatcher.Dispatcher, limit int) Model {
	ti := textinput.New()
	ti.Placeholder = "search apps, files, snippets…"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60
	ti.PromptStyle = sAccent
	ti.Prompt = "❯ "
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)

	if limit <= 0 {
		limit = 10
	}
	return Model{engine: engine, dispatch: dispatch, input: ti, mode: modeSearch, limit: limit}
}

// Init is the BubbleTea init hook.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, spinTick())
}

// Update processes messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 8
		return m, nil

	case spinTickMsg:
		m.spinFrame = (m.spinFrame + 1) % len(spinnerFrames)
		return m, spinTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			return m, tea.Quit

		case "ctrl+i":
			if m.mode != modeStats {
				m.mode = modeStats
				m.input.Blur()
			} else {
				m.mode = modeSearch
				m.input.Focus()
			}
			return m, nil

		case "esc":
			m.mode = modeSearch
			m.input.Focus()
			m.err = nil
			return m, nil

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
			return m, nil

		case "enter":
			if m.mode == modeSearch && len(m.rows) > 0 {
				return m, activate(m.rows[m.cursor])
			}
			return m, nil
		}

	case debounceMsg:
		if msg.id == m.debounceID && msg.query == m.input.Value() {
			if strings.TrimSpace(msg.query) == "" {
				m.searching = false
				m.rows = nil
				return m, nil
			}
			m.searching = true
			m.lastQuery = msg.query
			return m, searchCmd(m.engine, m.dispatch, msg.query, m.limit)
		}
		return m, nil

	case resultMsg:
		m.searching = false
		m.rows = []row(msg)
		m.cursor = 0
		m.err = nil
		return m, nil

	case errMsg:
		m.searching = false
		m.err = msg.err
		return m, nil
	}

	if m.mode == modeSearch {
		prevVal := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != prevVal {
			m.debounceID++
			id := m.debounceID
			q := m.input.Value()
			return m, tea.Batch(cmd, debounceCmd(q, id, 280*time.Millisecond))
		}
		return m, cmd
	}

	return m, nil
}

// View renders the current model.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.mode == modeStats {
		return m.statsView()
	}
	return m.searchView()
}

func (m Model) searchView() string {
	var b strings.Builder
	w := m.width
	divider := sDivider.Render(strings.Repeat("─", clamp(w-2, 10, 200)))

	left := "  " + sTitle.Render("launchcore")
	stats := m.engine.Stats()
	right := sDim.Render(fmt.Sprintf("%d apps · %d files · %d snippets", stats.Apps, stats.Files, stats.Snippets))
	fmt.Fprintln(&b, padBetween(left, right, w))

	fmt.Fprintln(&b, "  "+m.input.View())
	fmt.Fprintln(&b, "  "+divider)

	switch {
	case m.err != nil:
		fmt.Fprintln(&b, sErr.Render("  error: "+m.err.Error()))
	case m.searching:
		frame := spinnerFrames[m.spinFrame]
		fmt.Fprintln(&b, "  "+sAccent.Render(frame)+"  "+sMuted.Render("searching…"))
	case len(m.rows) == 0 && m.input.Value() == "":
		fmt.Fprintln(&b, "")
		fmt.Fprintln(&b, sMuted.Render("  Start typing to search apps, files, and snippets."))
		fmt.Fprintln(&b, sDim.Render("  Quick links work too: ")+sMuted.Render("\"gh rust-lang/rust\""))
	case len(m.rows) == 0:
		fmt.Fprintln(&b, "")
		fmt.Fprintln(&b, sMuted.Render("  no results for ")+sAccent.Render("\""+m.lastQuery+"\""))
	default:
		bodyHeight := m.height - 7
		m.renderRows(&b, bodyHeight)
	}

	b.WriteString("\n  " + divider + "\n")
	m.renderStatusBar(&b)

	return b.String()
}

func (m *Model) renderRows(b *strings.Builder, maxRows int) {
	maxResults := maxRows / 2
	if maxResults < 1 {
		maxResults = 1
	}

	for i, r := range m.rows {
		if i >= maxResults {
			remaining := len(m.rows) - i
			fmt.Fprintf(b, "  %s\n", sDim.Render(fmt.Sprintf("  … %d more results", remaining)))
			break
		}

		score := fmt.Sprintf("%.0f", r.score())
		title := r.title()
		sub := r.subtitle()
		maxSub := clamp(m.width-8, 20, 160)
		if len(sub) > maxSub {
			sub = sub[:maxSub-1] + "…"
		}

		line1 := fmt.Sprintf("  %s  %s%s", sScore.Render(score), r.icon(), sName.Render(title))
		line2 := fmt.Sprintf("  %s  %s", sDim.Render("    "), sSub.Render(sub))

		if i == m.cursor {
			raw1 := score + "  " + r.icon() + title
			raw2 := "       " + sub
			pad1 := clamp(m.width-len(raw1)-3, 0, m.width)
			pad2 := clamp(m.width-len(raw2)-3, 0, m.width)
			line1 = sSel.Render("  " + sScore.Render(score) + "  " + r.icon() + sName.Render(title) + strings.Repeat(" ", pad1))
			line2 = sSel.Render("  " + "       " + sSub.Render(sub) + strings.Repeat(" ", pad2))
		}

		fmt.Fprintln(b, line1)
		fmt.Fprintln(b, line2)
	}
}

func (m *Model) renderStatusBar(b *strings.Builder) {
	var left string
	switch {
	case len(m.rows) > 0:
		left = sGreen.Render(fmt.Sprintf("  %d result", len(m.rows)))
		if len(m.rows) != 1 {
			left += sGreen.Render("s")
		}
	case m.err != nil:
		left = "  " + sErr.Render(m.err.Error())
	default:
		left = sDim.Render("  no results")
	}

	right := sHint.Render("^i info  esc clear  ↑↓ nav  enter open  ^q quit  ")
	fmt.Fprint(b, padBetween(left, right, m.width))
}

func (m Model) statsView() string {
	var b strings.Builder
	w := clamp(m.width, 10, 200)
	divider := sDivider.Render(strings.Repeat("─", w-2))

	fmt.Fprintln(&b, "  "+sTitle.Render("launchcore")+" "+sMuted.Render("— index info"))
	fmt.Fprintln(&b, "  "+divider)

	s := m.engine.Stats()
	fmt.Fprintln(&b, "")
	row := func(label string, value int) {
		fmt.Fprintf(&b, "  %-22s %s\n", sDim.Render(label), sAccent.Render(fmt.Sprintf("%d", value)))
	}
	row("total items", s.Total)
	row("applications", s.Apps)
	row("files", s.Files)
	row("snippets", s.Snippets)

	fmt.Fprintln(&b, "")
	fmt.Fprintln(&b, "  "+divider)
	fmt.Fprint(&b, sHint.Render("  esc back to search  ctrl+q quit"+strings.Repeat(" ", clamp(w-35, 0, 200))))
	return b.String()
}

func debounceCmd(query string, id int, delay time.Duration) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(delay)
		return debounceMsg{query: query, id: id}
	}
}

// searchCmd runs both the Search Engine and (if attached) the Action
// Dispatcher against query and merges their rows, dispatcher results
// first since quick links and patterns are intentional, high-confidence
// matches.
func searchCmd(engine *search.Engine, disp *dispatcher.Dispatcher, query string, limit int) tea.Cmd {
	return func() tea.Msg {
		var rows []row

		if disp != nil {
			for _, ar := range disp.Search(query) {
				rows = append(rows, row{isAction: true, ar: ar})
			}
		}

		results, err := engine.Search(query, limit)
		if err != nil && err != search.ErrQueryEmpty {
			return errMsg{err}
		}
		for _, sr := range results {
			rows = append(rows, row{sr: sr})
		}

		return resultMsg(rows)
	}
}

// activate performs the selected row's action: open a file in $EDITOR,
// open a URL/copy text/run a command for a dispatcher result, or do
// nothing for a plain application/snippet entry (left to the caller's
// own launch mechanism, outside this module's scope).
func activate(r row) tea.Cmd {
	if !r.isAction {
		if r.sr.Item.Kind == search.KindFile {
			return openInEditor(r.sr.Item.Path)
		}
		return nil
	}

	switch r.ar.Action.Kind {
	case dispatcher.ResultOpenUrl:
		return openURL(r.ar.Action.URL)
	case dispatcher.ResultCopyText:
		return func() tea.Msg {
			if err := clipboard.WriteAll(r.ar.Action.Text); err != nil {
				return errMsg{err}
			}
			return nil
		}
	case dispatcher.ResultRunCommand:
		c := exec.Command(r.ar.Action.Cmd, r.ar.Action.Args...)
		return tea.ExecProcess(c, func(err error) tea.Msg {
			if err != nil {
				return errMsg{err}
			}
			return nil
		})
	}
	return nil
}

func openURL(target string) tea.Cmd {
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name, args = "open", []string{target}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		name, args = "xdg-open", []string{target}
	}
	return func() tea.Msg {
		if err := exec.Command(name, args...).Start(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func openInEditor(path string) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		for _, e := range []string{"nvim", "vim", "nano", "vi"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return nil
	}

	args := []string{path}
	if filepath.Base(editor) == "code" {
		args = []string{"--goto", path}
	}

	c := exec.Command(editor, args...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return errMsg{err}
		}
		return nil
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func padBetween(left, right string, width int) string {
	lv := visibleLen(left)
	rv := visibleLen(right)
	gap := width - lv - rv - 2
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, c := range s {
		if c == '\x1b' {
			inEsc = true
		}
		if inEsc {
			if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
