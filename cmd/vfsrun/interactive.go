package main

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"
	"golang.org/x/term"

	"github.com/wippyai/wasi-virtfs/vfs"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	dirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	sizeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserState int

const (
	stateBrowse browserState = iota
	statePreview
)

type browserModel struct {
	tree     *vfs.Tree
	dir      *vfs.Node
	selected int
	state    browserState
	preview  viewport.Model
	file     *vfs.Node
	width    int
	height   int
	ready    bool
}

func newBrowserModel(tree *vfs.Tree) *browserModel {
	return &browserModel{
		tree:  tree,
		dir:   tree.Root(),
		state: stateBrowse,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Title and help lines frame the viewport.
		m.preview = viewport.New(msg.Width, msg.Height-4)
		m.ready = true
		if m.file != nil {
			m.preview.SetContent(previewContent(m.file))
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.dir.Children())-1 {
				m.selected++
			}

		case "enter":
			if m.state != stateBrowse {
				break
			}
			children := m.dir.Children()
			if m.selected >= len(children) {
				break
			}
			node := children[m.selected]
			if node.IsDir() {
				if len(node.Children()) > 0 {
					m.dir = node
					m.selected = 0
				}
			} else {
				m.file = node
				if m.ready {
					m.preview.SetContent(previewContent(node))
					m.preview.GotoTop()
				}
				m.state = statePreview
			}

		case "esc", "backspace":
			switch m.state {
			case statePreview:
				m.state = stateBrowse
				m.file = nil
			case stateBrowse:
				if parent := m.dir.Parent(); parent != nil {
					// Land back on the entry we came out of.
					name := m.dir.Name()
					m.dir = parent
					m.selected = 0
					for i, c := range parent.Children() {
						if c.Name() == name {
							m.selected = i
							break
						}
					}
				}
			}
		}
	}

	if m.state == statePreview {
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	return m, nil
}

func previewContent(n *vfs.Node) string {
	data := n.Bytes()
	if len(data) == 0 {
		return sizeStyle.Render("(empty file)")
	}
	if !utf8.Valid(data) {
		return errorStyle.Render(fmt.Sprintf("(binary file, %d bytes)", len(data)))
	}
	return string(data)
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Virtual Tree"))
	b.WriteString(" ")
	b.WriteString(m.dir.Path())
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		children := m.dir.Children()
		if len(children) == 0 {
			b.WriteString(sizeStyle.Render("(empty directory)"))
			b.WriteString("\n")
		}
		for i, node := range children {
			line := formatEntry(node)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • esc up • q quit"))

	case statePreview:
		if m.ready {
			b.WriteString(m.preview.View())
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(m.file.Path() + " • ↑/↓ scroll • esc back • q quit"))
	}

	return b.String()
}

func formatEntry(n *vfs.Node) string {
	if n.IsDir() {
		return dirStyle.Render(n.Name()+"/") + sizeStyle.Render(fmt.Sprintf("  %d entries", len(n.Children())))
	}
	return fileStyle.Render(n.Name()) + sizeStyle.Render(fmt.Sprintf("  %d bytes", n.Size()))
}

func runBrowser(tree *vfs.Tree) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}
	p := tea.NewProgram(newBrowserModel(tree), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}
