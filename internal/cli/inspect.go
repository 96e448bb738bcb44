package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	errs "github.com/aklos/scryer-sub000/pkg/errors"
	"github.com/aklos/scryer-sub000/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect [result.json]",
		Short: "Browse a layout result",
		Long: `Browse a layout result produced by 'layout'.

Shows every node with its position and size, and every routed edge with its
handles. Press tab to switch between nodes and edges, q to quit. With --plain
both tables are printed once without the interactive browser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := readResult(args[0])
			if err != nil {
				return err
			}
			m := NewInspectModel(res)
			if plain {
				m.Height = len(res.Nodes) + len(res.Handles)
				fmt.Println(m.View())
				m.Tab = tabEdges
				fmt.Println(m.View())
				return nil
			}
			_, err = tea.NewProgram(m).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print tables without the interactive browser")
	return cmd
}

// readResult loads a layout result file.
func readResult(path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "read result %s", path)
	}
	var res pipeline.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode result %s", path)
	}
	return &res, nil
}

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

type inspectTab int

const (
	tabNodes inspectTab = iota
	tabEdges
)

// =============================================================================
// InspectModel - Interactive result browser
// =============================================================================

// InspectModel is the bubbletea model for browsing a layout result.
type InspectModel struct {
	Result *pipeline.Result
	Tab    inspectTab
	Cursor int
	Offset int
	Height int

	edgeIDs []string
}

// NewInspectModel creates a browser for res.
func NewInspectModel(res *pipeline.Result) InspectModel {
	ids := make([]string, 0, len(res.Handles))
	for id := range res.Handles {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return InspectModel{
		Result:  res,
		Height:  15,
		edgeIDs: ids,
	}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) rows() int {
	if m.Tab == tabEdges {
		return len(m.edgeIDs)
	}
	return len(m.Result.Nodes)
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.Tab = 1 - m.Tab
			m.Cursor, m.Offset = 0, 0
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < m.rows()-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	title := "Nodes"
	if m.Tab == tabEdges {
		title = "Edges"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab switch  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, m.rows())

	var t *table.Table
	if m.Tab == tabEdges {
		t = m.edgeTable(m.Offset, end)
	} else {
		t = m.nodeTable(m.Offset, end)
	}
	t = t.Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	s := m.Result.Stats
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %s", min(m.Cursor+1, m.rows()), m.rows(), s)))
	if m.Result.CacheHit {
		b.WriteString(" " + styleCached.Render(iconCached))
	}
	return b.String()
}

func (m InspectModel) cursor(i int) string {
	if i == m.Cursor {
		return "▸"
	}
	return " "
}

func (m InspectModel) nodeTable(from, to int) *table.Table {
	rows := make([][]string, 0, to-from)
	for i := from; i < to; i++ {
		n := m.Result.Nodes[i]
		w, h := n.Dimensions()
		rows = append(rows, []string{
			m.cursor(i),
			n.ID,
			fmt.Sprintf("%.1f", n.Position.X),
			fmt.Sprintf("%.1f", n.Position.Y),
			fmt.Sprintf("%.0f×%.0f", w, h),
		})
	}
	return table.New().Headers("", "Node", "X", "Y", "Size").Rows(rows...)
}

func (m InspectModel) edgeTable(from, to int) *table.Table {
	rows := make([][]string, 0, to-from)
	for i := from; i < to; i++ {
		id := m.edgeIDs[i]
		p := m.Result.Handles[id]
		rows = append(rows, []string{m.cursor(i), id, string(p.SourceHandle), string(p.TargetHandle)})
	}
	return table.New().Headers("", "Edge", "Source", "Target").Rows(rows...)
}
