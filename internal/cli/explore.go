package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lockrisk/pkg/depgraph"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var includeDev bool

	cmd := &cobra.Command{
		Use:   "explore [lockfile|graph.json]",
		Short: "Browse packages by risk and simulate compromises interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			includeDev = flagOr(cmd, "include-dev", includeDev, c.Config.Analysis.IncludeDev)
			runner, err := c.newRunner(true)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			a, err := runner.LoadFile(cmd.Context(), args[0], pipeline.Options{IncludeDev: includeDev})
			if err != nil {
				return err
			}
			if a.Stats.Packages == 0 {
				printWarning("No dependencies reachable from the root")
				return nil
			}
			model := NewRiskListModel(cmd.Context(), a, c.Config.Analysis.DisplayLimit)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&includeDev, "include-dev", false, "also walk the root's devDependencies")
	return cmd
}

// =============================================================================
// RiskListModel - packages ranked by risk with drill-down simulation
// =============================================================================

// RiskListModel is the bubbletea model for the explore view.
type RiskListModel struct {
	ctx      context.Context
	analysis *pipeline.Analysis
	nodes    []*depgraph.Node
	limit    int

	Cursor int
	Offset int
	Height int

	// Sim is the simulation for the selected package while the detail
	// pane is open.
	Sim *depgraph.Simulation
	Err error
}

// NewRiskListModel lists every package of a, riskiest first. limit caps
// the impacted packages shown for a simulation.
func NewRiskListModel(ctx context.Context, a *pipeline.Analysis, limit int) RiskListModel {
	return RiskListModel{
		ctx:      ctx,
		analysis: a,
		nodes:    depgraph.RankByRisk(a.Graph()),
		limit:    limit,
		Height:   15,
	}
}

func (m RiskListModel) Init() tea.Cmd {
	return nil
}

func (m RiskListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Sim != nil || m.Err != nil {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "backspace":
				m.Sim, m.Err = nil, nil
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.nodes) == 0 {
				return m, nil
			}
			sim, err := m.analysis.Simulate(m.ctx, m.nodes[m.Cursor].Key)
			if err != nil {
				m.Err = err
				return m, nil
			}
			m.Sim = sim.Truncate(m.limit)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m RiskListModel) View() string {
	if m.Sim != nil || m.Err != nil {
		return m.detailView()
	}

	var b strings.Builder
	title := m.analysis.Name
	if title == "" {
		title = m.analysis.Source
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ simulate compromise  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.nodes))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		n := m.nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			n.Key,
			strconv.Itoa(n.Depth),
			strconv.Itoa(n.FanIn),
			strconv.FormatFloat(n.RiskScore, 'f', 1, 64),
			string(depgraph.TierFor(n.RiskScore)),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("", "Package", "Depth", "Fan-in", "Risk", "Tier").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			idx := m.Offset + row
			if idx >= len(m.nodes) {
				return lipgloss.NewStyle()
			}
			if col == 5 {
				return tierStyle(depgraph.TierFor(m.nodes[idx].RiskScore))
			}
			if idx == m.Cursor {
				return listSelectedStyle
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.nodes))))
	return b.String()
}

func (m RiskListModel) detailView() string {
	var b strings.Builder
	if m.Err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.Err.Error())
		b.WriteString("\n\n")
		b.WriteString(listDimStyle.Render("esc back  q quit"))
		return b.String()
	}

	sim := m.Sim
	b.WriteString(StyleTitle.Render("Compromise: " + sim.Target))
	b.WriteString("\n\n")
	if sim.ImpactedCount == 0 {
		b.WriteString(styleIconSuccess.Render(iconSuccess) + " no package depends on it\n")
	} else {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%d package(s) exposed", sim.ImpactedCount)))
		b.WriteString("\n")
		for _, key := range sim.ImpactedPackages {
			b.WriteString("  " + StyleDim.Render(iconArrow) + " " + key + "\n")
		}
		if hidden := sim.ImpactedCount - len(sim.ImpactedPackages); hidden > 0 {
			b.WriteString(listDimStyle.Render(fmt.Sprintf("  ... and %d more", hidden)) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	return b.String()
}
