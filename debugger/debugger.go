// Package debugger implements the interactive single-step TUI: a
// bubbletea program that steps a cpu.Chip one cycle at a time and renders
// its registers (pc, previous pc, fp, clk, halted), memory around the frame
// pointer, and a dump of the chip or the last error, grounded on the teacher's cpu/debugger.go model{Init/Update/View}.
package debugger

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"valida/cpu"
	"valida/memory"
)

// model is the bubbletea model: the cpu chip being stepped, the memory
// chip it reads from for the examine panel, and the last error that
// stopped stepping.
type model struct {
	cpu    *cpu.Chip
	memory *memory.Chip

	prevPC uint32
	err    error
	done   bool
}

// window is how many words on either side of fp the memory panel shows.
const window = 8

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case " ", "j":
			if m.cpu.Halted() || m.done {
				return m, nil
			}
			m.prevPC = m.cpu.PC()
			if err := m.cpu.Step(); err != nil {
				m.err = err
				m.done = true
			}
		}
	}
	return m, nil
}

// renderMemory renders one row of memory words centered on the frame
// pointer, the current row highlighted the way renderPage highlighted
// the program counter.
func (m model) renderMemory() string {
	fp := m.cpu.FP()
	var b strings.Builder
	fmt.Fprintf(&b, "fp=%08x | ", fp)
	for i := -window; i <= window; i++ {
		addr := fp + uint32(i*4)
		cell := m.memory.Examine(addr)
		if i == 0 {
			fmt.Fprintf(&b, "[%s] ", cell)
		} else {
			fmt.Fprintf(&b, " %s  ", cell)
		}
	}
	return b.String()
}

func (m model) status() string {
	return fmt.Sprintf(`
PC: %08x (was %08x)
FP: %08x
CLK: %d
HALTED: %v
`,
		m.cpu.PC(), m.prevPC, m.cpu.FP(), m.cpu.Clock(), m.cpu.Halted(),
	)
}

func (m model) View() string {
	footer := spew.Sdump(m.cpu)
	if m.err != nil {
		footer = fmt.Sprintf("error: %v", m.err)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.renderMemory(),
			m.status(),
		),
		"",
		footer,
	)
}

// Run starts the interactive stepper over an already-constructed cpu.Chip,
// stepping one cycle per keypress (space or j) until stop or quit (q).
func Run(c *cpu.Chip, mem *memory.Chip) error {
	final, err := tea.NewProgram(model{cpu: c, memory: mem}).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
