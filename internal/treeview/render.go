package treeview

import (
	"fmt"
	"io"
	"strings"
	"time"

	"workspace/internal/dto"
	"workspace/internal/model"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title    lipgloss.Style
	done     lipgloss.Style
	pending  lipgloss.Style
	priority lipgloss.Style
	due      lipgloss.Style
	muted    lipgloss.Style
	editing  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		done:     r.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("244")),
		pending:  r.NewStyle().Foreground(lipgloss.Color("252")),
		priority: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		due:      r.NewStyle().Foreground(lipgloss.Color("3")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("244")),
		editing:  r.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")),
	}
}

// formatDue labels a due date relative to today.
func formatDue(d, today model.Date) string {
	switch d {
	case today:
		return "today"
	case today.AddDays(1):
		return "tomorrow"
	}
	if d.Year == today.Year {
		return d.In(time.UTC).Format("Jan 2")
	}
	return d.In(time.UTC).Format("Jan 2, 2006")
}

// Render writes the topic as an indented tree. Colors are only emitted when
// w is a terminal.
func (v *View) Render(w io.Writer) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := newStyles(lipgloss.NewRenderer(w))
	today := model.DateOf(v.now())

	var b strings.Builder
	b.WriteString(st.title.Render(v.topicName))
	b.WriteByte('\n')

	Walk(BuildForest(v.todos), func(n *Node) bool {
		open := v.expand.Visible(n, v.editor.todoID)
		b.WriteString(v.renderLine(st, n, open, today))
		b.WriteByte('\n')
		return open
	})

	_, err := io.WriteString(w, b.String())
	return err
}

func (v *View) renderLine(st styles, n *Node, open bool, today model.Date) string {
	t := n.Todo

	marker := "•"
	if len(n.Children) > 0 {
		marker = "▸"
		if open {
			marker = "▾"
		}
	}
	box := "[ ]"
	text := st.pending.Render(t.Content)
	if t.Status == model.StatusCompleted {
		box = "[x]"
		text = st.done.Render(t.Content)
	}

	parts := []string{strings.Repeat("  ", n.Depth) + marker, box}
	if v.editor.todoID == t.ID && v.editor.field == FieldContent {
		parts = append(parts, st.editing.Render(v.editor.buffer+"_"))
	} else {
		parts = append(parts, text)
	}
	parts = append(parts, v.badges(st, t, today)...)
	if IsTemporary(t.ID) || v.editor.saving[t.ID] > 0 {
		parts = append(parts, st.muted.Render("(saving)"))
	}
	return strings.Join(parts, " ")
}

func (v *View) badges(st styles, t dto.Todo, today model.Date) []string {
	var out []string
	editing := v.editor.todoID == t.ID

	switch {
	case editing && v.editor.field == FieldPriority:
		out = append(out, st.editing.Render(v.editor.buffer+"_"))
	case t.Priority != model.PriorityNone && t.Priority != "":
		out = append(out, st.priority.Render(string(t.Priority)))
	}

	switch {
	case editing && v.editor.field == FieldDueDate:
		out = append(out, st.editing.Render("due "+v.editor.buffer+"_"))
	case t.DueDate != nil:
		out = append(out, st.due.Render(fmt.Sprintf("due %s", formatDue(*t.DueDate, today))))
	}
	return out
}
