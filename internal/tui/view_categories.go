package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"mailsweep/internal/model"
)

// categoryItem wraps a Category with its selection mark.
type categoryItem struct {
	model.Category
	selected bool
}

func (c categoryItem) FilterValue() string { return c.Name + " " + c.ID }
func (c categoryItem) Title() string {
	mark := "[ ] "
	if c.selected {
		mark = "[x] "
	}
	return mark + c.Name
}
func (c categoryItem) Description() string {
	return fmt.Sprintf("%s  %s", riskStyle(c.Risk).Render(string(c.Risk)+" risk"), c.BaseQuery)
}

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	PaddingTop(1)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39"))

var errorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("196"))

func riskStyle(r model.RiskLevel) lipgloss.Style {
	switch r {
	case model.RiskLow:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	case model.RiskMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	}
}

func categoriesFooter() string {
	return footerStyle.Render("space: toggle  t: time range  a: analyze  e: export queries  r: refresh count  q: quit")
}

func categoriesToItems(cats []model.Category, sel model.Selection) []list.Item {
	items := make([]list.Item, len(cats))
	for i, c := range cats {
		items[i] = categoryItem{Category: c, selected: sel.Has(c.ID)}
	}
	return items
}
