package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"mailsweep/internal/model"
)

// resultItem wraps one analyzed query.
type resultItem struct {
	model.QueryResult
}

func (r resultItem) FilterValue() string { return r.CategoryName }
func (r resultItem) Title() string {
	if r.Status == model.StatusFailed {
		return fmt.Sprintf("%s (could not estimate)", r.CategoryName)
	}
	return fmt.Sprintf("%s (%d)", r.CategoryName, r.Estimated)
}
func (r resultItem) Description() string { return r.Query }

func resultsToItems(snap model.Snapshot) []list.Item {
	items := make([]list.Item, len(snap.Results))
	for i, r := range snap.Results {
		items[i] = resultItem{r}
	}
	return items
}

func resultsTitle(snap model.Snapshot) string {
	return fmt.Sprintf("Found %d emails, ~%s MB across %d categories (%s)",
		snap.TotalEstimated, model.FormatMB(snap.SpaceReclaimedMB), snap.CategoriesAnalyzed,
		snap.CompletedAt.Format("15:04:05"))
}

func resultsFooter() string {
	return footerStyle.Render("c: cleanup steps  o: open in gmail  l: steps log  esc: back  q: quit")
}
