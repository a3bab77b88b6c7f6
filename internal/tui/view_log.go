package tui

import (
	"fmt"
	"strings"

	"mailsweep/internal/model"
)

func renderActionLog(recs []model.ManualActionRecord, pending int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Manual cleanup steps"))
	b.WriteString("\n\n")
	for i, r := range recs {
		fmt.Fprintf(&b, "%d. [%s] %s: %d messages\n", i+1, r.RecordedAt.Format("15:04:05"), r.Category, r.Count)
		fmt.Fprintf(&b, "   search Gmail for: %s\n", r.Query)
		b.WriteString("   then select all, pick \"Select all conversations that match this search\" and delete\n\n")
	}
	if pending > 0 {
		fmt.Fprintf(&b, "%d more to go...\n", pending)
	}
	return b.String()
}

func logFooter() string {
	return footerStyle.Render("o: open latest in gmail  esc: back  q: quit")
}
