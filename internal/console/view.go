package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"gatepass/internal/domain"
	"gatepass/internal/live"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("243")).
			MarginTop(1)

	liveStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	reconnectingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	offlineStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	emptyStyle  = lipgloss.NewStyle().Faint(true)

	statusStyles = map[domain.VisitStatus]lipgloss.Style{
		domain.StatusPending:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.StatusApproved:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.StatusAutoApproved: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.StatusRejected:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// connBadge renders the connection indicator for the header line.
func connBadge(state live.ConnState) string {
	switch state {
	case live.StateOpen:
		return liveStyle.Render("● LIVE")
	case live.StateConnecting, live.StateReconnecting:
		return reconnectingStyle.Render("◌ RECONNECTING")
	default:
		return offlineStyle.Render("○ OFFLINE")
	}
}

// renderView draws the whole screen: header, notice, pending queue and
// today's history.
func renderView(title string, store *live.Store, notice string) string {
	var b strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render(title),
		"  ",
		connBadge(store.ConnState()),
	)
	b.WriteString(header)
	b.WriteString("\n")

	if notice != "" {
		b.WriteString(noticeStyle.Render(notice))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("PENDING"))
	b.WriteString("\n")
	pending := store.Pending()
	if len(pending) == 0 {
		b.WriteString(emptyStyle.Render("  no visits waiting"))
		b.WriteString("\n")
	}
	for _, v := range pending {
		b.WriteString(renderVisitLine(v))
	}

	b.WriteString(sectionStyle.Render("TODAY"))
	b.WriteString("\n")
	today := store.Today()
	if len(today) == 0 {
		b.WriteString(emptyStyle.Render("  nothing yet today"))
		b.WriteString("\n")
	}
	for _, v := range today {
		b.WriteString(renderVisitLine(v))
	}

	return b.String()
}

func renderVisitLine(v domain.Visit) string {
	style, ok := statusStyles[v.Status]
	if !ok {
		style = emptyStyle
	}

	entry := ""
	if v.EntryTime != nil {
		entry = " in " + v.EntryTime.Local().Format(time.Kitchen)
	}
	if v.ExitTime != nil {
		entry += " out " + v.ExitTime.Local().Format(time.Kitchen)
	}

	return fmt.Sprintf("  %s %-20s %-14s %s%s\n",
		idStyle.Render(shortID(v.ID)),
		v.NameSnapshot,
		v.Purpose,
		style.Render(string(v.Status)),
		entry,
	)
}

// shortID keeps listings scannable; commands accept the full id too.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
