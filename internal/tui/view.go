package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"studyhall/internal/flashcards"
	"studyhall/internal/review"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	view := m.ctrl.Snapshot()
	m.keys.reviewing = view.State == review.StateViewing

	var b strings.Builder
	b.WriteString(m.renderHeader(view))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(view.Sets) == 0:
		b.WriteString(m.spinner.View() + " Loading flashcards…\n")
	case m.confirming != "":
		b.WriteString(m.renderConfirm(view))
	case view.State == review.StateViewing:
		b.WriteString(m.renderCard(view))
	default:
		b.WriteString(m.renderList(view))
	}

	if notices := renderNotices(view.Notices); notices != "" {
		b.WriteString("\n" + notices)
	}
	if m.status != "" {
		b.WriteString("\n" + subtleStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader(view review.View) string {
	header := titleStyle.Render("studyhall") + subtleStyle.Render(" · document "+view.DocumentID)
	if view.Offline {
		header += "  " + offlineStyle.Render("showing cached cards")
	}
	if m.loading && len(view.Sets) > 0 {
		header += "  " + m.spinner.View()
	}
	return header
}

func (m Model) renderList(view review.View) string {
	if len(view.Sets) == 0 {
		if m.loadErr != nil {
			return noticeStyle.Render("Could not load flashcards. Press r to retry.") + "\n"
		}
		return subtleStyle.Render("No flashcard sets yet. Generate one with 'studyhall flashcards generate'.") + "\n"
	}
	var b strings.Builder
	for i, set := range view.Sets {
		line := fmt.Sprintf("%-40s %3d cards  %3d%% reviewed  %s",
			truncate(set.DisplayTitle(), 40),
			len(set.Cards),
			set.Progress(),
			set.CreatedAt.Local().Format("Jan 2, 2006"),
		)
		if starred := set.StarredCount(); starred > 0 {
			line += "  " + starStyle.Render(fmt.Sprintf("★ %d", starred))
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderCard(view review.View) string {
	set := view.Set
	var b strings.Builder
	b.WriteString(titleStyle.Render(set.DisplayTitle()))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  card %d / %d  ·  %d%% reviewed", view.Index+1, len(set.Cards), set.Progress())))
	b.WriteString("\n\n")
	if !view.HasCard {
		b.WriteString(subtleStyle.Render("This set has no cards.") + "\n")
		return b.String()
	}

	card := view.Card
	label, text := "Question", card.Question
	if view.Face == review.FaceAnswer {
		label, text = "Answer", card.Answer
	}
	heading := faceStyle.Render(label)
	if card.Starred {
		heading += " " + starStyle.Render("★")
	}
	if card.Difficulty != "" {
		heading += subtleStyle.Render("  " + string(card.Difficulty))
	}

	width := m.width - 4
	if width <= 0 || width > 80 {
		width = 80
	}
	b.WriteString(cardStyle.Width(width).Render(heading + "\n\n" + text))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(reviewLine(card, view.CardBusy)))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderConfirm(view review.View) string {
	title := m.confirming
	if idx := flashcards.FindSet(view.Sets, m.confirming); idx >= 0 {
		title = view.Sets[idx].DisplayTitle()
	}
	prompt := fmt.Sprintf("Delete %q? This cannot be undone. (y/n)", title)
	return lipgloss.NewStyle().Bold(true).Render(prompt) + "\n"
}

func renderNotices(notices []review.Notice) string {
	if len(notices) == 0 {
		return ""
	}
	var b strings.Builder
	for _, notice := range notices {
		b.WriteString(noticeStyle.Render("! "+notice.Message) + "\n")
	}
	return b.String()
}

func reviewLine(card flashcards.Card, busy bool) string {
	var parts []string
	switch card.ReviewCount {
	case 0:
		parts = append(parts, "not reviewed yet")
	case 1:
		parts = append(parts, "reviewed once")
	default:
		parts = append(parts, fmt.Sprintf("reviewed %d times", card.ReviewCount))
	}
	if card.LastReviewed != nil {
		parts = append(parts, "last "+card.LastReviewed.Local().Format("Jan 2 15:04"))
	}
	if busy {
		parts = append(parts, "saving…")
	}
	return strings.Join(parts, "  ·  ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
