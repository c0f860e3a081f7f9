package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"studyhall/internal/flashcards"
	"studyhall/internal/studyapi"
)

const stampLayout = "2006-01-02 15:04"

// describeError renders err for the terminal. Backend failures use the
// server's own message when it sent one.
func describeError(err error) string {
	var apiErr *studyapi.APIError
	if errors.As(err, &apiErr) || errors.Is(err, studyapi.ErrTransport) {
		return "Error: " + studyapi.Message(err)
	}
	return "Error: " + err.Error()
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(stampLayout)
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func starMark(starred bool) string {
	if starred {
		return "★"
	}
	return ""
}

func setRows(sets []flashcards.Set, withDocument bool) [][]string {
	rows := make([][]string, 0, len(sets))
	for _, set := range sets {
		row := []string{set.ID}
		if withDocument {
			row = append(row, set.DocumentID)
		}
		row = append(row,
			set.DisplayTitle(),
			strconv.Itoa(len(set.Cards)),
			fmt.Sprintf("%d%%", set.Progress()),
			strconv.Itoa(set.StarredCount()),
			formatStamp(set.CreatedAt),
		)
		rows = append(rows, row)
	}
	return rows
}

func renderSets(sets []flashcards.Set, withDocument bool) string {
	columns := []column{left("ID")}
	if withDocument {
		columns = append(columns, left("Document"))
	}
	columns = append(columns,
		wrapped("Title", questionWidth),
		right("Cards"),
		right("Reviewed"),
		right("Starred"),
		left("Created"),
	)
	if len(sets) < 2 {
		return renderTable(columns, setRows(sets, withDocument))
	}
	cards, starred := 0, 0
	for _, set := range sets {
		cards += len(set.Cards)
		starred += set.StarredCount()
	}
	footer := []string{"Total"}
	if withDocument {
		footer = append(footer, "")
	}
	footer = append(footer, strconv.Itoa(len(sets))+" sets", strconv.Itoa(cards), "", strconv.Itoa(starred))
	return renderTable(columns, setRows(sets, withDocument), footer...)
}

func renderCards(set flashcards.Set) string {
	rows := make([][]string, 0, len(set.Cards))
	for i, card := range set.Cards {
		last := "-"
		if card.LastReviewed != nil {
			last = formatStamp(*card.LastReviewed)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			card.ID,
			card.Question,
			starMark(card.Starred),
			strconv.Itoa(card.ReviewCount),
			last,
			string(card.Difficulty),
		})
	}
	return renderTable([]column{
		right("#"),
		left("Card"),
		wrapped("Question", questionWidth),
		left("★"),
		right("Reviews"),
		left("Last reviewed"),
		left("Difficulty"),
	}, rows)
}

func renderDocuments(docs []flashcards.Document) string {
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, []string{
			doc.ID,
			doc.Title,
			doc.FileName,
			humanBytes(doc.FileSize),
			string(doc.Status),
			formatStamp(doc.CreatedAt),
		})
	}
	return renderTable([]column{
		left("ID"),
		wrapped("Title", questionWidth),
		left("File"),
		right("Size"),
		left("Status"),
		left("Uploaded"),
	}, rows)
}

func truncateText(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
