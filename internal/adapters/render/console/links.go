package console

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatPlain Format = "plain"
)

func ParseFormat(raw string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(raw))); format {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatCSV, FormatPlain:
		return format, nil
	default:
		return "", fmt.Errorf("unknown format %q: use table, json, csv or plain", raw)
	}
}

// Links renders links in the given format. The table format prints a hint
// when there is nothing to show; the machine formats stay empty.
func Links(links []domain.Link, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return linksJSON(links)
	case FormatCSV:
		return linksCSV(links)
	case FormatPlain:
		return linksPlain(links), nil
	default:
		return render(func(s styles) string { return linkTable(links, s) })
	}
}

func linkTable(links []domain.Link, s styles) string {
	if len(links) == 0 {
		return s.empty.Render("No links found.")
	}

	rows := make([][]string, 0, len(links))
	for _, link := range links {
		tags := "-"
		if names := link.TagNames(); len(names) > 0 {
			tags = strings.Join(names, ", ")
		}
		rows = append(rows, []string{
			link.ShortLink,
			truncate(link.URL, 50),
			tags,
			strconv.FormatInt(link.Clicks, 10),
			formatDate(link),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		Headers("Short Link", "Destination URL", "Tags", "Clicks", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header.Padding(0, 1)
			}
			switch col {
			case 0:
				return s.link.Padding(0, 1)
			case 2:
				return s.tags.Padding(0, 1)
			case 3:
				return s.clicks.Padding(0, 1).Align(lipgloss.Right)
			case 4:
				return s.detail.Padding(0, 1)
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		})

	return t.String()
}

func linksJSON(links []domain.Link) (string, error) {
	if links == nil {
		links = []domain.Link{}
	}
	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode links: %w", err)
	}
	return string(data), nil
}

func linksCSV(links []domain.Link) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	records := [][]string{{"shortLink", "url", "key", "domain", "clicks", "tags", "createdAt"}}
	for _, link := range links {
		records = append(records, []string{
			link.ShortLink,
			link.URL,
			link.Key,
			link.Domain,
			strconv.FormatInt(link.Clicks, 10),
			strings.Join(link.TagNames(), ","),
			link.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	if err := writer.WriteAll(records); err != nil {
		return "", fmt.Errorf("encode links csv: %w", err)
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

func linksPlain(links []domain.Link) string {
	lines := make([]string, 0, len(links))
	for _, link := range links {
		lines = append(lines, link.ShortLink)
	}
	return strings.Join(lines, "\n")
}

func LinkCreated(link domain.Link) string {
	s := newStyles()
	lines := []string{
		s.success.Render("Created:") + " " + link.ShortLink,
		"  " + s.detail.Render("Destination:") + " " + truncate(link.URL, 60),
	}
	if names := link.TagNames(); len(names) > 0 {
		lines = append(lines, "  "+s.detail.Render("Tags:")+" "+strings.Join(names, ", "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func LinkStats(link domain.Link) string {
	s := newStyles()
	lines := []string{
		s.title.Render(link.ShortLink),
		s.detail.Render("Destination:") + " " + link.URL,
		"",
		statLine(s, "Clicks", strconv.FormatInt(link.Clicks, 10)),
		statLine(s, "Leads", strconv.FormatInt(link.Leads, 10)),
		statLine(s, "Sales", strconv.FormatInt(link.Sales, 10)),
	}
	if link.SaleAmount > 0 {
		lines = append(lines, statLine(s, "Revenue", fmt.Sprintf("$%.2f", float64(link.SaleAmount)/100)))
	}
	lines = append(lines, "")
	if link.LastClicked != nil {
		lines = append(lines, s.detail.Render("Last clicked:")+" "+link.LastClicked.Format("2006-01-02 15:04"))
	}
	lines = append(lines, s.detail.Render("Created:")+" "+formatDate(link))
	if names := link.TagNames(); len(names) > 0 {
		lines = append(lines, s.detail.Render("Tags:")+" "+strings.Join(names, ", "))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// DeletionPreview lists up to max links that are about to be deleted.
func DeletionPreview(links []domain.Link, max int) string {
	s := newStyles()
	lines := []string{s.warning.Render(fmt.Sprintf("About to delete %d link(s):", len(links)))}
	for i, link := range links {
		if i == max {
			lines = append(lines, s.detail.Render(fmt.Sprintf("  ... and %d more", len(links)-max)))
			break
		}
		lines = append(lines, fmt.Sprintf("  %s -> %s", s.link.Render(link.ShortLink), truncate(link.URL, 50)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statLine(s styles, label, value string) string {
	return s.detail.Width(10).Render(label) + s.title.Render(value)
}

func formatDate(link domain.Link) string {
	if link.CreatedAt.IsZero() {
		return "-"
	}
	return link.CreatedAt.Format("2006-01-02")
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
