package console

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// BulkSummary renders the per-item report of a bulk run. verb is the past
// tense action, e.g. "Created".
func BulkSummary(verb string, summary domain.BulkSummary) string {
	s := newStyles()

	headline := fmt.Sprintf("%s %d of %d link(s)", verb, len(summary.Succeeded), summary.Total())
	var lines []string
	switch summary.Status() {
	case domain.BatchSucceeded:
		lines = append(lines, s.success.Render(headline))
	case domain.BatchPartial:
		lines = append(lines, s.warning.Render(headline))
	default:
		lines = append(lines, s.failure.Render(headline))
	}

	if len(summary.Failed) > 0 {
		lines = append(lines, s.failure.Render(fmt.Sprintf("%d failed:", len(summary.Failed))))
		for _, result := range summary.Failed {
			lines = append(lines, fmt.Sprintf("  %s: %s", result.Identifier, failureReason(result.Outcome)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

type bulkItemJSON struct {
	Index      int    `json:"index"`
	Identifier string `json:"identifier"`
	Status     string `json:"status"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
}

type bulkSummaryJSON struct {
	Status    domain.BatchStatus `json:"status"`
	Succeeded []bulkItemJSON     `json:"succeeded"`
	Failed    []bulkItemJSON     `json:"failed"`
}

func BulkSummaryJSON(summary domain.BulkSummary) (string, error) {
	payload := bulkSummaryJSON{
		Status:    summary.Status(),
		Succeeded: toItemsJSON(summary.Succeeded),
		Failed:    toItemsJSON(summary.Failed),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode bulk summary: %w", err)
	}
	return string(data), nil
}

func toItemsJSON(results []domain.BulkItemResult) []bulkItemJSON {
	items := make([]bulkItemJSON, 0, len(results))
	for _, result := range results {
		item := bulkItemJSON{
			Index:      result.Index,
			Identifier: result.Identifier,
			Status:     string(result.Outcome.Status),
			HTTPStatus: result.Outcome.HTTPStatus,
			Attempts:   result.Outcome.Attempts,
		}
		if !result.Outcome.OK() {
			item.Error = result.Outcome.Message()
		}
		items = append(items, item)
	}
	return items
}

func failureReason(outcome domain.RequestOutcome) string {
	reason := outcome.Message()
	if outcome.HTTPStatus != 0 {
		reason = fmt.Sprintf("%s (HTTP %d)", reason, outcome.HTTPStatus)
	}
	if outcome.Attempts > 1 {
		reason = fmt.Sprintf("%s after %d attempts", reason, outcome.Attempts)
	}
	return reason
}

func Workspace(ws domain.Workspace) string {
	s := newStyles()

	var lines []string
	name := ws.WorkspaceName
	if name == "" {
		name = ws.WorkspaceSlug
	}
	if name != "" {
		title := "Workspace: " + name
		if ws.WorkspaceSlug != "" && ws.WorkspaceSlug != name {
			title += " (" + ws.WorkspaceSlug + ")"
		}
		lines = append(lines, s.title.Render(title))
	}
	if ws.WorkspaceID != "" {
		lines = append(lines, s.detail.Render("ID: "+ws.WorkspaceID))
	}
	switch {
	case ws.UserName != "" && ws.Email != "":
		lines = append(lines, fmt.Sprintf("User: %s <%s>", ws.UserName, ws.Email))
	case ws.Email != "":
		lines = append(lines, "User: "+ws.Email)
	case ws.UserName != "":
		lines = append(lines, "User: "+ws.UserName)
	}
	if len(lines) == 0 {
		return s.empty.Render("Authenticated (no workspace details returned).")
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
