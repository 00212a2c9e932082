package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLinks() []domain.Link {
	created := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	return []domain.Link{
		{
			ID:        "link_1",
			Domain:    "dub.sh",
			Key:       "promo",
			URL:       "https://example.com/a/very/long/destination/path/that/needs/truncating",
			ShortLink: "https://dub.sh/promo",
			Clicks:    42,
			Tags:      []domain.Tag{{ID: "t1", Name: "launch"}, {ID: "t2", Name: "q1"}},
			CreatedAt: created,
		},
		{
			ID:        "link_2",
			Domain:    "dub.sh",
			Key:       "docs",
			URL:       "https://example.com/docs",
			ShortLink: "https://dub.sh/docs",
			CreatedAt: created,
		},
	}
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]Format{"": FormatTable, "TABLE": FormatTable, "json": FormatJSON, "csv": FormatCSV, " plain ": FormatPlain} {
		got, err := ParseFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("yaml")
	require.Error(t, err)
}

func TestLinksTable(t *testing.T) {
	output, err := Links(sampleLinks(), FormatTable)
	require.NoError(t, err)

	assert.Contains(t, output, "Short Link")
	assert.Contains(t, output, "https://dub.sh/promo")
	assert.Contains(t, output, "launch, q1")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "2026-03-01")
	assert.Contains(t, output, "...")
	assert.NotContains(t, output, "needs/truncating")
}

func TestLinksTableEmpty(t *testing.T) {
	output, err := Links(nil, FormatTable)
	require.NoError(t, err)
	assert.Contains(t, output, "No links found.")

	for _, format := range []Format{FormatPlain, FormatCSV} {
		output, err := Links(nil, format)
		require.NoError(t, err)
		assert.NotContains(t, output, "No links found.")
	}
}

func TestLinksMachineFormats(t *testing.T) {
	links := sampleLinks()

	plain, err := Links(links, FormatPlain)
	require.NoError(t, err)
	assert.Equal(t, "https://dub.sh/promo\nhttps://dub.sh/docs", plain)

	csvOut, err := Links(links, FormatCSV)
	require.NoError(t, err)
	lines := strings.Split(csvOut, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "shortLink,url,key,domain,clicks,tags,createdAt", lines[0])
	assert.Equal(t, `https://dub.sh/promo,https://example.com/a/very/long/destination/path/that/needs/truncating,promo,dub.sh,42,"launch,q1",2026-03-01T14:00:00Z`, lines[1])

	jsonOut, err := Links(links, FormatJSON)
	require.NoError(t, err)
	var decoded []domain.Link
	require.NoError(t, json.Unmarshal([]byte(jsonOut), &decoded))
	assert.Len(t, decoded, 2)

	empty, err := Links(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)
}

func TestLinkStats(t *testing.T) {
	link := sampleLinks()[0]
	link.Leads = 3
	link.Sales = 2
	link.SaleAmount = 12345

	output := LinkStats(link)
	assert.Contains(t, output, "https://dub.sh/promo")
	assert.Contains(t, output, "Clicks")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "$123.45")
	assert.Contains(t, output, "Tags: launch, q1")
}

func TestDeletionPreviewCapsList(t *testing.T) {
	links := make([]domain.Link, 12)
	for i := range links {
		links[i] = domain.Link{ShortLink: "https://dub.sh/k", URL: "https://example.com"}
	}

	output := DeletionPreview(links, 10)
	assert.Contains(t, output, "About to delete 12 link(s):")
	assert.Contains(t, output, "... and 2 more")
	assert.Equal(t, 10, strings.Count(output, "https://dub.sh/k"))
}

func TestBulkSummary(t *testing.T) {
	summary := domain.BulkSummary{
		Succeeded: []domain.BulkItemResult{{Index: 0, Identifier: "a", Outcome: domain.RequestOutcome{Status: domain.OutcomeSuccess, HTTPStatus: http.StatusOK, Attempts: 1}}},
		Failed: []domain.BulkItemResult{{Index: 1, Identifier: "b", Outcome: domain.RequestOutcome{
			Status:       domain.OutcomeRateLimited,
			HTTPStatus:   http.StatusTooManyRequests,
			ErrorMessage: "Too many requests",
			Attempts:     3,
		}}},
	}

	output := BulkSummary("Deleted", summary)
	assert.Contains(t, output, "Deleted 1 of 2 link(s)")
	assert.Contains(t, output, "1 failed:")
	assert.Contains(t, output, "b: Too many requests (HTTP 429) after 3 attempts")

	raw, err := BulkSummaryJSON(summary)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "partial", decoded["status"])
	failed := decoded["failed"].([]any)
	require.Len(t, failed, 1)
	assert.Equal(t, "Too many requests", failed[0].(map[string]any)["error"])
}

func TestWorkspace(t *testing.T) {
	output := Workspace(domain.Workspace{WorkspaceName: "Acme", WorkspaceSlug: "acme", WorkspaceID: "ws_1", UserName: "Ada", Email: "ada@example.com"})
	assert.Contains(t, output, "Workspace: Acme (acme)")
	assert.Contains(t, output, "ID: ws_1")
	assert.Contains(t, output, "User: Ada <ada@example.com>")

	assert.Contains(t, Workspace(domain.Workspace{}), "no workspace details")
}

func TestRunSpinnerReturnsResult(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	err := runSpinner(context.Background(), io.Discard, "Deleting links...", 3, func(_ context.Context, progress Progress) error {
		for i := 1; i <= 3; i++ {
			progress(i, 3)
			mu.Lock()
			calls++
			mu.Unlock()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	boom := errors.New("boom")
	err = runSpinner(context.Background(), io.Discard, "Creating links...", 1, func(context.Context, Progress) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestRunWithProgressSkipsSpinnerWhenNotATerminal(t *testing.T) {
	var out bytes.Buffer
	var reported []int

	err := RunWithProgress(context.Background(), &out, "Creating links...", 2, func(_ context.Context, progress Progress) error {
		for i := 1; i <= 2; i++ {
			progress(i, 2)
			reported = append(reported, i)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, reported)
	assert.Empty(t, out.String())

	pipe, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer func() { _ = pipe.Close() }()

	boom := errors.New("boom")
	err = RunWithProgress(context.Background(), pipe, "Deleting links...", 1, func(context.Context, Progress) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	info, err := pipe.Stat()
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
