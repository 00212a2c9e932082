package csvrows

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapsColumns(t *testing.T) {
	input := strings.Join([]string{
		" URL ,Key,Domain,Tags,utm_source,ExternalId,comments",
		"https://example.com/a,a,dub.sh,launch|promo,newsletter,ext-1,first",
		"https://example.com/b,,,,,,",
	}, "\n")

	result, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, Row{
		Number: 2,
		Request: domain.CreateLinkRequest{
			URL:        "https://example.com/a",
			Key:        "a",
			Domain:     "dub.sh",
			ExternalID: "ext-1",
			TagNames:   []string{"launch", "promo"},
			Comments:   "first",
			UTMSource:  "newsletter",
		},
	}, result.Rows[0])
	assert.Equal(t, domain.CreateLinkRequest{URL: "https://example.com/b"}, result.Rows[1].Request)
	assert.Equal(t, 3, result.Rows[1].Number)
}

func TestParseAcceptsTagAndExternalIDAliases(t *testing.T) {
	input := "url,tag,external_id\nhttps://example.com,\"a, b\",ext-9\n"

	result, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []string{"a", "b"}, result.Rows[0].Request.TagNames)
	assert.Equal(t, "ext-9", result.Rows[0].Request.ExternalID)
}

func TestParseKeepsInvalidRowsWithLineNumbers(t *testing.T) {
	input := "url,key\nhttps://ok.example,ok\nnot-a-url,bad\n,empty\n\nhttp://ok2.example,ok2\n"

	result, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	invalid := result.Invalid()
	require.Len(t, invalid, 2)
	assert.Equal(t, 3, invalid[0].Number)
	assert.Contains(t, invalid[0].Err.Error(), "must start with http:// or https://")
	assert.Equal(t, 4, invalid[1].Number)
	assert.EqualError(t, invalid[1].Err, "url is required")

	requests := result.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, 6, result.Valid()[1].Number)
	assert.Equal(t, "ok", requests[0].Key)
	assert.Equal(t, "ok2", requests[1].Key)
}

func TestParseRejectsHeaderWithoutURL(t *testing.T) {
	_, err := Parse(strings.NewReader("key,domain\na,dub.sh\n"))
	require.ErrorIs(t, err, ErrMissingURLColumn)
}

func TestParseRejectsEmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffurl\nhttps://example.com\n"), 0o600))

	result, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, result.Valid(), 1)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, SplitTags(""))
	assert.Nil(t, SplitTags(" , | "))
	assert.Equal(t, []string{"a", "b", "c"}, SplitTags("a, b|c"))
}
