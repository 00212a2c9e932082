package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type Link struct {
	ID          string     `json:"id"`
	Domain      string     `json:"domain"`
	Key         string     `json:"key"`
	URL         string     `json:"url"`
	ShortLink   string     `json:"shortLink"`
	ExternalID  string     `json:"externalId,omitempty"`
	Archived    bool       `json:"archived,omitempty"`
	Comments    string     `json:"comments,omitempty"`
	Clicks      int64      `json:"clicks"`
	Leads       int64      `json:"leads"`
	Sales       int64      `json:"sales"`
	SaleAmount  int64      `json:"saleAmount"`
	Tags        []Tag      `json:"tags,omitempty"`
	LastClicked *time.Time `json:"lastClicked,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	UTMSource   string     `json:"utm_source,omitempty"`
	UTMMedium   string     `json:"utm_medium,omitempty"`
	UTMCampaign string     `json:"utm_campaign,omitempty"`
	UTMTerm     string     `json:"utm_term,omitempty"`
	UTMContent  string     `json:"utm_content,omitempty"`
}

func (l Link) TagNames() []string {
	names := make([]string, 0, len(l.Tags))
	for _, tag := range l.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// CreateLinkRequest is the body of POST /links. UTM values are sent as-is.
type CreateLinkRequest struct {
	URL         string   `json:"url"`
	Key         string   `json:"key,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	ExternalID  string   `json:"externalId,omitempty"`
	TagNames    []string `json:"tagNames,omitempty"`
	Comments    string   `json:"comments,omitempty"`
	UTMSource   string   `json:"utm_source,omitempty"`
	UTMMedium   string   `json:"utm_medium,omitempty"`
	UTMCampaign string   `json:"utm_campaign,omitempty"`
	UTMTerm     string   `json:"utm_term,omitempty"`
	UTMContent  string   `json:"utm_content,omitempty"`
}

func (r CreateLinkRequest) Validate() error {
	url := strings.TrimSpace(r.URL)
	if url == "" {
		return errors.New("url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("invalid url %q: must start with http:// or https://", url)
	}
	return nil
}

// Identifier names the item in bulk reports.
func (r CreateLinkRequest) Identifier() string {
	if r.Key != "" {
		if r.Domain != "" {
			return r.Domain + "/" + r.Key
		}
		return r.Key
	}
	return r.URL
}

var linkIDPrefixes = []string{"clx", "link_", "ext_"}

// LooksLikeLinkID reports whether ref is a link ID rather than a short key.
func LooksLikeLinkID(ref string) bool {
	for _, prefix := range linkIDPrefixes {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}

type LinkSort string

const (
	SortCreatedAt LinkSort = "createdAt"
	SortClicks    LinkSort = "clicks"
	SortUpdatedAt LinkSort = "updatedAt"
)

func (s LinkSort) Valid() bool {
	switch s {
	case SortCreatedAt, SortClicks, SortUpdatedAt:
		return true
	default:
		return false
	}
}

type ListLinksFilter struct {
	Domain string
	Tags   []string
	Search string
	Sort   LinkSort
	Limit  int
}
