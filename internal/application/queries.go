package application

import "github.com/bnema/dubco-cli/internal/domain"

type ResolveLinksQuery struct {
	Refs   []string
	Domain string
}

type ResolvedLinks struct {
	Found   []domain.Link
	Missing []string
}

func (r ResolvedLinks) TotalClicks() int64 {
	var total int64
	for _, link := range r.Found {
		total += link.Clicks
	}
	return total
}
