package anbima

import (
	"context"
	"strconv"
)

// Page is one slice of a listing endpoint.
type Page struct {
	Content []Record `json:"content"`

	// TotalElements is nil when the API omits the field or sends null.
	TotalElements *int `json:"total_elements"`
	Size          int  `json:"size"`
	Number        int  `json:"number"`
}

// pageCount returns how many pages follow page 0, using integer division
// the way the API reports it. ok is false when the metadata cannot be used
// (zero size or missing total), in which case only page 0 is returned.
func (p *Page) pageCount() (count int, ok bool) {
	if p.Size <= 0 || p.TotalElements == nil {
		return 0, false
	}
	return *p.TotalElements / p.Size, true
}

// pageFetcher fetches a single page by index.
type pageFetcher func(ctx context.Context, page int) (*Page, error)

// collectPages fetches page 0 and then pages 1..count in order, appending
// their content. Pages are fetched strictly one at a time.
func collectPages(ctx context.Context, first *Page, fetch pageFetcher, onFallback func(p *Page)) ([]Record, error) {
	count, ok := first.pageCount()
	if !ok {
		if onFallback != nil {
			onFallback(first)
		}
		return first.Content, nil
	}

	// count comes from the server; let append grow the slice.
	records := append(make([]Record, 0, len(first.Content)), first.Content...)

	for page := 1; page <= count; page++ {
		next, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		records = append(records, next.Content...)
	}

	return records, nil
}

func pageQuery(page int) map[string]string {
	return map[string]string{"page": strconv.Itoa(page)}
}
