package service

import "fmt"

// PageResult is one page of a collection plus navigation metadata.
// It is rebuilt for every change of collection, page or page size.
type PageResult[T any] struct {
	Data        []T  `json:"data"`
	Page        int  `json:"page"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
}

// Paginate returns page (1-based) of data. A page past the end yields an empty
// slice; the page is never re-clamped. Callers reset page to 1 when they change
// pageSize.
func Paginate[T any](data []T, page, pageSize int) (*PageResult[T], error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page=%d page_size=%d", ErrInvalidPage, page, pageSize)
	}

	totalItems := len(data)
	totalPages := totalItems / pageSize
	if totalItems%pageSize != 0 {
		totalPages++
	}

	// start stays below totalItems once page <= totalPages
	out := []T{}
	if page <= totalPages {
		start := (page - 1) * pageSize
		end := totalItems
		if totalItems-start > pageSize {
			end = start + pageSize
		}
		out = data[start:end:end]
	}

	return &PageResult[T]{
		Data:        out,
		Page:        page,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

// Range returns the 1-based positions of the first and last item shown, or
// 0, 0 when the page is empty
func (p *PageResult[T]) Range() (start, end int) {
	if len(p.Data) == 0 {
		return 0, 0
	}
	start = (p.Page-1)*p.PageSize + 1
	end = p.Page * p.PageSize
	if end > p.TotalItems {
		end = p.TotalItems
	}
	return start, end
}

// PageLink is one entry of a pagination bar; Ellipsis entries have no number
type PageLink struct {
	Number   int  `json:"number,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

const (
	maxPlainPages = 7
	pageDelta     = 2
)

// PageWindow lists the page buttons to show around page, collapsing long
// runs into ellipses
func PageWindow(page, totalPages int) []PageLink {
	var links []PageLink
	add := func(from, to int) {
		for i := from; i <= to; i++ {
			links = append(links, PageLink{Number: i})
		}
	}
	gap := func() {
		links = append(links, PageLink{Ellipsis: true})
	}

	switch {
	case totalPages <= maxPlainPages:
		add(1, totalPages)
	case page <= 4:
		add(1, 5)
		gap()
		add(totalPages, totalPages)
	case page >= totalPages-3:
		add(1, 1)
		gap()
		add(totalPages-4, totalPages)
	default:
		add(1, 1)
		gap()
		add(page-pageDelta, page+pageDelta)
		gap()
		add(totalPages, totalPages)
	}

	if links == nil {
		return []PageLink{}
	}
	return links
}
