// Package paginator slices ordered result sets into fixed-size, 1-based pages.
package paginator

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// PerPage is the page size used by every post listing.
const PerPage = 10

// Source is a lazy ordered sequence. Slice must honour the same ordering on
// every call.
type Source[T any] interface {
	Count(ctx context.Context) (int64, error)
	Slice(ctx context.Context, offset, limit int) ([]T, error)
}

// Page is one page of a sequence.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

func (p *Page[T]) HasPrevious() bool   { return p.Number > 1 }
func (p *Page[T]) HasNext() bool       { return p.Number < p.NumPages }
func (p *Page[T]) HasOtherPages() bool { return p.HasPrevious() || p.HasNext() }

func (p *Page[T]) PreviousPageNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

func (p *Page[T]) NextPageNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

// PageRange lists every page number, for rendering page links.
func (p *Page[T]) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Len is the number of items on this page.
func (p *Page[T]) Len() int { return len(p.Items) }

// NumPages returns how many pages count items fill. An empty sequence still
// has one (empty) page.
func NumPages(count int64, perPage int) int {
	if perPage <= 0 {
		perPage = PerPage
	}
	if count <= 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// Resolve maps the raw "page" request value onto a valid page number.
// Missing or non-numeric values give page 1; values out of range (past the
// end, or below 1) give the last page.
func Resolve(raw string, numPages int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return numPages
	}
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// Paginate fetches exactly one page of src.
func Paginate[T any](ctx context.Context, src Source[T], perPage int, raw string) (*Page[T], error) {
	if perPage <= 0 {
		perPage = PerPage
	}
	count, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}
	numPages := NumPages(count, perPage)
	number := Resolve(raw, numPages)

	page := &Page[T]{
		Number:   number,
		NumPages: numPages,
		Count:    count,
		PerPage:  perPage,
	}
	if count == 0 {
		page.Items = []T{}
		return page, nil
	}

	items, err := src.Slice(ctx, (number-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}
	page.Items = items
	return page, nil
}

// SliceSource adapts an in-memory, already ordered slice.
type SliceSource[T any] []T

func (s SliceSource[T]) Count(context.Context) (int64, error) { return int64(len(s)), nil }

func (s SliceSource[T]) Slice(_ context.Context, offset, limit int) ([]T, error) {
	if offset >= len(s) {
		return []T{}, nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end], nil
}
