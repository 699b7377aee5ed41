package service

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JairPrada/radarcol-tfm/model"
)

const (
	// MinTitleLength is the shortest title_contains value sent to the API
	MinTitleLength = 3
	// MaxLimit caps the number of contracts requested in one call
	MaxLimit = 100
)

// Query parameter names understood by the contracts endpoint, in canonical order
const (
	ParamLimit         = "limit"
	ParamDateFrom      = "date_from"
	ParamDateTo        = "date_to"
	ParamMinAmount     = "min_amount"
	ParamMaxAmount     = "max_amount"
	ParamTitleContains = "title_contains"
	ParamContractID    = "contract_id"
)

// Query is an ordered list of query parameters. Encode always yields the same
// string for the same filters so it can key caches.
type Query struct {
	keys   []string
	values url.Values
}

func (q *Query) add(key, value string) {
	if q.values == nil {
		q.values = url.Values{}
	}
	q.keys = append(q.keys, key)
	q.values.Set(key, value)
}

// Get returns the value of key, or "" when absent
func (q *Query) Get(key string) string {
	return q.values.Get(key)
}

// Has reports whether key is present
func (q *Query) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

// Len returns the number of parameters
func (q *Query) Len() int {
	return len(q.keys)
}

// Values returns a copy of the parameters
func (q *Query) Values() url.Values {
	out := url.Values{}
	for k, v := range q.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Encode returns the parameters in canonical order, without a leading "?"
func (q *Query) Encode() string {
	var b strings.Builder
	for i, k := range q.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(q.values.Get(k)))
	}
	return b.String()
}

// BuildQuery turns sparse filters and an optional result cap into query parameters.
// Inactive filters are dropped silently; filters may be nil.
func BuildQuery(filters *model.FilterCriteria, limit *int) *Query {
	q := &Query{}

	if limit != nil {
		q.add(ParamLimit, strconv.Itoa(clamp(*limit, 1, MaxLimit)))
	}

	if filters == nil {
		return q
	}

	if v := nonEmpty(filters.DateFrom); v != "" {
		q.add(ParamDateFrom, v)
	}
	if v := nonEmpty(filters.DateTo); v != "" {
		q.add(ParamDateTo, v)
	}
	if filters.MinAmount != nil && *filters.MinAmount >= 0 {
		q.add(ParamMinAmount, strconv.FormatInt(*filters.MinAmount, 10))
	}
	if filters.MaxAmount != nil && *filters.MaxAmount >= 0 {
		q.add(ParamMaxAmount, strconv.FormatInt(*filters.MaxAmount, 10))
	}
	if filters.TitleContains != nil && utf8.RuneCountInString(*filters.TitleContains) >= MinTitleLength {
		q.add(ParamTitleContains, *filters.TitleContains)
	}
	if v := nonEmpty(filters.ContractID); v != "" {
		q.add(ParamContractID, v)
	}

	return q
}

func nonEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
