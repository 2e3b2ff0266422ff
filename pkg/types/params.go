package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Reserved parameter keys. Any other key is a field filter.
const (
	ParamOrder        = "order"
	ParamWhere        = "where"
	ParamLimit        = "limit"
	ParamOffset       = "offset"
	ParamPage         = "page"
	ParamPaging       = "paging"
	ParamFilter       = "filter"
	ParamReturnSingle = "returnsingle"
)

// RequestContext supplies values from the surrounding request, such as the
// page number or order taken from a query string.
type RequestContext interface {
	// Page returns the requested page for the listing of contentType.
	Page(contentType string) (int, bool)
	// Order returns the order requested by the caller's query string.
	Order() (string, bool)
}

// Params is the generic parameter set of a content query.
type Params struct {
	Order        string
	Where        map[string]string
	Limit        int
	Offset       int
	Page         int
	Paging       bool
	Filter       string
	ReturnSingle bool
	Request      RequestContext
}

// ParamsFromMap parses a flat string mapping into Params. Reserved keys set
// the matching option; every other key becomes a filter. A "where" value is
// read as comma-separated key=value pairs.
func ParamsFromMap(m map[string]string) (Params, error) {
	p := Params{Where: make(map[string]string)}
	for key, val := range m {
		switch key {
		case ParamOrder:
			p.Order = val
		case ParamFilter:
			p.Filter = val
		case ParamLimit, ParamOffset, ParamPage:
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil || n < 0 {
				return Params{}, fmt.Errorf("parameter %s: invalid number %q", key, val)
			}
			switch key {
			case ParamLimit:
				p.Limit = n
			case ParamOffset:
				p.Offset = n
			default:
				p.Page = n
			}
		case ParamPaging:
			p.Paging = parseBool(val)
		case ParamReturnSingle:
			p.ReturnSingle = parseBool(val)
		case ParamWhere:
			for _, pair := range strings.Split(val, ",") {
				k, v, ok := strings.Cut(pair, "=")
				if !ok {
					return Params{}, fmt.Errorf("parameter where: malformed pair %q", pair)
				}
				p.Where[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		default:
			p.Where[key] = val
		}
	}
	return p, nil
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// Pager describes one window of a paginated listing.
type Pager struct {
	For         string `json:"for"`
	Count       int    `json:"count"`
	TotalPages  int    `json:"totalpages"`
	Current     int    `json:"current"`
	ShowingFrom int    `json:"showing_from"`
	ShowingTo   int    `json:"showing_to"`
}

// NewPager computes the pager for a window of size limit starting at offset
// over count matching records.
func NewPager(forSlug string, count, limit, offset int) Pager {
	p := Pager{For: forSlug, Count: count, Current: 1}
	if limit <= 0 {
		limit = DefaultListingRecords
	}
	p.TotalPages = (count + limit - 1) / limit
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	p.Current = offset/limit + 1
	if count == 0 || offset >= count {
		return p
	}
	p.ShowingFrom = offset + 1
	p.ShowingTo = offset + limit
	if p.ShowingTo > count {
		p.ShowingTo = count
	}
	return p
}
