// Package query turns a content type slug and a generic parameter set into
// bound SELECT and COUNT statements.
package query

import (
	"strconv"
	"strings"
)

// Shortcut is the parsed form of a combined request slug such as
// "entry/12", "page/about-us" or "entry/latest/5".
type Shortcut struct {
	ContentType string
	ID          int64
	Slug        string
	Order       string
	Random      bool
	Limit       int
	Single      bool
}

// Listing shortcut keywords.
const (
	shortcutLatest = "latest"
	shortcutFirst  = "first"
	shortcutRandom = "random"
)

// ParseShortcut splits a combined slug. Anything it does not recognize
// after the content type is treated as a record slug.
func ParseShortcut(s string) Shortcut {
	s = strings.Trim(strings.TrimSpace(s), "/")
	name, rest, ok := strings.Cut(s, "/")
	sc := Shortcut{ContentType: name}
	if !ok || rest == "" {
		return sc
	}

	if kw, n, ok := strings.Cut(rest, "/"); ok {
		if limit, err := strconv.Atoi(n); err == nil && limit > 0 {
			switch kw {
			case shortcutLatest:
				sc.Order, sc.Limit = "-datecreated", limit
				return sc
			case shortcutFirst:
				sc.Order, sc.Limit = "datecreated", limit
				return sc
			case shortcutRandom:
				sc.Random, sc.Limit = true, limit
				return sc
			}
		}
	}

	if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
		sc.ID = id
	} else {
		sc.Slug = rest
	}
	sc.Single = true
	return sc
}
