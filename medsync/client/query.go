package client

import (
	"fmt"
	"net/url"
	"strconv"
)

// SearchParams is an insertion-ordered set of search filters. url.Values
// cannot be used to build the query string because Encode sorts keys; FHIR
// servers do not care, but callers and request logs expect filters in the
// order they were supplied.
type SearchParams struct {
	keys   []string
	values map[string]string
}

func NewSearchParams() *SearchParams {
	return &SearchParams{values: make(map[string]string)}
}

// Add records a filter. Unset values are dropped entirely: nil, the empty
// string, and numeric zero (the "no count" sentinel on _count) never reach
// the wire. Adding an existing key overwrites its value in place.
func (p *SearchParams) Add(key string, value interface{}) *SearchParams {
	var s string
	switch v := value.(type) {
	case nil:
		return p
	case string:
		if v == "" {
			return p
		}
		s = v
	case int:
		if v == 0 {
			return p
		}
		s = strconv.Itoa(v)
	case int64:
		if v == 0 {
			return p
		}
		s = strconv.FormatInt(v, 10)
	case uint:
		if v == 0 {
			return p
		}
		s = strconv.FormatUint(uint64(v), 10)
	case float64:
		if v == 0 {
			return p
		}
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = fmt.Sprint(v)
	}

	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = s
	return p
}

// Has reports whether key carries a value.
func (p *SearchParams) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p.values[key]
	return ok
}

// Len returns the number of filters that will be encoded.
func (p *SearchParams) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Clone returns an independent copy. Clone of nil is an empty set.
func (p *SearchParams) Clone() *SearchParams {
	dup := NewSearchParams()
	if p == nil {
		return dup
	}
	dup.keys = append(dup.keys, p.keys...)
	for k, v := range p.values {
		dup.values[k] = v
	}
	return dup
}

// Encode renders the query string in insertion order with standard
// form-encoding (spaces as "+"). An empty or nil set encodes to "".
func (p *SearchParams) Encode() string {
	if p == nil || len(p.keys) == 0 {
		return ""
	}
	buf := make([]byte, 0, 64)
	for i, k := range p.keys {
		if i > 0 {
			buf = append(buf, '&')
		}
		buf = append(buf, url.QueryEscape(k)...)
		buf = append(buf, '=')
		buf = append(buf, url.QueryEscape(p.values[k])...)
	}
	return string(buf)
}
