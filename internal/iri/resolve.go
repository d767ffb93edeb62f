// Package iri resolves IRI references against a base IRI (RFC 3986 §5.2).
package iri

import (
	"fmt"
	"regexp"
	"strings"
)

// referencePattern is the component splitter from RFC 3986 Appendix B.
var referencePattern = regexp.MustCompile(`^(?:([^:/?#]+):)?(?://([^/?#]*))?([^?#]*)(?:\?([^#]*))?(?:#(.*))?$`)

// ResolveError reports an IRI that could not be resolved.
type ResolveError struct {
	Reference string
	Base      string
	Message   string
}

func (e *ResolveError) Error() string {
	if e.Base != "" {
		return fmt.Sprintf("cannot resolve <%s> against <%s>: %s", e.Reference, e.Base, e.Message)
	}
	return fmt.Sprintf("cannot resolve <%s>: %s", e.Reference, e.Message)
}

type components struct {
	scheme, authority, path, query, fragment string
	hasAuthority, hasQuery, hasFragment      bool
}

func split(s string) (components, bool) {
	m := referencePattern.FindStringSubmatchIndex(s)
	if m == nil {
		return components{}, false
	}
	get := func(i int) (string, bool) {
		if m[2*i] < 0 {
			return "", false
		}
		return s[m[2*i]:m[2*i+1]], true
	}
	var c components
	c.scheme, _ = get(1)
	c.authority, c.hasAuthority = get(2)
	c.path, _ = get(3)
	c.query, c.hasQuery = get(4)
	c.fragment, c.hasFragment = get(5)
	return c, true
}

func (c components) String() string {
	var b strings.Builder
	if c.scheme != "" {
		b.WriteString(c.scheme)
		b.WriteByte(':')
	}
	if c.hasAuthority {
		b.WriteString("//")
		b.WriteString(c.authority)
	}
	b.WriteString(c.path)
	if c.hasQuery {
		b.WriteByte('?')
		b.WriteString(c.query)
	}
	if c.hasFragment {
		b.WriteByte('#')
		b.WriteString(c.fragment)
	}
	return b.String()
}

// IsAbsolute reports whether s carries a scheme.
func IsAbsolute(s string) bool {
	c, ok := split(s)
	return ok && c.scheme != ""
}

// Resolve resolves ref against base.
//
// An empty base leaves ref untouched, so relative references survive
// when no base IRI is in effect. A base without a scheme is an error.
func Resolve(ref, base string) (string, error) {
	r, ok := split(ref)
	if !ok {
		return "", &ResolveError{Reference: ref, Base: base, Message: "malformed IRI reference"}
	}
	if r.scheme != "" {
		r.path = removeDotSegments(r.path)
		return r.String(), nil
	}
	if base == "" {
		return ref, nil
	}
	b, ok := split(base)
	if !ok || b.scheme == "" {
		return "", &ResolveError{Reference: ref, Base: base, Message: "base IRI is not absolute"}
	}

	var t components
	t.scheme = b.scheme
	t.query, t.hasQuery = r.query, r.hasQuery
	t.fragment, t.hasFragment = r.fragment, r.hasFragment

	switch {
	case r.hasAuthority:
		t.authority, t.hasAuthority = r.authority, true
		t.path = removeDotSegments(r.path)
	case r.path == "":
		t.authority, t.hasAuthority = b.authority, b.hasAuthority
		t.path = b.path
		if !r.hasQuery {
			t.query, t.hasQuery = b.query, b.hasQuery
		}
	case strings.HasPrefix(r.path, "/"):
		t.authority, t.hasAuthority = b.authority, b.hasAuthority
		t.path = removeDotSegments(r.path)
	default:
		t.authority, t.hasAuthority = b.authority, b.hasAuthority
		t.path = removeDotSegments(merge(b, r.path))
	}
	return t.String(), nil
}

// merge implements RFC 3986 §5.2.3.
func merge(base components, ref string) string {
	if base.hasAuthority && base.path == "" {
		return "/" + ref
	}
	i := strings.LastIndexByte(base.path, '/')
	if i < 0 {
		return ref
	}
	return base.path[:i+1] + ref
}

// removeDotSegments implements RFC 3986 §5.2.4.
func removeDotSegments(path string) string {
	in := path
	var out []string
	for in != "" {
		switch {
		case strings.HasPrefix(in, "../"):
			in = in[3:]
		case strings.HasPrefix(in, "./"):
			in = in[2:]
		case strings.HasPrefix(in, "/./"):
			in = in[2:]
		case in == "/.":
			in = "/"
		case strings.HasPrefix(in, "/../"):
			in = in[3:]
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case in == "/..":
			in = "/"
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case in == "." || in == "..":
			in = ""
		default:
			start := 0
			if in[0] == '/' {
				start = 1
			}
			end := strings.IndexByte(in[start:], '/')
			if end < 0 {
				end = len(in)
			} else {
				end += start
			}
			out = append(out, in[:end])
			in = in[end:]
		}
	}
	return strings.Join(out, "")
}
