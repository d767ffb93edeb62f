package algebra

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// PropertyPath is a SPARQL property path expression.
//
// This is a sealed interface. A path is one of Link, Inverse, NegatedSet,
// Alternative, Sequence, OneOrMore, ZeroOrMore or ZeroOrOne. Paths are
// totally ordered by ComparePaths and round-trip through MarshalPath and
// UnmarshalPath.
type PropertyPath interface {
	pathNode()
}

// Link is a single predicate IRI.
type Link struct {
	IRI string
}

// Inverse traverses Path from object to subject.
type Inverse struct {
	Path PropertyPath
}

// NegatedSet matches any predicate not in IRIs.
type NegatedSet struct {
	IRIs []string
}

// Alternative matches either branch.
type Alternative struct {
	Left  PropertyPath
	Right PropertyPath
}

// Sequence matches Left followed by Right.
type Sequence struct {
	Left  PropertyPath
	Right PropertyPath
}

// OneOrMore is Path+.
type OneOrMore struct {
	Path PropertyPath
}

// ZeroOrMore is Path*.
type ZeroOrMore struct {
	Path PropertyPath
}

// ZeroOrOne is Path?.
type ZeroOrOne struct {
	Path PropertyPath
}

func (Link) pathNode()        {}
func (Inverse) pathNode()     {}
func (NegatedSet) pathNode()  {}
func (Alternative) pathNode() {}
func (Sequence) pathNode()    {}
func (OneOrMore) pathNode()   {}
func (ZeroOrMore) pathNode()  {}
func (ZeroOrOne) pathNode()   {}

// pathTag returns the codec tag of p. Tags also fix the variant order used
// by ComparePaths.
func pathTag(p PropertyPath) string {
	switch p.(type) {
	case Link:
		return "link"
	case Inverse:
		return "inv"
	case NegatedSet:
		return "nps"
	case Alternative:
		return "alt"
	case Sequence:
		return "seq"
	case OneOrMore:
		return "plus"
	case ZeroOrMore:
		return "star"
	case ZeroOrOne:
		return "zeroOrOne"
	default:
		panic(fmt.Sprintf("algebra: unknown property path %T", p))
	}
}

var pathRank = map[string]int{
	"link": 0, "inv": 1, "nps": 2, "alt": 3, "seq": 4, "plus": 5, "star": 6, "zeroOrOne": 7,
}

// ComparePaths orders paths by variant, then by their components.
func ComparePaths(a, b PropertyPath) int {
	ra, rb := pathRank[pathTag(a)], pathRank[pathTag(b)]
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch a := a.(type) {
	case Link:
		return strings.Compare(a.IRI, b.(Link).IRI)
	case NegatedSet:
		return slices.Compare(a.IRIs, b.(NegatedSet).IRIs)
	case Alternative:
		bb := b.(Alternative)
		if c := ComparePaths(a.Left, bb.Left); c != 0 {
			return c
		}
		return ComparePaths(a.Right, bb.Right)
	case Sequence:
		bb := b.(Sequence)
		if c := ComparePaths(a.Left, bb.Left); c != 0 {
			return c
		}
		return ComparePaths(a.Right, bb.Right)
	}
	return ComparePaths(unaryChild(a), unaryChild(b))
}

func unaryChild(p PropertyPath) PropertyPath {
	switch p := p.(type) {
	case Inverse:
		return p.Path
	case OneOrMore:
		return p.Path
	case ZeroOrMore:
		return p.Path
	case ZeroOrOne:
		return p.Path
	}
	return nil
}

// PathIRIs returns every IRI mentioned in p, in traversal order.
func PathIRIs(p PropertyPath) []string {
	switch p := p.(type) {
	case Link:
		return []string{p.IRI}
	case NegatedSet:
		return slices.Clone(p.IRIs)
	case Alternative:
		return append(PathIRIs(p.Left), PathIRIs(p.Right)...)
	case Sequence:
		return append(PathIRIs(p.Left), PathIRIs(p.Right)...)
	default:
		return PathIRIs(unaryChild(p))
	}
}

// pathJSON is the tagged structured form of a path.
type pathJSON struct {
	Type string    `json:"type"`
	IRI  string    `json:"iri,omitempty"`
	IRIs []string  `json:"iris,omitempty"`
	Path *pathJSON `json:"path,omitempty"`
	LHS  *pathJSON `json:"lhs,omitempty"`
	RHS  *pathJSON `json:"rhs,omitempty"`
}

func toPathJSON(p PropertyPath) *pathJSON {
	out := &pathJSON{Type: pathTag(p)}
	switch p := p.(type) {
	case Link:
		out.IRI = p.IRI
	case NegatedSet:
		out.IRIs = p.IRIs
	case Alternative:
		out.LHS, out.RHS = toPathJSON(p.Left), toPathJSON(p.Right)
	case Sequence:
		out.LHS, out.RHS = toPathJSON(p.Left), toPathJSON(p.Right)
	default:
		out.Path = toPathJSON(unaryChild(p))
	}
	return out
}

func fromPathJSON(j *pathJSON) (PropertyPath, error) {
	if j == nil {
		return nil, fmt.Errorf("missing property path")
	}
	binary := func() (PropertyPath, PropertyPath, error) {
		l, err := fromPathJSON(j.LHS)
		if err != nil {
			return nil, nil, err
		}
		r, err := fromPathJSON(j.RHS)
		return l, r, err
	}
	switch j.Type {
	case "link":
		if j.IRI == "" {
			return nil, fmt.Errorf("link path without iri")
		}
		return Link{IRI: j.IRI}, nil
	case "nps":
		return NegatedSet{IRIs: j.IRIs}, nil
	case "alt":
		l, r, err := binary()
		if err != nil {
			return nil, err
		}
		return Alternative{Left: l, Right: r}, nil
	case "seq":
		l, r, err := binary()
		if err != nil {
			return nil, err
		}
		return Sequence{Left: l, Right: r}, nil
	case "inv", "plus", "star", "zeroOrOne":
		inner, err := fromPathJSON(j.Path)
		if err != nil {
			return nil, err
		}
		switch j.Type {
		case "inv":
			return Inverse{Path: inner}, nil
		case "plus":
			return OneOrMore{Path: inner}, nil
		case "star":
			return ZeroOrMore{Path: inner}, nil
		default:
			return ZeroOrOne{Path: inner}, nil
		}
	default:
		return nil, fmt.Errorf("unknown property path type %q", j.Type)
	}
}

// MarshalPath encodes p in its tagged JSON form.
func MarshalPath(p PropertyPath) ([]byte, error) {
	return json.Marshal(toPathJSON(p))
}

// UnmarshalPath decodes a path produced by MarshalPath.
func UnmarshalPath(data []byte) (PropertyPath, error) {
	var j pathJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("decode property path: %w", err)
	}
	p, err := fromPathJSON(&j)
	if err != nil {
		return nil, fmt.Errorf("decode property path: %w", err)
	}
	return p, nil
}
