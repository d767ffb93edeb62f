package lexer

// Span is a half-open range of source character offsets.
type Span struct {
	Start int
	End   int
}

func (s Span) contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

var closers = map[Kind]Kind{
	RParen:   LParen,
	RBrace:   LBrace,
	RBracket: LBracket,
}

// FindBalanced tokenizes the whole input and returns the smallest balanced
// (), {} or [] group enclosing the character range [start, end). When the
// range is exactly one closing delimiter, the result runs from its matching
// opening delimiter through that closer.
func FindBalanced(input string, start, end int) (Span, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return Span{}, err
	}
	target := Span{Start: start, End: end}
	var stack []PositionedToken
	found := false
	var best Span
	for _, t := range tokens {
		switch t.Kind {
		case LParen, LBrace, LBracket:
			stack = append(stack, t)
			continue
		case RParen, RBrace, RBracket:
		default:
			continue
		}
		if len(stack) == 0 || stack[len(stack)-1].Kind != closers[t.Kind] {
			return Span{}, &LexicalError{
				Code:     CodeUnbalanced,
				Message:  "unbalanced " + t.Kind.String(),
				Position: t.Start,
			}
		}
		open := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		group := Span{Start: open.Start.Offset, End: t.End.Offset}
		if t.Start.Offset == start && t.End.Offset == end {
			return group, nil
		}
		// groups close innermost first, so the first enclosing one is minimal
		if !found && group.contains(target) {
			best, found = group, true
		}
	}
	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return Span{}, &LexicalError{
			Code:     CodeUnbalanced,
			Message:  "unclosed " + open.Kind.String(),
			Position: open.Start,
		}
	}
	if !found {
		return Span{}, &LexicalError{
			Code:    CodeNoEnclosing,
			Message: "no balanced group encloses the range",
		}
	}
	return best, nil
}
