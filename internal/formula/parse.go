package formula

import (
	"fmt"
	"strings"
)

// ParseError reports malformed formula text.
type ParseError struct {
	Msg   string
	Token string // offending token, if known
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse error at %q: %s", e.Token, e.Msg)
	}
	return "parse error: " + e.Msg
}

// call is the pre-conversion form of a function application used while the
// tree is still being folded.
type call struct {
	name string
	args []any
}

// Parse tokenizes and folds formula text into a term list. It is a pure
// function of its input: no template context is consulted, and name
// references come out as untouched leaf strings for the resolver.
func Parse(text string) ([]Term, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, &ParseError{Msg: "empty formula"}
	}

	nested, err := nest(tokens)
	if err != nil {
		return nil, err
	}

	folded, err := foldOperators(foldCalls(nested))
	if err != nil {
		return nil, err
	}

	terms := toTerms(folded)
	if err := rejectStrayOperators(terms); err != nil {
		return nil, err
	}
	return terms, nil
}

// singleDelims are the one-character delimiters. Two-character operators are
// matched before these.
const singleDelims = "(),+-*/><="

// tokenize splits formula text on the delimiter set, trims whitespace, and
// drops empty tokens.
func tokenize(text string) []string {
	var tokens []string
	var buf strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			tokens = append(tokens, s)
		}
		buf.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if i+1 < len(runes) {
			switch two := string(runes[i : i+2]); two {
			case ">=", "<=", "!=", "&&", "||":
				flush()
				tokens = append(tokens, two)
				i++
				continue
			}
		}
		if strings.ContainsRune(singleDelims, runes[i]) {
			flush()
			tokens = append(tokens, string(runes[i]))
			continue
		}
		buf.WriteRune(runes[i])
	}
	flush()
	return tokens
}

// nest builds the raw nested structure: "(" opens a sub-list, ")" closes it,
// "," is a separator and is dropped, everything else is a leaf.
func nest(tokens []string) ([]any, error) {
	items, pos, err := nestLevel(tokens, 0, false)
	if err != nil {
		return nil, err
	}
	if pos != len(tokens) {
		return nil, &ParseError{Msg: "unbalanced parentheses", Token: tokens[pos]}
	}
	return items, nil
}

// nestLevel consumes tokens starting at pos until the end of input (top
// level) or a closing paren (nested level). It returns the level's items and
// the cursor position after the level, threading the cursor explicitly so no
// state outlives the call.
func nestLevel(tokens []string, pos int, nested bool) ([]any, int, error) {
	items := []any{}
	for pos < len(tokens) {
		switch tok := tokens[pos]; tok {
		case "(":
			sub, next, err := nestLevel(tokens, pos+1, true)
			if err != nil {
				return nil, 0, err
			}
			items = append(items, sub)
			pos = next
		case ")":
			if !nested {
				return nil, 0, &ParseError{Msg: "unbalanced parentheses", Token: ")"}
			}
			return items, pos + 1, nil
		case ",":
			pos++
		default:
			items = append(items, tok)
			pos++
		}
	}
	if nested {
		return nil, 0, &ParseError{Msg: "missing closing parenthesis"}
	}
	return items, pos, nil
}

// foldCalls replaces every function-name leaf followed by a group with a
// single call node, recursing into groups so nested calls fold too.
func foldCalls(items []any) []any {
	out := make([]any, 0, len(items))
	for i := 0; i < len(items); i++ {
		switch it := items[i].(type) {
		case string:
			if IsFunction(it) && i+1 < len(items) {
				if group, ok := items[i+1].([]any); ok {
					out = append(out, &call{name: it, args: foldCalls(group)})
					i++
					continue
				}
			}
			out = append(out, it)
		case []any:
			out = append(out, foldCalls(it))
		default:
			out = append(out, it)
		}
	}
	return out
}

// foldOperators folds infix operators by descending precedence tier. Within
// a tier the scan is left to right: each operator combines its immediate
// neighbors into a binary call replacing all three, and scanning resumes at
// the same position, so same-tier chains fold left-nested. Folding is
// applied recursively inside call arguments and parenthesized groups first;
// a group that folds down to one node is spliced in place of the group.
func foldOperators(items []any) ([]any, error) {
	for i, it := range items {
		switch v := it.(type) {
		case *call:
			args, err := foldOperators(v.args)
			if err != nil {
				return nil, err
			}
			v.args = args
		case []any:
			folded, err := foldOperators(v)
			if err != nil {
				return nil, err
			}
			if len(folded) == 1 {
				items[i] = folded[0]
			} else {
				items[i] = folded
			}
		}
	}

	for _, tier := range operatorTiers {
		i := 1
		for i < len(items)-1 {
			tok, ok := items[i].(string)
			if !ok || !inTier(tier, tok) {
				i++
				continue
			}
			left, right := items[i-1], items[i+1]
			if isOperatorLeaf(left) || isOperatorLeaf(right) {
				return nil, &ParseError{Msg: "operator with no valid neighbor", Token: tok}
			}
			items[i-1] = &call{name: tok, args: []any{left, right}}
			items = append(items[:i], items[i+2:]...)
		}
	}
	return items, nil
}

func inTier(tier []string, tok string) bool {
	for _, op := range tier {
		if op == tok {
			return true
		}
	}
	return false
}

// isOperatorLeaf reports whether the item is a bare operator token, which
// cannot serve as an operand.
func isOperatorLeaf(item any) bool {
	s, ok := item.(string)
	return ok && IsOperator(s)
}

// toTerms converts the folded any-typed structure into typed terms.
func toTerms(items []any) []Term {
	out := make([]Term, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, Term{Leaf: v})
		case *call:
			out = append(out, Term{Call: &Call{Name: v.name, Args: toTerms(v.args)}})
		case []any:
			out = append(out, Term{List: toTerms(v)})
		}
	}
	return out
}

// rejectStrayOperators fails if an operator token survived folding as a
// leaf, which happens when an operator starts or ends an expression.
func rejectStrayOperators(terms []Term) error {
	var stray string
	WalkAll(terms, func(t Term) {
		if stray == "" && t.IsLeaf() && IsOperator(t.Leaf) {
			stray = t.Leaf
		}
	})
	if stray != "" {
		return &ParseError{Msg: "operator with no valid neighbor", Token: stray}
	}
	return nil
}
