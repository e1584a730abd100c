package eval

import (
	"fmt"
	"strings"

	"github.com/trellishq/trellis/internal/formula"
)

// canonical maps operator call keys to the named function they alias, so the
// dispatch table below only deals in names.
var canonical = map[string]string{
	"+":  formula.FnSum,
	"-":  formula.FnDifference,
	"*":  formula.FnProduct,
	"/":  formula.FnQuotient,
	"&&": formula.FnAnd,
	"||": formula.FnOr,
}

// apply executes a named function over already-gathered argument values.
// LOOKUP never reaches here; it is a special form handled by the evaluator
// because its reference arguments must not be fanned out.
func apply(name string, args []any) (any, error) {
	if alias, ok := canonical[name]; ok {
		name = alias
	}

	switch name {
	case formula.FnSum:
		total := 0.0
		for _, a := range args {
			n, err := toNumber(a)
			if err != nil {
				return nil, err
			}
			total += n
		}
		return total, nil

	case formula.FnDifference:
		a, b, err := numericPair(name, args)
		if err != nil {
			return nil, err
		}
		return a - b, nil

	case formula.FnProduct:
		product := 1.0
		for _, a := range args {
			n, err := toNumber(a)
			if err != nil {
				return nil, err
			}
			product *= n
		}
		return product, nil

	case formula.FnQuotient:
		a, b, err := numericPair(name, args)
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, fmt.Errorf("QUOTIENT: division by zero")
		}
		return a / b, nil

	case formula.FnMin:
		return fold(name, args, func(best, n float64) bool { return n < best })

	case formula.FnMax:
		return fold(name, args, func(best, n float64) bool { return n > best })

	case formula.FnMean:
		if len(args) == 0 {
			return nil, fmt.Errorf("MEAN of no values")
		}
		total := 0.0
		for _, a := range args {
			n, err := toNumber(a)
			if err != nil {
				return nil, err
			}
			total += n
		}
		return total / float64(len(args)), nil

	case formula.FnCount:
		return float64(len(args)), nil

	case formula.FnIf:
		if len(args) != 3 {
			return nil, fmt.Errorf("IF wants 3 arguments, got %d", len(args))
		}
		cond, err := toBool(args[0])
		if err != nil {
			return nil, err
		}
		if cond {
			return args[1], nil
		}
		return args[2], nil

	case formula.FnAnd:
		for _, a := range args {
			b, err := toBool(a)
			if err != nil {
				return nil, err
			}
			if !b {
				return false, nil
			}
		}
		return true, nil

	case formula.FnOr:
		for _, a := range args {
			b, err := toBool(a)
			if err != nil {
				return nil, err
			}
			if b {
				return true, nil
			}
		}
		return false, nil

	case formula.FnNot:
		if len(args) != 1 {
			return nil, fmt.Errorf("NOT wants 1 argument, got %d", len(args))
		}
		b, err := toBool(args[0])
		if err != nil {
			return nil, err
		}
		return !b, nil

	case formula.FnConcatenate:
		var b strings.Builder
		for _, a := range args {
			s, err := toString(a)
			if err != nil {
				return nil, err
			}
			b.WriteString(s)
		}
		return b.String(), nil

	case formula.FnContains, formula.FnNotContains:
		needle, haystack, err := textPair(name, args)
		if err != nil {
			return nil, err
		}
		found := strings.Contains(haystack, needle)
		if name == formula.FnNotContains {
			return !found, nil
		}
		return found, nil

	case ">", "<", ">=", "<=", "=", "!=":
		if len(args) != 2 {
			return nil, fmt.Errorf("%s wants 2 arguments, got %d", name, len(args))
		}
		cmp, err := compareValues(args[0], args[1])
		if err != nil {
			return nil, err
		}
		switch name {
		case ">":
			return cmp > 0, nil
		case "<":
			return cmp < 0, nil
		case ">=":
			return cmp >= 0, nil
		case "<=":
			return cmp <= 0, nil
		case "=":
			return cmp == 0, nil
		default:
			return cmp != 0, nil
		}

	default:
		return nil, fmt.Errorf("unknown function %q", name)
	}
}

// numericPair enforces the two-argument shape of the binary arithmetic
// functions.
func numericPair(name string, args []any) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%s wants 2 arguments, got %d", name, len(args))
	}
	a, err := toNumber(args[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := toNumber(args[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func textPair(name string, args []any) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("%s wants 2 arguments, got %d", name, len(args))
	}
	a, err := toString(args[0])
	if err != nil {
		return "", "", err
	}
	b, err := toString(args[1])
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

// fold reduces a non-empty numeric argument list with the given selection
// rule.
func fold(name string, args []any, better func(best, n float64) bool) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s of no values", name)
	}
	best, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		n, err := toNumber(a)
		if err != nil {
			return nil, err
		}
		if better(best, n) {
			best = n
		}
	}
	return best, nil
}
