package eval

import (
	"fmt"
	"strconv"
)

// toNumber coerces a runtime value to float64. Stored attribute values
// arrive as float64, int, or numeric strings depending on the dataset
// encoding; anything else is a structural error.
func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("null value in numeric context")
	default:
		return 0, fmt.Errorf("%v (%T) is not a number", v, v)
	}
}

// toBool coerces a runtime value to bool. Numbers are truthy when nonzero;
// strings parse as booleans first and numbers second.
func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed, nil
		}
		if f, err := strconv.ParseFloat(b, 64); err == nil {
			return f != 0, nil
		}
		return false, fmt.Errorf("%q is not a boolean", b)
	case nil:
		return false, fmt.Errorf("null value in boolean context")
	default:
		return false, fmt.Errorf("%v (%T) is not a boolean", v, v)
	}
}

// toString coerces a runtime value to its text form. Null is a structural
// error rather than an empty string so missing data cannot silently
// disappear into concatenations.
func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(s), nil
	case nil:
		return "", fmt.Errorf("null value in text context")
	default:
		return fmt.Sprint(v), nil
	}
}

// compareValues orders two runtime values: numerically when both coerce to
// numbers, lexically otherwise. It returns -1, 0, or 1.
func compareValues(a, b any) (int, error) {
	na, errA := toNumber(a)
	nb, errB := toNumber(b)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1, nil
		case na > nb:
			return 1, nil
		default:
			return 0, nil
		}
	}

	sa, err := toString(a)
	if err != nil {
		return 0, err
	}
	sb, err := toString(b)
	if err != nil {
		return 0, err
	}
	switch {
	case sa < sb:
		return -1, nil
	case sa > sb:
		return 1, nil
	default:
		return 0, nil
	}
}
