package formula

// Named functions recognized by the parser. A leaf matching one of these,
// immediately followed by a parenthesized group, folds into a call.
const (
	FnSum         = "SUM"
	FnDifference  = "DIFFERENCE"
	FnProduct     = "PRODUCT"
	FnQuotient    = "QUOTIENT"
	FnMin         = "MIN"
	FnMax         = "MAX"
	FnMean        = "MEAN"
	FnCount       = "COUNT"
	FnIf          = "IF"
	FnLookup      = "LOOKUP"
	FnAnd         = "AND"
	FnOr          = "OR"
	FnNot         = "NOT"
	FnConcatenate = "CONCATENATE"
	FnContains    = "CONTAINS"
	FnNotContains = "NOT_CONTAINS"
)

// functionNames is the closed set of named functions.
var functionNames = map[string]bool{
	FnSum: true, FnDifference: true, FnProduct: true, FnQuotient: true,
	FnMin: true, FnMax: true, FnMean: true, FnCount: true,
	FnIf: true, FnLookup: true,
	FnAnd: true, FnOr: true, FnNot: true,
	FnConcatenate: true, FnContains: true, FnNotContains: true,
}

// operatorTiers lists infix operators in descending precedence. Within a
// tier, folding is left to right, so same-tier chains nest to the left.
var operatorTiers = [][]string{
	{"*", "/"},
	{"+", "-"},
	{">", "<", ">=", "<=", "=", "!=", "&&", "||"},
}

// operators is the flattened set of infix operator tokens.
var operators = func() map[string]bool {
	m := make(map[string]bool)
	for _, tier := range operatorTiers {
		for _, op := range tier {
			m[op] = true
		}
	}
	return m
}()

// IsFunction reports whether name is one of the named functions.
func IsFunction(name string) bool { return functionNames[name] }

// IsOperator reports whether tok is an infix operator token.
func IsOperator(tok string) bool { return operators[tok] }

// IsAllowed reports whether name may appear as a call key in a resolved
// formula: a named function or an infix operator.
func IsAllowed(name string) bool { return functionNames[name] || operators[name] }
