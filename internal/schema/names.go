package schema

import (
	"regexp"
	"strings"
)

// namePattern enforces the element-name rule: starts with a letter, letters,
// digits, and single spaces only, 4 to 25 characters inclusive.
var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*( [a-zA-Z0-9]+)*$`)

// NameFormatOK reports whether an element name satisfies the naming rule.
func NameFormatOK(name string) bool {
	if len(name) < 4 || len(name) > 25 {
		return false
	}
	return namePattern.MatchString(name)
}

// NormalizeName lowers an element name and replaces spaces with underscores.
// Formula references use the normalized form, so "Policy Factor" is written
// as ".policy_factor".
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// UniqueAmongSiblings reports whether name is unused among the attributes,
// calculations, and child entities of parent. Comparison is on normalized
// names, since formula references cannot distinguish two names that
// normalize identically.
func UniqueAmongSiblings(parent *EntityDef, name string) bool {
	norm := NormalizeName(name)
	for _, a := range parent.Attributes {
		if NormalizeName(a.Name) == norm {
			return false
		}
	}
	for _, c := range parent.Calculations {
		if NormalizeName(c.Name) == norm {
			return false
		}
	}
	for _, e := range parent.Entities {
		if NormalizeName(e.Name) == norm {
			return false
		}
	}
	return true
}
