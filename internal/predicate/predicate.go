// Package predicate builds record-matching closures from CLI condition
// flags. Each constructor validates its spec and compiles any path or
// pattern once, so filtering a million records pays the parse cost once.
//
// A record matches a condition when ANY value its field path addresses
// satisfies it; wildcard paths fan out and one hit is enough.
package predicate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yzaremba/rt/internal/extractor"
	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/value"
)

var (
	// ErrInvalidExpression indicates a condition flag that does not parse.
	ErrInvalidExpression = errors.New("predicate: invalid expression")
	// ErrInvalidRegex indicates a pattern that does not compile.
	ErrInvalidRegex = errors.New("predicate: invalid regex")
)

// whereRe splits "field OP literal"; the lazy field group lets the
// operator claim the first comparator occurrence.
var whereRe = regexp.MustCompile(`^(.+?)(==|!=|>=|<=|>|<)(.+)$`)

var allowedTypes = map[string]struct{}{
	"string": {}, "int": {}, "float": {}, "bool": {},
	"null": {}, "array": {}, "object": {},
}

// Predicate reports whether a record matches a condition.
type Predicate func(record any) bool

// Where compiles a comparison expression such as "age>=21" or
// `items[*].sku=="A1"`. Equality compares any kinds; ordering applies
// only to number/number and string/string pairs, and values of other
// kinds simply never match.
func Where(expr string) (Predicate, error) {
	m := whereRe.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return nil, fmt.Errorf("%w: %q is not field<op>value", ErrInvalidExpression, expr)
	}
	field, op, rhsRaw := strings.TrimSpace(m[1]), m[2], m[3]

	compiled, err := path.Compile(field)
	if err != nil {
		return nil, err
	}
	rhs := parseLiteral(rhsRaw)

	return func(record any) bool {
		for _, v := range extractor.Extract(record, compiled) {
			if matched, ok := compare(v, op, rhs); ok && matched {
				return true
			}
		}
		return false
	}, nil
}

// Exists compiles a path-existence condition; invert keeps records where
// the path is absent.
func Exists(rawPath string, invert bool) (Predicate, error) {
	compiled, err := path.Compile(strings.TrimSpace(rawPath))
	if err != nil {
		return nil, err
	}
	return func(record any) bool {
		return extractor.Exists(record, compiled) != invert
	}, nil
}

// TypeIs compiles a "field=typename" condition matching records where any
// addressed value has the named type.
func TypeIs(spec string) (Predicate, error) {
	field, expected, ok := strings.Cut(spec, "=")
	if !ok {
		return nil, fmt.Errorf("%w: type condition must be field=typename", ErrInvalidExpression)
	}
	expected = strings.TrimSpace(expected)
	if _, ok := allowedTypes[expected]; !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidExpression, expected)
	}
	compiled, err := path.Compile(strings.TrimSpace(field))
	if err != nil {
		return nil, err
	}
	return func(record any) bool {
		for _, v := range extractor.Extract(record, compiled) {
			if value.TypeName(v) == expected {
				return true
			}
		}
		return false
	}, nil
}

// Contains compiles a "field:substring" condition over string values.
func Contains(spec string) (Predicate, error) {
	field, substring, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("%w: contains condition must be field:substring", ErrInvalidExpression)
	}
	compiled, err := path.Compile(strings.TrimSpace(field))
	if err != nil {
		return nil, err
	}
	return func(record any) bool {
		for _, v := range extractor.Extract(record, compiled) {
			if s, ok := v.(string); ok && strings.Contains(s, substring) {
				return true
			}
		}
		return false
	}, nil
}

// Regex compiles a "field:pattern" condition over string values.
func Regex(spec string) (Predicate, error) {
	field, pattern, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("%w: regex condition must be field:pattern", ErrInvalidExpression)
	}
	compiled, err := path.Compile(strings.TrimSpace(field))
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegex, err)
	}
	return func(record any) bool {
		for _, v := range extractor.Extract(record, compiled) {
			if s, ok := v.(string); ok && re.MatchString(s) {
				return true
			}
		}
		return false
	}, nil
}

// Combine joins predicates with AND (default) or OR. An empty list
// matches everything.
func Combine(preds []Predicate, useOr bool) Predicate {
	return func(record any) bool {
		if len(preds) == 0 {
			return true
		}
		for _, p := range preds {
			if p(record) {
				if useOr {
					return true
				}
				continue
			}
			if !useOr {
				return false
			}
		}
		return !useOr
	}
}

// parseLiteral interprets a right-hand side: true/false/null keywords,
// then numbers (a dot selects float), then a quote-stripped string.
func parseLiteral(raw string) any {
	text := strings.TrimSpace(raw)
	switch strings.ToLower(text) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if strings.Contains(text, ".") {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	} else if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	return strings.Trim(strings.Trim(text, `"`), "'")
}

// compare evaluates lhs OP rhs. The second return is false when the
// operator is not defined for the pair, which callers treat as no match
// rather than an error.
func compare(lhs any, op string, rhs any) (bool, bool) {
	switch op {
	case "==":
		return value.Equal(lhs, rhs), true
	case "!=":
		return !value.Equal(lhs, rhs), true
	}

	if lf, ok := value.ToFloat64(lhs); ok {
		rf, ok := value.ToFloat64(rhs)
		if !ok {
			return false, false
		}
		switch op {
		case ">":
			return lf > rf, true
		case "<":
			return lf < rf, true
		case ">=":
			return lf >= rf, true
		case "<=":
			return lf <= rf, true
		}
		return false, false
	}

	ls, lok := lhs.(string)
	rs, rok := rhs.(string)
	if !lok || !rok {
		return false, false
	}
	switch op {
	case ">":
		return ls > rs, true
	case "<":
		return ls < rs, true
	case ">=":
		return ls >= rs, true
	case "<=":
		return ls <= rs, true
	}
	return false, false
}
