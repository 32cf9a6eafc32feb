// Package ddl provides a light, non-executing DDL parser. It is used to
// syntax-check custom conflict resolutions before any state change and to
// extract the structure needed for union merges (table columns, trigger
// events). It is deliberately not a full SQL grammar: it validates statement
// shape, balancing, and identifiers, and leaves semantic validation to the
// owning database.
package ddl

import (
	"fmt"
	"strings"
)

// SyntaxError reports why a definition failed the dry parse
type SyntaxError struct {
	Position int
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Position, e.Reason)
}

var statementVerbs = []string{"CREATE", "ALTER", "DROP"}

var objectKinds = []string{
	"TABLE", "VIEW", "MATERIALIZED VIEW", "FUNCTION", "INDEX", "UNIQUE INDEX",
	"TRIGGER", "SEQUENCE", "TYPE", "SCHEMA",
}

// CheckSyntax performs a dry, non-executing parse of a DDL statement.
// It verifies the statement verb, the object kind, the presence of an
// identifier, and that parentheses and quotes balance.
func CheckSyntax(definition string) error {
	src := strings.TrimSpace(definition)
	if src == "" {
		return &SyntaxError{Position: 0, Reason: "empty statement"}
	}

	upper := strings.ToUpper(src)
	verb := ""
	for _, v := range statementVerbs {
		if strings.HasPrefix(upper, v+" ") {
			verb = v
			break
		}
	}
	if verb == "" {
		return &SyntaxError{Position: 0, Reason: "statement must begin with CREATE, ALTER, or DROP"}
	}

	rest := strings.TrimSpace(upper[len(verb):])
	rest = strings.TrimPrefix(rest, "OR REPLACE ")
	rest = strings.TrimSpace(rest)

	kind := ""
	for _, k := range objectKinds {
		if strings.HasPrefix(rest, k+" ") || rest == k {
			kind = k
			break
		}
	}
	if kind == "" {
		return &SyntaxError{Position: len(verb) + 1, Reason: "unknown object kind"}
	}

	after := strings.TrimSpace(rest[len(kind):])
	after = strings.TrimPrefix(after, "IF NOT EXISTS ")
	after = strings.TrimPrefix(after, "IF EXISTS ")
	after = strings.TrimPrefix(after, "CONCURRENTLY ")
	if after == "" {
		return &SyntaxError{Position: len(src), Reason: "missing object name"}
	}

	return checkBalance(src)
}

// checkBalance verifies parentheses and quote pairing, ignoring content
// inside string literals and quoted identifiers.
func checkBalance(src string) error {
	depth := 0
	inString := false
	inIdent := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inString:
			if c == '\'' {
				// doubled quote escapes inside a literal
				if i+1 < len(src) && src[i+1] == '\'' {
					i++
					continue
				}
				inString = false
			}
		case inIdent:
			if c == '"' {
				inIdent = false
			}
		case c == '\'':
			inString = true
		case c == '"':
			inIdent = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return &SyntaxError{Position: i, Reason: "unbalanced closing parenthesis"}
			}
		}
	}
	if depth != 0 {
		return &SyntaxError{Position: len(src), Reason: "unbalanced parentheses"}
	}
	if inString {
		return &SyntaxError{Position: len(src), Reason: "unterminated string literal"}
	}
	if inIdent {
		return &SyntaxError{Position: len(src), Reason: "unterminated quoted identifier"}
	}
	return nil
}
