package ddl

import (
	"fmt"
	"strings"
)

// Column is one column (or table constraint) inside a CREATE TABLE body
type Column struct {
	Name       string // lowercase identifier; empty for table-level constraints
	Definition string // full text after the name (type + column constraints)
	Raw        string // the original item text
}

// IsConstraint reports whether the item is a table-level constraint rather
// than a column.
func (c Column) IsConstraint() bool {
	return c.Name == ""
}

// TableDef is the parsed shape of a CREATE TABLE statement
type TableDef struct {
	Name    string
	Columns []Column
}

var constraintKeywords = map[string]bool{
	"primary": true, "foreign": true, "unique": true,
	"check": true, "constraint": true, "exclude": true,
}

// ParseCreateTable extracts the table name and column list from a
// CREATE TABLE statement. Items inside the parenthesized body are split on
// top-level commas only.
func ParseCreateTable(definition string) (*TableDef, error) {
	if err := CheckSyntax(definition); err != nil {
		return nil, err
	}

	src := strings.TrimSpace(definition)
	upper := strings.ToUpper(src)
	if !strings.HasPrefix(upper, "CREATE TABLE") {
		return nil, &SyntaxError{Position: 0, Reason: "not a CREATE TABLE statement"}
	}

	open := strings.IndexByte(src, '(')
	if open < 0 {
		return nil, &SyntaxError{Position: len(src), Reason: "missing column list"}
	}
	closeIdx := matchingParen(src, open)
	if closeIdx < 0 {
		return nil, &SyntaxError{Position: len(src), Reason: "unbalanced column list"}
	}

	name := strings.TrimSpace(src[len("CREATE TABLE"):open])
	name = strings.TrimPrefix(name, "IF NOT EXISTS ")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &SyntaxError{Position: open, Reason: "missing table name"}
	}

	def := &TableDef{Name: name}
	for _, item := range splitTopLevel(src[open+1 : closeIdx]) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		def.Columns = append(def.Columns, parseColumnItem(item))
	}
	return def, nil
}

// parseColumnItem classifies one body item as a column or a constraint
func parseColumnItem(item string) Column {
	fields := strings.Fields(item)
	first := strings.ToLower(strings.Trim(fields[0], `"`))
	if constraintKeywords[first] {
		return Column{Raw: item}
	}
	rest := ""
	if len(fields) > 1 {
		rest = strings.Join(fields[1:], " ")
	}
	return Column{Name: first, Definition: rest, Raw: item}
}

// RenderCreateTable rebuilds a CREATE TABLE statement from a parsed definition
func RenderCreateTable(t *TableDef) string {
	items := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		items[i] = "    " + c.Raw
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", t.Name, strings.Join(items, ",\n"))
}

// matchingParen returns the index of the parenthesis closing src[open]
func matchingParen(src string, open int) int {
	depth := 0
	inString := false
	for i := open; i < len(src); i++ {
		c := src[i]
		switch {
		case inString:
			if c == '\'' {
				inString = false
			}
		case c == '\'':
			inString = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas that are not nested inside parentheses or
// string literals.
func splitTopLevel(src string) []string {
	var items []string
	depth := 0
	inString := false
	start := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inString:
			if c == '\'' {
				inString = false
			}
		case c == '\'':
			inString = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			items = append(items, src[start:i])
			start = i + 1
		}
	}
	items = append(items, src[start:])
	return items
}
