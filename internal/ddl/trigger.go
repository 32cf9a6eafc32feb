package ddl

import (
	"fmt"
	"strings"
)

// TriggerDef is the parsed shape of a CREATE TRIGGER statement
type TriggerDef struct {
	Name   string
	Timing string   // BEFORE, AFTER, or INSTEAD OF
	Events []string // INSERT, UPDATE, DELETE, TRUNCATE (upper-case, source order)
	Rest   string   // everything from ON onward (table, FOR EACH ..., EXECUTE ...)
}

var triggerEvents = []string{"INSERT", "UPDATE", "DELETE", "TRUNCATE"}

// ParseCreateTrigger extracts the trigger name, timing, and event set from a
// CREATE TRIGGER statement.
func ParseCreateTrigger(definition string) (*TriggerDef, error) {
	if err := CheckSyntax(definition); err != nil {
		return nil, err
	}

	src := strings.TrimSpace(definition)
	upper := strings.ToUpper(src)
	if !strings.HasPrefix(upper, "CREATE TRIGGER") && !strings.HasPrefix(upper, "CREATE OR REPLACE TRIGGER") {
		return nil, &SyntaxError{Position: 0, Reason: "not a CREATE TRIGGER statement"}
	}

	def := &TriggerDef{}

	// Name is the token after TRIGGER
	idx := strings.Index(upper, "TRIGGER")
	fields := strings.Fields(src[idx+len("TRIGGER"):])
	if len(fields) == 0 {
		return nil, &SyntaxError{Position: len(src), Reason: "missing trigger name"}
	}
	def.Name = fields[0]

	// Timing
	switch {
	case strings.Contains(upper, " BEFORE "):
		def.Timing = "BEFORE"
	case strings.Contains(upper, " AFTER "):
		def.Timing = "AFTER"
	case strings.Contains(upper, " INSTEAD OF "):
		def.Timing = "INSTEAD OF"
	default:
		return nil, &SyntaxError{Position: 0, Reason: "missing trigger timing (BEFORE/AFTER/INSTEAD OF)"}
	}

	// Events between the timing keyword and ON
	onIdx := strings.Index(upper, " ON ")
	if onIdx < 0 {
		return nil, &SyntaxError{Position: len(src), Reason: "missing ON clause"}
	}
	timingIdx := strings.Index(upper, def.Timing)
	eventText := upper[timingIdx+len(def.Timing) : onIdx]
	for _, part := range strings.Split(eventText, " OR ") {
		part = strings.TrimSpace(part)
		for _, ev := range triggerEvents {
			if strings.HasPrefix(part, ev) {
				def.Events = append(def.Events, ev)
				break
			}
		}
	}
	if len(def.Events) == 0 {
		return nil, &SyntaxError{Position: timingIdx, Reason: "no trigger events"}
	}

	def.Rest = strings.TrimSpace(src[onIdx+1:])
	return def, nil
}

// RenderCreateTrigger rebuilds a CREATE TRIGGER statement
func RenderCreateTrigger(t *TriggerDef) string {
	return fmt.Sprintf("CREATE TRIGGER %s %s %s %s",
		t.Name, t.Timing, strings.Join(t.Events, " OR "), t.Rest)
}
