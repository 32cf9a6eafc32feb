package core

import (
	"strings"

	"github.com/evoludigit/pggit/internal/ddl"
	"github.com/evoludigit/pggit/internal/models"
)

// unionMerge attempts a structural merge of a BOTH_MODIFIED conflict under
// the UNION strategy. It returns the merged definition, or ok=false when the
// object must fall back to manual review: non-structural object types,
// deletions on either side, unparsable definitions, or overlapping changes
// (including same-name columns with different definitions, which stay a
// conflict rather than guessing a precedence).
func unionMerge(c *models.Conflict) (merged string, ok bool) {
	if c.SourceDef == "" || c.TargetDef == "" {
		return "", false // delete vs modify is never auto-unioned
	}

	switch c.ObjectType {
	case models.ObjectTable:
		return unionTables(c.BaseDef, c.SourceDef, c.TargetDef)
	case models.ObjectTrigger:
		return unionTriggers(c.SourceDef, c.TargetDef)
	case models.ObjectIndex:
		// An index is a single expression over a column list; two diverged
		// definitions have no disjoint parts to combine, so the attempt
		// always lands in manual review.
		return "", false
	default:
		return "", false
	}
}

// unionTables merges two diverged CREATE TABLE definitions by unioning the
// columns each side added relative to base. Any disagreement about a shared
// column aborts the union.
func unionTables(baseDef, sourceDef, targetDef string) (string, bool) {
	source, err := ddl.ParseCreateTable(sourceDef)
	if err != nil {
		return "", false
	}
	target, err := ddl.ParseCreateTable(targetDef)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(source.Name, target.Name) {
		return "", false
	}

	baseColumns := map[string]string{}
	if baseDef != "" {
		base, err := ddl.ParseCreateTable(baseDef)
		if err != nil {
			return "", false
		}
		for _, col := range base.Columns {
			baseColumns[columnKey(col)] = normalizeItem(col.Raw)
		}
	}

	targetByKey := map[string]ddl.Column{}
	for _, col := range target.Columns {
		targetByKey[columnKey(col)] = col
	}

	merged := &ddl.TableDef{Name: target.Name}
	seen := map[string]bool{}

	// Target's shape wins the ordering; source-only additions append after
	for _, col := range target.Columns {
		key := columnKey(col)
		if srcCol, inSource := sourceColumn(source, key); inSource {
			if normalizeItem(srcCol.Raw) != normalizeItem(col.Raw) {
				// Same column, different definitions: if either side kept
				// the base definition the other side's change wins,
				// otherwise this is a true overlap.
				baseRaw, hadBase := baseColumns[key]
				switch {
				case hadBase && normalizeItem(col.Raw) == baseRaw:
					merged.Columns = append(merged.Columns, srcCol)
				case hadBase && normalizeItem(srcCol.Raw) == baseRaw:
					merged.Columns = append(merged.Columns, col)
				default:
					return "", false
				}
				seen[key] = true
				continue
			}
		} else if _, inBase := baseColumns[key]; inBase {
			// Source dropped a column target kept: overlap, not unionable
			return "", false
		}
		merged.Columns = append(merged.Columns, col)
		seen[key] = true
	}

	for _, col := range source.Columns {
		key := columnKey(col)
		if seen[key] {
			continue
		}
		if _, inTarget := targetByKey[key]; inTarget {
			continue
		}
		if _, inBase := baseColumns[key]; inBase {
			// Target dropped it; source kept or changed it
			return "", false
		}
		merged.Columns = append(merged.Columns, col)
	}

	return ddl.RenderCreateTable(merged), true
}

// unionTriggers merges two diverged triggers when they only disagree on the
// event list: the result fires on the union of both sides' events.
func unionTriggers(sourceDef, targetDef string) (string, bool) {
	source, err := ddl.ParseCreateTrigger(sourceDef)
	if err != nil {
		return "", false
	}
	target, err := ddl.ParseCreateTrigger(targetDef)
	if err != nil {
		return "", false
	}
	if !strings.EqualFold(source.Name, target.Name) ||
		source.Timing != target.Timing ||
		normalizeItem(source.Rest) != normalizeItem(target.Rest) {
		return "", false
	}

	merged := &ddl.TriggerDef{Name: target.Name, Timing: target.Timing, Rest: target.Rest}
	seen := map[string]bool{}
	for _, ev := range append(append([]string{}, target.Events...), source.Events...) {
		if seen[ev] {
			continue
		}
		seen[ev] = true
		merged.Events = append(merged.Events, ev)
	}
	return ddl.RenderCreateTrigger(merged), true
}

// columnKey identifies a body item: column name, or the constraint text for
// table-level constraints.
func columnKey(col ddl.Column) string {
	if col.IsConstraint() {
		return "constraint:" + normalizeItem(col.Raw)
	}
	return col.Name
}

func sourceColumn(t *ddl.TableDef, key string) (ddl.Column, bool) {
	for _, col := range t.Columns {
		if columnKey(col) == key {
			return col, true
		}
	}
	return ddl.Column{}, false
}

func normalizeItem(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
