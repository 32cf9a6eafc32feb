package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/evoludigit/pggit/internal/ddl"
	"github.com/evoludigit/pggit/internal/models"
)

// Check types emitted by the rollback validator.
const (
	CheckCommitOrder          = "COMMIT_ORDER"
	CheckDependencies         = "DEPENDENCIES"
	CheckMergeCommit          = "MERGE_COMMIT"
	CheckDependencyCycle      = "DEPENDENCY_CYCLE"
	CheckReferentialIntegrity = "REFERENTIAL_INTEGRITY"
	CheckDataLoss             = "DATA_LOSS"
)

// ValidateRollback runs the pre-flight checks for a proposed rollback and
// returns graded findings. It never mutates state and the same arguments
// always produce the same findings, so it is safe to call repeatedly.
func (e *Engine) ValidateRollback(branchRef, sourceCommit, targetCommit string, rbType models.RollbackType) ([]*models.ValidationFinding, error) {
	scope, err := e.resolveScope(branchRef, sourceCommit, targetCommit, rbType)
	if err != nil {
		return nil, err
	}
	return e.validateScope(scope)
}

func (e *Engine) resolveScope(branchRef, sourceCommit, targetCommit string, rbType models.RollbackType) (*rollbackScope, error) {
	switch rbType {
	case models.RollbackRange:
		if targetCommit == "" {
			return nil, fmt.Errorf("range rollback needs both a start and an end commit")
		}
		return e.scopeForRange(branchRef, targetCommit, sourceCommit)
	case models.RollbackToTimestamp:
		commit, err := e.store.ResolveCommit(sourceCommit)
		if err != nil {
			return nil, notFound(err, "commit", sourceCommit)
		}
		return e.scopeForTimestamp(branchRef, commit.Timestamp)
	case models.RollbackSingleCommit, models.RollbackUndo, "":
		return e.scopeForCommit(branchRef, sourceCommit)
	default:
		return nil, fmt.Errorf("unknown rollback type %q", rbType)
	}
}

// validateScope runs every check against an already-resolved scope. The
// rollback pipeline calls this directly so validation and execution see the
// same entry set.
func (e *Engine) validateScope(scope *rollbackScope) ([]*models.ValidationFinding, error) {
	var findings []*models.ValidationFinding

	findings = append(findings, e.checkCommitOrder(scope))

	changes, planErr := e.buildPlan(scope.entries, models.OrderDependency)
	if planErr != nil {
		if cycleErr, ok := planErr.(*DependencyCycleError); ok {
			findings = append(findings, finding(CheckDependencyCycle, models.FindingFail, models.FindingError,
				"dependency cycle prevents a valid operation order: "+strings.Join(cycleErr.Cycle, " -> "),
				cycleErr.Cycle))
			return findings, nil
		}
		findings = append(findings, finding(CheckCommitOrder, models.FindingFail, models.FindingError,
			"planning failed: "+planErr.Error(), nil))
		return findings, nil
	}
	findings = append(findings, finding(CheckDependencyCycle, models.FindingPass, models.FindingInfo,
		"dependency subgraph admits a topological order", nil))

	depFindings, err := e.checkDependents(scope, changes)
	if err != nil {
		return nil, err
	}
	findings = append(findings, depFindings...)

	mergeFinding, err := e.checkMergeCommit(scope)
	if err != nil {
		return nil, err
	}
	findings = append(findings, mergeFinding)

	refFindings, err := e.checkReferentialIntegrity(scope, changes)
	if err != nil {
		return nil, err
	}
	findings = append(findings, refFindings...)

	findings = append(findings, e.checkDataLoss(changes)...)
	return findings, nil
}

func (e *Engine) checkCommitOrder(scope *rollbackScope) *models.ValidationFinding {
	if len(scope.entries) == 0 {
		return finding(CheckCommitOrder, models.FindingFail, models.FindingError,
			"no history entries in the requested scope", nil)
	}
	for i := 1; i < len(scope.entries); i++ {
		if scope.entries[i].Timestamp.Before(scope.entries[i-1].Timestamp) {
			return finding(CheckCommitOrder, models.FindingFail, models.FindingError,
				"history entries are not in chronological order", nil)
		}
	}
	return finding(CheckCommitOrder, models.FindingPass, models.FindingInfo,
		fmt.Sprintf("%d history entries in scope, chronological", len(scope.entries)), nil)
}

// checkDependents flags objects the rollback would drop or structurally
// change whose dependents remain in place. A HARD dependent blocks unless it
// is removed by the same plan.
func (e *Engine) checkDependents(scope *rollbackScope, changes []*plannedChange) ([]*models.ValidationFinding, error) {
	removed := make(map[string]bool)
	for _, c := range changes {
		if c.op.ChangeType == models.ChangeDrop {
			removed[c.op.ObjectID] = true
		}
	}

	var findings []*models.ValidationFinding
	for _, c := range changes {
		// Recreating an object that is currently gone cannot break its
		// dependents; restoring over a live one can.
		if c.op.ChangeType == models.ChangeCreate && c.currentHash == "" {
			continue
		}
		edges, err := e.store.GetDependents(c.op.ObjectID)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if removed[edge.SourceID] {
				continue
			}
			dep, err := e.store.GetObject(edge.SourceID)
			if err != nil {
				return nil, notFound(err, "object", edge.SourceID)
			}
			affected := []string{c.op.ObjectName, dep.QualifiedName()}
			if edge.Strength == models.DepHard {
				findings = append(findings, finding(CheckDependencies, models.FindingFail, models.FindingCritical,
					fmt.Sprintf("%s has hard dependent %s (%s) not removed by this rollback", c.op.ObjectName, dep.QualifiedName(), edge.Type),
					affected))
			} else {
				findings = append(findings, finding(CheckDependencies, models.FindingWarn, models.FindingWarning,
					fmt.Sprintf("%s has soft dependent %s (%s); review after rollback", c.op.ObjectName, dep.QualifiedName(), edge.Type),
					affected))
			}
		}
	}
	if len(findings) == 0 {
		findings = append(findings, finding(CheckDependencies, models.FindingPass, models.FindingInfo,
			"no dependents block the rollback", nil))
	}
	return findings, nil
}

func (e *Engine) checkMergeCommit(scope *rollbackScope) (*models.ValidationFinding, error) {
	if scope.sourceCommit == "" {
		return finding(CheckMergeCommit, models.FindingPass, models.FindingInfo,
			"no source commit to inspect", nil), nil
	}
	commit, err := e.store.GetCommit(scope.sourceCommit)
	if err != nil {
		return nil, notFound(err, "commit", scope.sourceCommit)
	}
	if commit.IsMergeCommit() {
		return finding(CheckMergeCommit, models.FindingWarn, models.FindingWarning,
			fmt.Sprintf("commit %s is a merge result; its inverse is ambiguous", commit.ShortHash()), nil), nil
	}
	return finding(CheckMergeCommit, models.FindingPass, models.FindingInfo,
		fmt.Sprintf("commit %s is not a merge commit", commit.ShortHash()), nil), nil
}

// checkReferentialIntegrity forecasts whether restored objects still find the
// objects they depend on in the post-rollback state.
func (e *Engine) checkReferentialIntegrity(scope *rollbackScope, changes []*plannedChange) ([]*models.ValidationFinding, error) {
	dropped := make(map[string]bool)
	restored := make(map[string]bool)
	for _, c := range changes {
		switch c.op.ChangeType {
		case models.ChangeDrop:
			dropped[c.op.ObjectID] = true
		case models.ChangeCreate:
			restored[c.op.ObjectID] = true
		}
	}

	var findings []*models.ValidationFinding
	for _, c := range changes {
		if c.op.ChangeType == models.ChangeDrop {
			continue
		}
		edges, err := e.store.GetDependencies(c.op.ObjectID)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if dropped[edge.TargetID] {
				target, err := e.store.GetObject(edge.TargetID)
				if err != nil {
					return nil, notFound(err, "object", edge.TargetID)
				}
				findings = append(findings, finding(CheckReferentialIntegrity, models.FindingWarn, models.FindingWarning,
					fmt.Sprintf("%s references %s, which this rollback removes", c.op.ObjectName, target.QualifiedName()),
					[]string{c.op.ObjectName, target.QualifiedName()}))
				continue
			}
			if restored[edge.TargetID] {
				continue
			}
			live, err := e.store.LatestEntry(scope.branch.ID, edge.TargetID)
			if err != nil {
				return nil, err
			}
			if live == nil || live.AfterHash == "" {
				target, err := e.store.GetObject(edge.TargetID)
				if err != nil {
					return nil, notFound(err, "object", edge.TargetID)
				}
				findings = append(findings, finding(CheckReferentialIntegrity, models.FindingWarn, models.FindingWarning,
					fmt.Sprintf("%s references %s, which does not exist on %s", c.op.ObjectName, target.QualifiedName(), scope.branch.Name),
					[]string{c.op.ObjectName, target.QualifiedName()}))
			}
		}
	}
	if len(findings) == 0 {
		findings = append(findings, finding(CheckReferentialIntegrity, models.FindingPass, models.FindingInfo,
			"planned restorations resolve all their references", nil))
	}
	return findings, nil
}

// checkDataLoss flags structurally destructive inverses. Dropping an object
// that is merely an undone creation is expected; an ALTER inverse that
// removes table columns is not.
func (e *Engine) checkDataLoss(changes []*plannedChange) []*models.ValidationFinding {
	var findings []*models.ValidationFinding
	for _, c := range changes {
		if c.op.ObjectType != models.ObjectTable || c.op.ChangeType != models.ChangeAlter {
			continue
		}
		lost := droppedColumns(c.op.BeforeDef, c.op.AfterDef)
		if len(lost) == 0 {
			continue
		}
		findings = append(findings, finding(CheckDataLoss, models.FindingFail, models.FindingCritical,
			fmt.Sprintf("rolling back %s removes column(s) %s", c.op.ObjectName, strings.Join(lost, ", ")),
			append([]string{c.op.ObjectName}, lost...)))
	}
	if len(findings) == 0 {
		findings = append(findings, finding(CheckDataLoss, models.FindingPass, models.FindingInfo,
			"no planned inverse is structurally destructive", nil))
	}
	return findings
}

// droppedColumns lists the columns present in before but absent in after.
// Definitions that do not parse as CREATE TABLE yield no columns.
func droppedColumns(beforeDef, afterDef string) []string {
	before, err := ddl.ParseCreateTable(beforeDef)
	if err != nil {
		return nil
	}
	after, err := ddl.ParseCreateTable(afterDef)
	if err != nil {
		return nil
	}
	kept := make(map[string]bool)
	for _, col := range after.Columns {
		if !col.IsConstraint() {
			kept[strings.ToLower(col.Name)] = true
		}
	}
	var lost []string
	for _, col := range before.Columns {
		if !col.IsConstraint() && !kept[strings.ToLower(col.Name)] {
			lost = append(lost, col.Name)
		}
	}
	sort.Strings(lost)
	return lost
}

// finding builds a ValidationFinding with a deterministic ID so repeated
// validation calls return identical results.
func finding(checkType string, status models.FindingStatus, severity models.FindingSeverity, message string, affected []string) *models.ValidationFinding {
	sum := sha256.Sum256([]byte(checkType + "\x00" + message))
	return &models.ValidationFinding{
		ID:              hex.EncodeToString(sum[:])[:16],
		CheckType:       checkType,
		Status:          status,
		Severity:        severity,
		Message:         message,
		AffectedObjects: affected,
	}
}

// blockingFindings filters the findings that prevent execution under the
// given warning policy.
func blockingFindings(findings []*models.ValidationFinding, allowWarnings bool) []*models.ValidationFinding {
	var blocking []*models.ValidationFinding
	for _, f := range findings {
		if f.Blocking(allowWarnings) {
			blocking = append(blocking, f)
		}
	}
	return blocking
}
