package models

import "time"

// RollbackType distinguishes the rollback entry points
type RollbackType string

const (
	RollbackSingleCommit RollbackType = "SINGLE_COMMIT"
	RollbackRange        RollbackType = "RANGE"
	RollbackToTimestamp  RollbackType = "TO_TIMESTAMP"
	RollbackUndo         RollbackType = "UNDO"
)

// RollbackMode controls how far the pipeline runs
type RollbackMode string

const (
	ModeDryRun    RollbackMode = "DRY_RUN"
	ModeValidated RollbackMode = "VALIDATED"
	ModeExecuted  RollbackMode = "EXECUTED"
)

// RollbackStatus is the terminal state of a rollback operation
type RollbackStatus string

const (
	RollbackPending   RollbackStatus = "PENDING"
	RollbackSucceeded RollbackStatus = "SUCCESS"
	RollbackBlocked   RollbackStatus = "BLOCKED"
	RollbackFailed    RollbackStatus = "FAILED"
	RollbackSimulated RollbackStatus = "SIMULATED"
	RollbackValidated RollbackStatus = "VALIDATED"
)

// RangeOrder selects how operations in a range rollback are sequenced
type RangeOrder string

const (
	OrderReverseChronological RangeOrder = "REVERSE_CHRONOLOGICAL"
	OrderDependency           RangeOrder = "DEPENDENCY_ORDER"
)

// RollbackOperation records one rollback attempt and its outcome
type RollbackOperation struct {
	ID             string         `json:"rollback_id"`
	BranchID       string         `json:"branch_id"`
	SourceCommit   string         `json:"source_commit"`
	TargetCommit   string         `json:"target_commit,omitempty"`
	Type           RollbackType   `json:"type"`
	Mode           RollbackMode   `json:"mode"`
	Status         RollbackStatus `json:"status"`
	RollbackCommit string         `json:"rollback_commit,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at,omitempty"`
}

// FindingStatus is the outcome of one pre-flight check
type FindingStatus string

const (
	FindingPass FindingStatus = "PASS"
	FindingWarn FindingStatus = "WARN"
	FindingFail FindingStatus = "FAIL"
)

// FindingSeverity grades a validation finding
type FindingSeverity string

const (
	FindingInfo     FindingSeverity = "INFO"
	FindingWarning  FindingSeverity = "WARNING"
	FindingError    FindingSeverity = "ERROR"
	FindingCritical FindingSeverity = "CRITICAL"
)

// ValidationFinding is one pre-flight check result. Findings are data,
// never errors: producing them mutates nothing and is safe to repeat.
type ValidationFinding struct {
	ID              string          `json:"validation_id"`
	RollbackID      string          `json:"rollback_id,omitempty"`
	CheckType       string          `json:"check_type"`
	Status          FindingStatus   `json:"status"`
	Severity        FindingSeverity `json:"severity"`
	Message         string          `json:"message"`
	AffectedObjects []string        `json:"affected_objects,omitempty"`
}

// Blocking reports whether the finding blocks execution. WARNING findings
// block only when warnings are not allowed; CRITICAL always blocks unless
// the check explicitly passed.
func (f *ValidationFinding) Blocking(allowWarnings bool) bool {
	if f.Status == FindingPass {
		return false
	}
	switch f.Severity {
	case FindingError, FindingCritical:
		return true
	case FindingWarning:
		return !allowWarnings
	}
	return false
}

// PlannedOperation is one inverse operation in a rollback plan
type PlannedOperation struct {
	ObjectID   string     `json:"object_id"`
	ObjectName string     `json:"object_name"`
	ObjectType ObjectType `json:"object_type"`
	ChangeType ChangeType `json:"change_type"` // the inverse to apply
	BeforeDef  string     `json:"before_def,omitempty"`
	AfterDef   string     `json:"after_def,omitempty"`
}

// RollbackResult is the caller-facing outcome of the rollback entry points.
// Field names are a stable contract consumed by external tooling.
type RollbackResult struct {
	RollbackID      string               `json:"rollback_id"`
	Status          RollbackStatus       `json:"status"`
	Mode            RollbackMode         `json:"mode"`
	Type            RollbackType         `json:"type"`
	RollbackCommit  string               `json:"rollback_commit,omitempty"`
	ObjectsAffected int                  `json:"objects_affected"`
	Plan            []*PlannedOperation  `json:"plan,omitempty"`
	Findings        []*ValidationFinding `json:"findings,omitempty"`
}
