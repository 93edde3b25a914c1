// Package berr defines the error kinds the battle core surfaces across the
// scripting boundary and the rollback controller. All of them are recovered
// by no-op at the call site per the simulation's error handling policy —
// none of these are allowed to abort a frame.
package berr

import "fmt"

// EntityNotFound is returned when a script or caller provides a stale or
// unknown generational id.
type EntityNotFound struct {
	ID uint64
}

func (e EntityNotFound) Error() string {
	return fmt.Sprintf("entity not found: %d", e.ID)
}

// MismatchedEntity is returned when an attach/detach call targets an owner
// that does not match the component being bound.
type MismatchedEntity struct {
	Want, Got uint64
}

func (e MismatchedEntity) Error() string {
	return fmt.Sprintf("mismatched entity: want %d, got %d", e.Want, e.Got)
}

// ActionNotFound is returned when a script references an action index that
// does not exist in the action arena.
type ActionNotFound struct {
	Index uint64
}

func (e ActionNotFound) Error() string {
	return fmt.Sprintf("action not found: %d", e.Index)
}

// ActionAlreadyProcessed is returned when a script tries to queue or mutate
// an action that has already executed and been marked processed.
type ActionAlreadyProcessed struct {
	Index uint64
}

func (e ActionAlreadyProcessed) Error() string {
	return fmt.Sprintf("action already processed: %d", e.Index)
}

// ActionEntityMismatch is returned when a caller tries to use an action on
// an entity other than the one it was queued against.
type ActionEntityMismatch struct {
	ActionIndex uint64
	EntityID    uint64
}

func (e ActionEntityMismatch) Error() string {
	return fmt.Sprintf("action %d is not bound to entity %d", e.ActionIndex, e.EntityID)
}

// InvalidSyncNode is returned when a script targets the root animator as if
// it were a removable synced child.
type InvalidSyncNode struct{}

func (e InvalidSyncNode) Error() string { return "invalid sync node: root animator is not removable" }

// AuxPropAlreadyBound is returned when a script registers the same aux prop
// key on a Living twice.
type AuxPropAlreadyBound struct {
	Key string
}

func (e AuxPropAlreadyBound) Error() string {
	return fmt.Sprintf("aux prop already bound: %s", e.Key)
}

// PackageNotFound is returned by the script host when no VM is registered
// for a (package id, namespace) pair.
type PackageNotFound struct {
	PackageID string
	Namespace string
}

func (e PackageNotFound) Error() string {
	return fmt.Sprintf("package not found: %s/%s", e.PackageID, e.Namespace)
}

// PackageNotLoaded is returned when a call targets a package id that was
// never loaded into any VM.
type PackageNotLoaded struct {
	PackageID string
}

func (e PackageNotLoaded) Error() string {
	return fmt.Sprintf("package not loaded: %s", e.PackageID)
}

// ScriptError wraps a failure raised inside a VM call.
type ScriptError struct {
	Message string
}

func (e ScriptError) Error() string { return "script error: " + e.Message }

// DesyncSuspected is logged, never returned to a caller as a hard failure —
// it marks a condition the rollback controller could not fully reconcile
// (e.g. a disconnect with no Disconnect signal, or an unreconcilable lead
// report) without being fatal.
type DesyncSuspected struct {
	Reason string
}

func (e DesyncSuspected) Error() string { return "desync suspected: " + e.Reason }
