// Copyright 2025 The ranked authors
// SPDX-License-Identifier: Apache-2.0

package ranked

import "fmt"

// ValidationError reports a rejected input (empty required field,
// out-of-range rank). The attempted operation performed no mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NotFoundError reports an operation against an entity that no longer
// exists. The attempted operation performed no mutation.
type NotFoundError struct {
	Kind string // "ranking" or "item"
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// TransientSyncError wraps a sync failure that should be retried on the
// next drain cycle: network unreachable, remote temporarily erroring, or a
// parent entity not yet synced. The affected outbox entries stay queued.
type TransientSyncError struct {
	Err error
}

func (e *TransientSyncError) Error() string {
	return "transient sync failure: " + e.Err.Error()
}

func (e *TransientSyncError) Unwrap() error { return e.Err }

// StoreError wraps a local database failure. It is fatal for the attempted
// operation; previously committed state is unaffected because every
// multi-step mutation runs in a transaction.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
