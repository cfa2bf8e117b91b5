// Package session tracks one admin's view of the layout: the lock state,
// the optimistic edit buffer while editing, and how pushed refreshes are
// applied without clobbering unsaved edits.
package session

import (
	"errors"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/buffer"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/layout"
	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/lease"
)

// ErrNotEditing rejects structural edits attempted without the lease.
var ErrNotEditing = errors.New("session: not in edit mode")

// Identity is the local admin as reported by the session provider.
type Identity struct {
	ID   string
	Name string
}

// Session is one viewer's client-side state.
type Session struct {
	viewer Identity
	status lease.Status
	last   *layout.Snapshot
	buf    *buffer.Buffer
}

// New creates a session around the initially fetched snapshot.
func New(viewer Identity, snap *layout.Snapshot) *Session {
	return &Session{
		viewer: viewer,
		status: lease.Status{State: lease.StateFree},
		last:   snap,
	}
}

// Status returns the current lock status as this viewer sees it.
func (s *Session) Status() lease.Status { return s.status }

// Editing reports whether this viewer holds the edit lease.
func (s *Session) Editing() bool { return s.status.State == lease.StateEditingSelf }

// Buffer returns the edit buffer, or nil when no edit session is open.
func (s *Session) Buffer() *buffer.Buffer { return s.buf }

// View returns what the UI should render: the working copy while
// editing, the last committed snapshot otherwise.
func (s *Session) View() *layout.Snapshot {
	if s.buf != nil {
		return s.buf.Working()
	}
	return s.last
}

// BeginEdit enters edit mode after a successful lease acquisition,
// initializing the buffer as a deep copy of the committed snapshot.
func (s *Session) BeginEdit() {
	s.status = lease.Status{State: lease.StateEditingSelf, OwnerName: s.viewer.Name}
	s.buf = buffer.New(s.last)
}

// PrepareCommit returns the structural diff to send, or ok=false when the
// buffer is unchanged and releasing without any write suffices.
func (s *Session) PrepareCommit() (cs *layout.ChangeSet, ok bool) {
	if s.buf == nil {
		return nil, false
	}
	diff := s.buf.Diff()
	if diff.Empty() {
		return nil, false
	}
	return diff, true
}

// CompleteCommit installs the committed snapshot as the new baseline and
// leaves edit mode. Call only after the server accepted the commit.
func (s *Session) CompleteCommit(result *layout.CommitResult) {
	s.last = result.Snapshot
	s.buf = nil
	s.status = lease.Status{State: lease.StateFree}
}

// CancelEdit drops the buffer without committing and leaves edit mode.
func (s *Session) CancelEdit() {
	s.buf = nil
	s.status = lease.Status{State: lease.StateFree}
}

// KeepEditingAfterFailure records a failed commit: the buffer and the
// lease are retained so the admin can retry without losing edits.
func (s *Session) KeepEditingAfterFailure() {
	// Nothing to reset; the method exists to make the retry path explicit
	// at call sites.
}

// ObserveLease applies a lease change pushed from the store. The status
// always tracks the push: a lease reclaimed by the sweep or taken by
// another admin surfaces immediately, so the UI can warn before the
// admin invests more edits. The buffer is retained regardless; unsaved
// work is only dropped by an explicit cancel.
func (s *Session) ObserveLease(st lease.Status) {
	s.status = st
}

// ApplyRefresh applies a pushed resynchronization. Outside edit mode the
// fresh snapshot replaces the committed view. In edit mode the structural
// buffer is kept and only worker assignments are folded in, so swaps by
// other admins stay visible without clobbering unsaved edits.
func (s *Session) ApplyRefresh(fresh *layout.Snapshot) {
	if s.buf != nil {
		s.buf.ApplyAssignments(fresh)
		return
	}
	s.last = fresh
}
