// Package model defines the core domain types shared across the restore
// dispatcher: table identity, schema lifecycle state, and the restore jobs
// that flow from the parser through the dispatcher to the data workers.
package model

import (
	"fmt"
	"sync/atomic"
)

// SchemaState is the lifecycle tag of a table's schema, advancing from
// unseen to fully restored. It is monotonically non-decreasing for a given
// table.
type SchemaState int32

const (
	// NotFound marks a table whose containing database failed schema
	// creation; it is permanently skipped by the dispatcher.
	NotFound SchemaState = iota
	// NotCreated is the initial state: the parser has seen the table but
	// no schema worker has started on it yet.
	NotCreated
	// Creating means a schema worker has claimed the table's DDL.
	Creating
	// Created means the table's DDL has been applied; data jobs may be
	// dispatched.
	Created
	// DataDone means every data job for the table has been dispatched and
	// acknowledged; only index work remains.
	DataDone
	// AllDone means indexes have been built (or data restore was skipped
	// entirely for a no-data table).
	AllDone
)

func (s SchemaState) String() string {
	switch s {
	case NotFound:
		return "NOT_FOUND"
	case NotCreated:
		return "NOT_CREATED"
	case Creating:
		return "CREATING"
	case Created:
		return "CREATED"
	case DataDone:
		return "DATA_DONE"
	case AllDone:
		return "ALL_DONE"
	default:
		return fmt.Sprintf("SchemaState(%d)", int32(s))
	}
}

// TableKind distinguishes ordinary tables from views and sequences, which
// never receive data jobs.
type TableKind int32

const (
	Base TableKind = iota
	View
	Sequence
)

func (k TableKind) String() string {
	switch k {
	case Base:
		return "BASE"
	case View:
		return "VIEW"
	case Sequence:
		return "SEQUENCE"
	default:
		return fmt.Sprintf("TableKind(%d)", int32(k))
	}
}

// TableIdent identifies a table by its destination schema and its name in
// the source dump.
type TableIdent struct {
	TargetSchema string
	SourceName   string
}

func (t TableIdent) String() string {
	return fmt.Sprintf("%s.%s", t.TargetSchema, t.SourceName)
}

// RestoreJob is one unit of data-load work: a single chunk belonging to one
// table, produced by the parser and consumed by exactly one data worker.
type RestoreJob struct {
	ID        string
	Table     TableIdent
	ChunkPath string
	ChunkNum  int
	Size      int64
}

// DatabaseState tracks the schema lifecycle of one target database. A
// database that failed schema creation is NotFound, and every table inside
// it is permanently undispatchable. The dispatcher reads SchemaState from
// the fallback scan without taking a per-table lock first, so it is kept as
// an atomic rather than guarded by a mutex.
type DatabaseState struct {
	Name  string
	state int32 // atomic, holds a SchemaState
}

// NewDatabaseState creates a database in NotCreated state.
func NewDatabaseState(name string) *DatabaseState {
	return &DatabaseState{Name: name, state: int32(NotCreated)}
}

// State returns the database's current schema state.
func (d *DatabaseState) State() SchemaState {
	return SchemaState(atomic.LoadInt32(&d.state))
}

// SetState publishes a new schema state for the database.
func (d *DatabaseState) SetState(s SchemaState) {
	atomic.StoreInt32(&d.state, int32(s))
}

// MarkFailed marks the database as having failed schema creation; every
// table inside it becomes permanently undispatchable.
func (d *DatabaseState) MarkFailed() {
	d.SetState(NotFound)
}
