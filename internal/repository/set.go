package repository

import "github.com/alexanderramin/gantry/internal/db"

// Set bundles the repositories a use case needs. Services keep one built over
// the database for reads and build another over the tx inside UnitOfWork.
type Set struct {
	Projects     ProjectRepo
	Tasks        TaskRepo
	Predecessors PredecessorRepo
	Resources    ResourceRepo
	Allocations  AllocationRepo
	Sequences    ProjectSequenceRepo
}

func NewSQLiteSet(conn db.DBTX) Set {
	return Set{
		Projects:     NewSQLiteProjectRepo(conn),
		Tasks:        NewSQLiteTaskRepo(conn),
		Predecessors: NewSQLitePredecessorRepo(conn),
		Resources:    NewSQLiteResourceRepo(conn),
		Allocations:  NewSQLiteAllocationRepo(conn),
		Sequences:    NewSQLiteProjectSequenceRepo(conn),
	}
}
