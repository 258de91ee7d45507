package graph

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when Load is given no nodes.
var ErrEmptyDataset = errors.New("dataset has no nodes")

// DataIntegrityError reports a relationship whose endpoint does not exist, or
// a node whose kind is unknown.
type DataIntegrityError struct {
	Index   int    // edge index, or node index for kind errors
	Source  string // edge source (empty for kind errors)
	Target  string // edge target (empty for kind errors)
	Missing string // the unresolved node id
	Reason  string
}

func (e *DataIntegrityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("data integrity: %s", e.Reason)
	}
	return fmt.Sprintf("data integrity: link %d (%s -> %s) references unknown node %q",
		e.Index, e.Source, e.Target, e.Missing)
}

// DuplicateIDError reports two nodes sharing an id.
type DuplicateIDError struct {
	ID     string
	First  int
	Second int
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate node id %q (nodes %d and %d)", e.ID, e.First, e.Second)
}
