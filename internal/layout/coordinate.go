package layout

import (
	"errors"
	"fmt"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
)

// Coordinate identifies one shift cell by line, process, and shift.
type Coordinate struct {
	LineID    string       `json:"line_id"`
	ProcessID string       `json:"process_id"`
	Shift     models.Shift `json:"shift"`
}

// Validate checks that all coordinate fields are present and the shift is
// a known value.
func (c Coordinate) Validate() error {
	if c.LineID == "" || c.ProcessID == "" {
		return errors.New("layout: coordinate requires line and process ids")
	}
	switch c.Shift {
	case models.ShiftDay, models.ShiftNight:
		return nil
	default:
		return fmt.Errorf("layout: unknown shift %q", c.Shift)
	}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s/%s/%s", c.LineID, c.ProcessID, c.Shift)
}

// ErrIdenticalCoordinates rejects a swap whose source and target are the
// same cell. Callers are expected to short-circuit this before sending.
var ErrIdenticalCoordinates = errors.New("layout: swap coordinates are identical")

// NotFoundError reports a reference that does not resolve in the store.
type NotFoundError struct {
	Kind string // "line", "process", "slot", "worker"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("layout: %s %q not found", e.Kind, e.ID)
}

// OccupiedElsewhereError reports that the worker being assigned already
// occupies a different cell. Retrying with force moves the worker.
type OccupiedElsewhereError struct {
	WorkerID string
	Location Coordinate
}

func (e *OccupiedElsewhereError) Error() string {
	return fmt.Sprintf("layout: worker %q already assigned at %s", e.WorkerID, e.Location)
}
