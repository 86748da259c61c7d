package jobs

import "errors"

var (
	// ErrNotFound indicates the job id was never created or already reaped.
	ErrNotFound = errors.New("job not found")

	// ErrTerminal indicates an update was attempted on a terminal job.
	ErrTerminal = errors.New("job is terminal")

	// ErrDuplicateID indicates a Create with an id that already exists.
	ErrDuplicateID = errors.New("job id already exists")
)
