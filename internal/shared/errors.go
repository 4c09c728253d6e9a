package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Datastore errors
	ErrSongNotFound    = fmt.Errorf("song not found")
	ErrVersionNotFound = fmt.Errorf("version not found")
	ErrProgramNotFound = fmt.Errorf("program not found")
	ErrDuplicateTitle  = fmt.Errorf("title already exists")

	// Blob and render service errors
	ErrBlobStore      = fmt.Errorf("blob store operation failed")
	ErrRenderRequest  = fmt.Errorf("render request failed")
	ErrQueueClosed    = fmt.Errorf("render queue closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
