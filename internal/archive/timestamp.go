package archive

import (
	"io/fs"
	"time"
)

// TimestampSource derives the authorial timestamp for a source file.
//
// The default is file mtime; specialized environments substitute their own
// strategy (e.g. commit time from version-control history). The source is
// passed explicitly through the collector and engine rather than held in
// package state.
type TimestampSource interface {
	Timestamp(path string, info fs.FileInfo) (time.Time, error)
}

// ModTimeSource derives timestamps from filesystem modification time,
// truncated to one-second granularity to survive copy and archive round-trips.
type ModTimeSource struct{}

func (ModTimeSource) Timestamp(path string, info fs.FileInfo) (time.Time, error) {
	return info.ModTime().Truncate(time.Second), nil
}

// FixedSource reports the same timestamp for every file. Used by tests.
type FixedSource struct {
	T time.Time
}

func (s FixedSource) Timestamp(path string, info fs.FileInfo) (time.Time, error) {
	return s.T.Truncate(time.Second), nil
}
