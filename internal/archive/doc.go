// Package archive enumerates and classifies the source tree of externally authored artifacts.
//
// [Collector] walks a directory recursively, filters out noise (dotfiles, OS
// metadata, build files, dependency folders, audio files) and classifies each
// surviving file as text or binary. Classification is conservative: forced
// binary extensions, a NUL byte, invalid UTF-8, or a size over 100 KiB all
// mean binary.
//
// Authorial timestamps come from a [TimestampSource] passed explicitly to the
// collector, so environments that derive timestamps from something other than
// file mtime (e.g. version-control history) plug in a different strategy
// without any global state.
//
// [Watcher] provides a debounced fsnotify watch over archive directories for
// repeated dry-run scans.
package archive
