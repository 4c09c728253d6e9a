// Package tasks orchestrates the import pipeline.
//
// The core abstraction is ImportEngine, which sequences collection, change
// detection, lineage building, program resolution and resync across the
// configured source tree. Stages run in a fixed order with per-stage
// concurrency bounds; every per-item result is delivered immediately through
// a callback and a non-blocking progress channel, independent of whether the
// overall run later fails.
package tasks
