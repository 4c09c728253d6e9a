// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
//
// Key Implementations:
//   - [SongRepository] : Song persistence with case-insensitive title lookups and tag merging
//   - [VersionRepository] : Append-only version lineage with chain-tip and label queries
//   - [ProgramRepository] : Program persistence with exact-title lookups and wholesale reference replacement
//
// Songs and programs support soft archival; archived rows are excluded from
// lookups by default. Versions are never updated or deleted — the lineage is
// append-only and mutations happen only by inserting a new chain tip.
//
// Sequence numbers provide stable, human-readable ordering (e.g., song #42, program #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
