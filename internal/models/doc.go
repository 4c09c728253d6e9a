// Package models defines domain entities and persistence interfaces for the songbook import service.
//
// The package contains two categories of types:
//
// 1. Transient values produced and consumed by the import pipeline:
//   - [ParsedProgram] : Result of parsing a program (.list) file
//   - [ParsedItem] : One line of a program file (song reference or section marker)
//   - [Ref] : A concrete or simulated reference to a version or program row
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Song] : A titled logical item owning an append-only version history
//   - [SongVersion] : One immutable snapshot of a song's content, linked to its predecessor
//   - [Program] : An ordered playlist of version references and nested subprograms
//
// All persistent entities implement the Model interface providing ID generation, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
