// Package programs parses program (.list) files and resolves them into reference graphs.
//
// A program file is a line-oriented playlist: song references, #Section
// markers that open named subprograms, and an optional {Title} override.
// [Parse] turns file contents into ordered items; [Resolver] turns items into
// concrete version/program references, creating placeholder songs and
// subprograms as needed; [Resynchronizer] re-derives an existing program's
// references from its source file as new content becomes available.
//
// Resolution is strictly sequential, never parallelized across items or
// program files, so two concurrent imports cannot create duplicate
// subprograms for the same section title. The resolver builds one level of
// children per invocation; [Resolver.Flatten] walks the full tree with an
// explicit visited set to stay cycle-safe.
package programs
