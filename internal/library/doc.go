// Package library implements the write-path logic of the versioned song datastore.
//
// [Detector] classifies a candidate file against a song's existing version
// history (new, unchanged, unchanged-by-content, changed). [Lineage] appends
// versions to a song's chain tip and guarantees song rows exist, recovering
// from concurrent creation. [BlobStore] abstracts binary artifact storage;
// [RenderQueue] fires best-effort notation render requests from a background
// worker without ever blocking or failing the import path.
package library
