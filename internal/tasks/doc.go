// Package tasks implements the track download pipeline.
//
// The core abstraction is [DownloadEngine], which drives one retrieval run
// through its stages: credential resolution, session bootstrap, reference
// parsing, metadata fetch and validation, stream selection, and the chunked
// download loop. Every stage is a hard gate: the first failure terminates
// the run with a stage-tagged error and no automatic retry.
//
// Operations emit [ProgressUpdate] values via channels for non-blocking
// status reporting to CLI/UI layers. Download milestones use boundary
// crossing, not modulo arithmetic, so a chunk that steps over a granularity
// multiple always reports even when chunk sizes do not divide the
// granularity evenly.
package tasks
