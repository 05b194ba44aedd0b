// Package models defines domain entities and persistence interfaces for the spotgrab download service.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: Database-backed models with full lifecycle management
//   - [DownloadRun] : One pipeline invocation, from credential resolution through download
//   - [CachedTrack] : Track metadata snapshots cached by hex track id
//
// 2. Run bookkeeping values used across packages
//   - [RunStatus] : Terminal states of a pipeline run
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
