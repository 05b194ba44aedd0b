// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for downloading a track:
//  1. [LoadingView] : Authenticate and fetch the track's metadata
//  2. [FileListView] : Browse the available audio descriptors
//  3. [ConfirmView] : Confirm the download
//  4. [DownloadView] : Monitor real-time byte progress
//  5. [ResultView] : Display the transfer summary or failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the download loop, providing non-blocking status reporting during transfers.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
