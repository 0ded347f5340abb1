// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through a single playlist assembly:
//  1. [SongListView] : Preview the songs that will be searched
//  2. [ConfirmView] : Confirm playlist creation
//  3. [AssembleView] : Monitor progress updates from the engine
//  4. [ResultView] : Display the report with found and missing songs
//
// Progress updates flow through a channel from a [tasks.Assembler]; the final report arrives as a separate message.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
