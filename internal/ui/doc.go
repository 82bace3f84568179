// Package ui implements an interactive terminal link editor using bubbletea's Elm architecture.
//
// The directory tree is drawn twice, once as the source column and once as
// the target column, with a gutter between them where connections are
// plotted as sampled bezier curves. Every row owns one anchor per column;
// folding a directory unmounts the anchors of the rows it hides.
//
// The [Model] drives a [linker.Editor]: keyboard gestures start, finish and
// cancel a pending connection, the viewport reports anchor visibility through
// an observer so partners scrolled out of view show up as "+N" badges, and
// debounced layout versions arrive as messages that trigger a redraw.
//
// Keyboard navigation uses vim-style bindings (j/k, tab, space, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
