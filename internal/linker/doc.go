// package linker is the link-authoring core of sortifyr: anchors for the
// directories and playlists on either side of the canvas, their viewport
// visibility, the drag-to-connect gesture, and the connection graph that is
// loaded from and synced to the backend.
//
// An [Editor] owns all of that state. Renderers mount anchors with
// [Editor.RegisterAnchor], forward pointer input, and redraw from
// [Editor.Scene] when the layout version changes.
package linker
