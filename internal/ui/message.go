package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sortifyr/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCatalogLoaded MsgKind = iota
	MsgLayout
	MsgSaved
)

type catalogData struct {
	directories []models.Directory
	playlists   []models.Playlist
	err         error
}

type savedData struct {
	links []models.Link
	err   error
}

// catalogLoadedMsg is the constructor for [MsgCatalogLoaded]
func catalogLoadedMsg(directories []models.Directory, playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgCatalogLoaded, data: catalogData{directories, playlists, err}}
}

// layoutMsg is the constructor for [MsgLayout]
func layoutMsg(version uint64) Msg {
	return Msg{kind: MsgLayout, data: version}
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(links []models.Link, err error) Msg {
	return Msg{kind: MsgSaved, data: savedData{links, err}}
}
