package linker

import (
	"fmt"
	"strconv"
	"strings"
)

// Side is the half of the canvas an anchor lives on.
type Side int

const (
	SideSource Side = iota
	SideTarget
)

func (s Side) String() string {
	switch s {
	case SideSource:
		return "source"
	case SideTarget:
		return "target"
	default:
		return ""
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideSource {
		return SideTarget
	}
	return SideSource
}

// EntityKind is the kind of entity an anchor represents.
type EntityKind int

const (
	KindDirectory EntityKind = iota + 1
	KindPlaylist
)

func (k EntityKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindPlaylist:
		return "playlist"
	default:
		return ""
	}
}

// AnchorRef points at exactly one directory or playlist.
type AnchorRef struct {
	Kind EntityKind
	ID   int
}

// DirectoryRef references the directory with id.
func DirectoryRef(id int) AnchorRef { return AnchorRef{Kind: KindDirectory, ID: id} }

// PlaylistRef references the playlist with id.
func PlaylistRef(id int) AnchorRef { return AnchorRef{Kind: KindPlaylist, ID: id} }

// IsZero reports whether r references nothing.
func (r AnchorRef) IsZero() bool { return r.Kind == 0 || r.ID == 0 }

func (r AnchorRef) String() string {
	return fmt.Sprintf("%s %d", r.Kind, r.ID)
}

// ParseRef parses a reference written as "<kind>:<id>", e.g. "directory:12"
// or "playlist:7". The kinds may be shortened to "dir"/"d" and "pl"/"p".
func ParseRef(s string) (AnchorRef, error) {
	kind, num, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return AnchorRef{}, fmt.Errorf("malformed reference %q, expected <kind>:<id>", s)
	}

	var ref AnchorRef
	switch strings.ToLower(kind) {
	case "directory", "dir", "d":
		ref.Kind = KindDirectory
	case "playlist", "pl", "p":
		ref.Kind = KindPlaylist
	default:
		return AnchorRef{}, fmt.Errorf("unknown entity kind %q", kind)
	}

	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return AnchorRef{}, fmt.Errorf("invalid entity id %q", num)
	}
	ref.ID = n
	return ref, nil
}

// AnchorID identifies one visual endpoint: an entity on one side.
type AnchorID string

// NewAnchorID derives the id of ref on side, e.g. "directory-12-source".
func NewAnchorID(ref AnchorRef, side Side) AnchorID {
	return AnchorID(ref.Kind.String() + "-" + strconv.Itoa(ref.ID) + "-" + side.String())
}

// ParseAnchorID is the inverse of [NewAnchorID].
func ParseAnchorID(id AnchorID) (AnchorRef, Side, error) {
	parts := strings.Split(string(id), "-")
	if len(parts) != 3 {
		return AnchorRef{}, 0, fmt.Errorf("malformed anchor id %q", id)
	}

	var ref AnchorRef
	switch parts[0] {
	case KindDirectory.String():
		ref.Kind = KindDirectory
	case KindPlaylist.String():
		ref.Kind = KindPlaylist
	default:
		return AnchorRef{}, 0, fmt.Errorf("unknown entity kind in anchor id %q", id)
	}

	n, err := strconv.Atoi(parts[1])
	if err != nil || n <= 0 {
		return AnchorRef{}, 0, fmt.Errorf("invalid entity id in anchor id %q", id)
	}
	ref.ID = n

	var side Side
	switch parts[2] {
	case SideSource.String():
		side = SideSource
	case SideTarget.String():
		side = SideTarget
	default:
		return AnchorRef{}, 0, fmt.Errorf("unknown side in anchor id %q", id)
	}

	return ref, side, nil
}

// Element is a non-owning handle to the rendered node of an anchor.
type Element interface {
	Bounds() Rect
}

// Anchor is a live, mounted endpoint.
type Anchor struct {
	ID      AnchorID
	Side    Side
	Ref     AnchorRef
	Element Element
}

// Center returns the attachment point of the anchor, or false when it has no element.
func (a Anchor) Center() (Point, bool) {
	if a.Element == nil {
		return Point{}, false
	}
	return a.Element.Bounds().Center(), true
}
