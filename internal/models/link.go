package models

import (
	"errors"
	"fmt"

	"github.com/desertthunder/sortifyr/internal/shared"
	"github.com/go-playground/validator/v10"
)

// Link is the persisted form of one directed edge.
//
// Exactly one of SourceDirectoryID/SourcePlaylistID and exactly one of
// TargetDirectoryID/TargetPlaylistID is non-zero. ID is zero for links that
// have not been stored yet.
type Link struct {
	ID                int `json:"id,omitempty" validate:"min=0"`
	SourceDirectoryID int `json:"source_directory_id,omitempty" validate:"min=0"`
	SourcePlaylistID  int `json:"source_playlist_id,omitempty" validate:"min=0"`
	TargetDirectoryID int `json:"target_directory_id,omitempty" validate:"min=0"`
	TargetPlaylistID  int `json:"target_playlist_id,omitempty" validate:"min=0"`
}

// SameEdge reports whether l and o reference the same source and target, ignoring ID.
func (l Link) SameEdge(o Link) bool {
	return l.SourceDirectoryID == o.SourceDirectoryID &&
		l.SourcePlaylistID == o.SourcePlaylistID &&
		l.TargetDirectoryID == o.TargetDirectoryID &&
		l.TargetPlaylistID == o.TargetPlaylistID
}

func (l Link) String() string {
	source := fmt.Sprintf("playlist %d", l.SourcePlaylistID)
	if l.SourceDirectoryID != 0 {
		source = fmt.Sprintf("directory %d", l.SourceDirectoryID)
	}
	target := fmt.Sprintf("playlist %d", l.TargetPlaylistID)
	if l.TargetDirectoryID != 0 {
		target = fmt.Sprintf("directory %d", l.TargetDirectoryID)
	}
	return source + " -> " + target
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(linkStructLevel, Link{})
	return v
}

func linkStructLevel(sl validator.StructLevel) {
	l := sl.Current().Interface().(Link)

	if (l.SourceDirectoryID == 0) == (l.SourcePlaylistID == 0) {
		sl.ReportError(l.SourceDirectoryID, "SourceDirectoryID", "source_directory_id", "one_source", "")
	}
	if (l.TargetDirectoryID == 0) == (l.TargetPlaylistID == 0) {
		sl.ReportError(l.TargetDirectoryID, "TargetDirectoryID", "target_directory_id", "one_target", "")
	}
	if l.SourceDirectoryID != 0 && l.SourceDirectoryID == l.TargetDirectoryID {
		sl.ReportError(l.TargetDirectoryID, "TargetDirectoryID", "target_directory_id", "no_self_link", "")
	}
	if l.SourcePlaylistID != 0 && l.SourcePlaylistID == l.TargetPlaylistID {
		sl.ReportError(l.TargetPlaylistID, "TargetPlaylistID", "target_playlist_id", "no_self_link", "")
	}
}

// Validate checks a single link record.
func (l Link) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, describe(err))
	}
	return nil
}

// ValidateLinks checks every record of a full-replacement link list.
func ValidateLinks(links []Link) error {
	if err := validate.Var(links, "dive"); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, describe(err))
	}
	return nil
}

// describe flattens validator errors into one readable line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return msg
}
