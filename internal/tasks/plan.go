package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/sortifyr/internal/models"
)

// Route is one playlist level edge: tracks of Source are added to Target.
type Route struct {
	Source  models.Playlist `json:"source"`
	Target  models.Playlist `json:"target"`
	LinkIDs []int           `json:"link_ids"` // Links that produced this route
}

// SkippedLink is a link that could not be expanded.
type SkippedLink struct {
	Link   models.Link `json:"link"`
	Reason string      `json:"reason"`
}

// RoutePlan is the expansion of every link into routes.
type RoutePlan struct {
	Links   []models.Link `json:"links"`
	Routes  []Route       `json:"routes"`
	Skipped []SkippedLink `json:"skipped,omitempty"`
}

// Targets groups routes by target playlist id, in the order the routes appear.
func (p *RoutePlan) Targets() map[int][]Route {
	targets := make(map[int][]Route)
	for _, r := range p.Routes {
		targets[r.Target.ID] = append(targets[r.Target.ID], r)
	}
	return targets
}

type catalog struct {
	roots     []models.Directory
	playlists map[int]models.Playlist
}

func newCatalog(export *models.LinkExport) catalog {
	c := catalog{roots: export.Directories, playlists: make(map[int]models.Playlist)}
	models.Walk(export.Directories, func(d models.Directory, _ int) bool {
		for _, p := range d.Playlists {
			c.playlists[p.ID] = p
		}
		return true
	})
	for _, p := range export.Playlists {
		c.playlists[p.ID] = p
	}
	return c
}

// expand returns the playlists a link end stands for: the playlist itself, or
// the playlists directly inside a directory.
func (c catalog) expand(directoryID, playlistID int) ([]models.Playlist, error) {
	switch {
	case directoryID != 0:
		d, ok := models.FindDirectory(c.roots, directoryID)
		if !ok {
			return nil, fmt.Errorf("directory %d not found", directoryID)
		}
		return d.Playlists, nil
	case playlistID != 0:
		p, ok := c.playlists[playlistID]
		if !ok {
			return nil, fmt.Errorf("playlist %d not found", playlistID)
		}
		return []models.Playlist{p}, nil
	}
	return nil, fmt.Errorf("missing end")
}

// PlanRoutes expands directory links into playlist level routes.
//
// Routes are unique per source and target pair and sorted by target then
// source id. A playlist never routes into itself.
func PlanRoutes(export *models.LinkExport) *RoutePlan {
	return planRoutes(export, nil)
}

func planRoutes(export *models.LinkExport, each func(i int, routes int)) *RoutePlan {
	c := newCatalog(export)
	plan := &RoutePlan{Links: export.Links, Routes: []Route{}}

	type pair struct{ source, target int }
	index := make(map[pair]int)

	for i, l := range export.Links {
		sources, err := c.expand(l.SourceDirectoryID, l.SourcePlaylistID)
		if err != nil {
			plan.Skipped = append(plan.Skipped, SkippedLink{Link: l, Reason: "source: " + err.Error()})
			continue
		}
		targets, err := c.expand(l.TargetDirectoryID, l.TargetPlaylistID)
		if err != nil {
			plan.Skipped = append(plan.Skipped, SkippedLink{Link: l, Reason: "target: " + err.Error()})
			continue
		}

		added := 0
		for _, s := range sources {
			for _, t := range targets {
				if s.ID == t.ID {
					continue
				}
				k := pair{s.ID, t.ID}
				if at, ok := index[k]; ok {
					plan.Routes[at].LinkIDs = append(plan.Routes[at].LinkIDs, l.ID)
					continue
				}
				index[k] = len(plan.Routes)
				plan.Routes = append(plan.Routes, Route{Source: s, Target: t, LinkIDs: []int{l.ID}})
				added++
			}
		}
		if each != nil {
			each(i, added)
		}
	}

	sort.SliceStable(plan.Routes, func(i, j int) bool {
		a, b := plan.Routes[i], plan.Routes[j]
		if a.Target.ID != b.Target.ID {
			return a.Target.ID < b.Target.ID
		}
		return a.Source.ID < b.Source.ID
	})
	return plan
}

// Plan loads the catalog and expands its links into routes.
func (e *LinkEngine) Plan(ctx context.Context, progress chan<- ProgressUpdate) (*RoutePlan, error) {
	loaded, err := e.Load(ctx, progress)
	if err != nil {
		return nil, err
	}

	total := len(loaded.Export.Links)
	plan := planRoutes(loaded.Export, func(i, routes int) {
		e.sendProgress(progress, planLinkUpdate(i+1, total, routes))
	})

	for _, s := range plan.Skipped {
		e.logger.Warn("link skipped", "link", s.Link.String(), "reason", s.Reason)
	}
	e.sendProgress(progress, planDoneUpdate(plan))
	return plan, nil
}
