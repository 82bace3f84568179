package tasks

import (
	"fmt"

	"github.com/desertthunder/sortifyr/internal/formatter"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchDirectories Phase = iota
	FetchPlaylists
	FetchLinks
	ExpandLinks
	ExportLinks
)

func (p Phase) String() string {
	switch p {
	case FetchDirectories:
		return "fetch_directories"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchLinks:
		return "fetch_links"
	case ExpandLinks:
		return "expand_links"
	case ExportLinks:
		return "export_links"
	default:
		return ""
	}
}

func operationUpdate(endpoint endpointOperation, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}

func fetchedUpdate(res EndpointResult, phase Phase, step, total int) ProgressUpdate {
	if res.Error != nil {
		return ProgressUpdate{
			Phase:   phase,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Endpoint, res.Error),
		}
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d)", step, total, res.Endpoint, res.Count),
	}
}

func planLinkUpdate(step, total int, routes int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExpandLinks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Expanded link into %d routes", step, total, routes),
	}
}

func planDoneUpdate(plan *RoutePlan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExpandLinks,
		Step:    len(plan.Links),
		Total:   len(plan.Links),
		Message: fmt.Sprintf("Planned %d routes (%d links skipped)", len(plan.Routes), len(plan.Skipped)),
		Data:    plan,
	}
}

func exportingUpdate(step, total int, format formatter.Format) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLinks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, format),
	}
}

func exportCompletedUpdate(step, total int, res FormatExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLinks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, res.Format, res.File),
	}
}

func exportFailedUpdate(step, total int, res FormatExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLinks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Format, res.Error),
	}
}
