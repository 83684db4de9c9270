package hub

import (
	"time"

	"github.com/Ahmed-S-Salim/greenofig-sub002/internal/model"
)

// Event is one user-facing notification produced by the classifier. It lives
// only for the duration of a delivery; the pipeline persists a history row
// and the ephemeral value is discarded.
type Event struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    model.Category `json:"category"`
	URL         string         `json:"url"`
	At          time.Time      `json:"at"`
}

var categoryURLs = map[model.Category]string{
	model.CategoryAppointment: "/appointments",
	model.CategoryForm:        "/forms",
	model.CategoryMessage:     "/messages",
	model.CategoryCall:        "/call",
	model.CategoryGeneral:     "/dashboard",
}

// ResolveURL maps a category to its deep-link target. Total: unknown
// categories land on the dashboard.
func ResolveURL(category model.Category) string {
	if url, ok := categoryURLs[category]; ok {
		return url
	}
	return "/dashboard"
}
