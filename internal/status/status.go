// Package status summarises content cache health for readiness checks.
package status

import (
	"sort"
	"strings"
	"time"

	"finitefield.org/holding-web/internal/cache"
)

const (
	StateOperational = "operational"
	StateWarming     = "warming"
	StateDegraded    = "degraded"
)

// Summary captures an overview of the content cache.
type Summary struct {
	State      string      `json:"state"`
	StateLabel string      `json:"state_label"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Components []Component `json:"components"`
	Incidents  []Incident  `json:"incidents,omitempty"`
}

// Ready reports whether no cached resource is failing.
func (s Summary) Ready() bool {
	return s.State != StateDegraded
}

// Component is the state of one cached resource/language pair.
type Component struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Incident describes a failing entry.
type Incident struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

// EntrySource lists cache entries. *cache.Store satisfies it.
type EntrySource interface {
	Entries() []cache.EntryInfo
}

// Summarize derives a localized summary from the collection entries in src.
// Detail entries (single posts, search queries) follow visitor input and are left out.
func Summarize(src EntrySource, lang string, now time.Time) Summary {
	entries := src.Entries()
	summary := Summary{State: StateOperational, UpdatedAt: now.UTC()}
	warming := false
	for _, e := range entries {
		if e.Key.IsDetail() {
			continue
		}
		name := e.Key.String()
		summary.Components = append(summary.Components, Component{
			Name:      name,
			Status:    componentStatus(e.Status),
			UpdatedAt: e.UpdatedAt,
		})
		switch e.Status {
		case cache.StatusError:
			msg := "unknown error"
			if e.Err != nil {
				msg = strings.TrimSpace(e.Err.Error())
			}
			summary.Incidents = append(summary.Incidents, Incident{Component: name, Error: msg})
		case cache.StatusIdle, cache.StatusLoading:
			warming = true
		}
	}
	sort.SliceStable(summary.Incidents, func(i, j int) bool {
		return summary.Incidents[i].Component < summary.Incidents[j].Component
	})
	switch {
	case len(summary.Incidents) > 0:
		summary.State = StateDegraded
	case warming:
		summary.State = StateWarming
	}
	summary.StateLabel = label(lang, summary.State)
	return summary
}

func componentStatus(s cache.Status) string {
	switch s {
	case cache.StatusSuccess:
		return StateOperational
	case cache.StatusError:
		return StateDegraded
	default:
		return StateWarming
	}
}

var labels = map[string]map[string]string{
	"en": {
		StateOperational: "All content sources operational",
		StateWarming:     "Content is loading",
		StateDegraded:    "Some content sources are failing",
	},
	"ar": {
		StateOperational: "جميع مصادر المحتوى تعمل",
		StateWarming:     "جاري تحميل المحتوى",
		StateDegraded:    "بعض مصادر المحتوى لا تعمل",
	},
}

func label(lang, state string) string {
	if m, ok := labels[strings.ToLower(lang)]; ok {
		return m[state]
	}
	return labels["en"][state]
}
