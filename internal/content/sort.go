package content

import (
	"sort"
	"strings"
	"time"

	"finitefield.org/holding-web/internal/cms"
)

type sortKeyed interface {
	SortKey() int
}

// byOrder sorts ascending by sort (fallback order, else 0). Ties keep server order.
func byOrder[T sortKeyed](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SortKey() < items[j].SortKey()
	})
}

func byPillar(items []cms.ESGItem) {
	sort.SliceStable(items, func(i, j int) bool {
		pi := strings.ToLower(strings.TrimSpace(items[i].Pillar))
		pj := strings.ToLower(strings.TrimSpace(items[j].Pillar))
		if pi != pj {
			return pi < pj
		}
		return items[i].SortKey() < items[j].SortKey()
	})
}

func speechesNewestFirst(items []cms.Speech) {
	newestFirst(items, cms.Speech.Created)
}

func newsNewestFirst(items []cms.NewsItem) {
	newestFirst(items, cms.NewsItem.Published)
}

func postsNewestFirst(items []cms.Post) {
	newestFirst(items, cms.Post.Published)
}

// newestFirst sorts descending by date. Zero dates sink to the end.
func newestFirst[T any](items []T, date func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := date(items[i]), date(items[j])
		switch {
		case di.IsZero():
			return false
		case dj.IsZero():
			return true
		default:
			return di.After(dj)
		}
	})
}
