// Package leaderboard ranks and paginates guild count tables.
//
// Ranking is pure: the engine borrows a snapshot of a count table for one
// call and retains nothing.
package leaderboard

import (
	"sort"

	"github.com/gamma-delta/tater-board/internal/guild"
)

// DefaultPageSize is how many entries a leaderboard page shows.
const DefaultPageSize = 10

// Entry is one ranked leaderboard row.
type Entry struct {
	Rank   int
	UserID string
	Count  uint64
}

// Standing is the requester's own rank and count over the full table,
// independent of the requested page.
type Standing struct {
	Rank  int
	Count uint64
}

// Page is one ranked, windowed view of a count table.
type Page struct {
	Entries      []Entry
	Requester    *Standing
	TotalEntries int
	TotalPages   int
}

// Rank sorts the table descending by count and returns the requested page
// window plus the requester's standing.
//
// Ties keep the table's own iteration order (insertion order for guild
// counts), so output is deterministic across runs and reloads. Pages past
// the end are empty, not an error. TotalPages is entries/pageSize + 1; an
// exact multiple of pageSize yields a trailing empty page, which downstream
// page footers rely on.
func Rank(table []guild.CountEntry, requesterID string, pageIndex, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageIndex < 0 {
		pageIndex = 0
	}

	sorted := make([]guild.CountEntry, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	page := Page{
		TotalEntries: len(sorted),
		TotalPages:   len(sorted)/pageSize + 1,
	}

	for rank0, entry := range sorted {
		if entry.UserID == requesterID {
			page.Requester = &Standing{Rank: rank0 + 1, Count: entry.Count}
			break
		}
	}

	skip := pageSize * pageIndex
	if skip >= len(sorted) {
		return page
	}
	window := sorted[skip:min(skip+pageSize, len(sorted))]
	page.Entries = make([]Entry, 0, len(window))
	for i, entry := range window {
		page.Entries = append(page.Entries, Entry{
			Rank:   skip + i + 1,
			UserID: entry.UserID,
			Count:  entry.Count,
		})
	}
	return page
}
