package models

import "sort"

// MergeView builds the note list shown to callers: the remote snapshot
// overlaid by local notes with the same id, minus tombstoned ids, newest first.
// Neither input slice is modified.
func MergeView(remote, local []Note, tombstones map[string]struct{}) []Note {
	byID := make(map[string]Note, len(remote)+len(local))
	for _, n := range remote {
		byID[n.Id] = n
	}
	for _, n := range local {
		byID[n.Id] = n
	}
	for id := range tombstones {
		delete(byID, id)
	}

	view := make([]Note, 0, len(byID))
	for _, n := range byID {
		view = append(view, n)
	}
	SortNotes(view)
	return view
}

// SortNotes orders notes descending by SortKey, then CreatedAt, then id so the
// order is total.
func SortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if ka, kb := a.SortKey(), b.SortKey(); !ka.Equal(kb) {
			return ka.After(kb)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Id > b.Id
	})
}
