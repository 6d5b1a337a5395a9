package engine

import (
	"cmp"
	"slices"
)

// ReadyIDs returns the ids of every ready unit in roster order.
func ReadyIDs(units []Unit) []string {
	ids := make([]string, 0, len(units))
	for _, u := range units {
		if u.Ready() {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// AnyReady reports whether at least one unit is ready.
func AnyReady(units []Unit) bool {
	for _, u := range units {
		if u.Ready() {
			return true
		}
	}
	return false
}

// CurrentID picks the ready unit that joined earliest. The second result is
// false when nobody is ready.
func CurrentID(units []Unit) (string, bool) {
	var (
		best  Unit
		found bool
	)
	for _, u := range units {
		if !u.Ready() {
			continue
		}
		if !found || u.AddedAt < best.AddedAt {
			best = u
			found = true
		}
	}
	return best.ID, found
}

// SortRoster returns the display order: ready units first, then ascending by
// the smallest positive timer, then ascending by AddedAt. The input slice is
// not modified.
func SortRoster(units []Unit) []Unit {
	out := slices.Clone(units)
	slices.SortStableFunc(out, compareRoster)
	return out
}

func compareRoster(a, b Unit) int {
	if ar, br := a.Ready(), b.Ready(); ar != br {
		if ar {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.nextEvent(), b.nextEvent()); c != 0 {
		return c
	}
	return cmp.Compare(a.AddedAt, b.AddedAt)
}
