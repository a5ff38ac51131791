package presence

// tile is a room-local grid coordinate.
type tile struct {
	x, y int
}

// spatialIndex maps each occupied tile of one room to the set of player UIDs
// standing on it. It must change in the same critical section as the player
// records it mirrors; a window where the two disagree means a concurrent
// proximity scan sees stale occupancy.
type spatialIndex map[tile]map[string]struct{}

func newSpatialIndex() spatialIndex {
	return make(spatialIndex)
}

func (idx spatialIndex) add(x, y int, uid string) {
	t := tile{x, y}
	set, ok := idx[t]
	if !ok {
		set = make(map[string]struct{})
		idx[t] = set
	}
	set[uid] = struct{}{}
}

func (idx spatialIndex) remove(x, y int, uid string) {
	t := tile{x, y}
	set, ok := idx[t]
	if !ok {
		return
	}
	delete(set, uid)
	if len(set) == 0 {
		delete(idx, t)
	}
}

// at returns the UID set for a tile, or nil when empty. Callers must not
// mutate the returned set.
func (idx spatialIndex) at(x, y int) map[string]struct{} {
	return idx[tile{x, y}]
}

// occupied reports how many tiles currently hold at least one player.
func (idx spatialIndex) occupied() int {
	return len(idx)
}
