package memory

// nextID returns an id greater than every id in existing and greater than
// highWater, the largest id this collection has ever issued. An empty,
// never-used collection starts at 1.
//
// Tracking highWater is what keeps ids from being recycled: deleting the
// newest record and creating another must not hand the old id out again.
func nextID(existing []int64, highWater int64) int64 {
	maxID := highWater
	for _, id := range existing {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}
