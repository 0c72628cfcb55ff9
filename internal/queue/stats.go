package queue

// Stats aggregates item counts per key lifecycle state. It is always
// derived from a store snapshot on demand; nothing maintains these
// numbers incrementally.
type Stats struct {
	Total    int
	Pending  int
	Active   int
	Complete int
	Error    int
}

// ComputeStats derives counts from a snapshot.
func ComputeStats(items []*Item) Stats {
	stats := Stats{Total: len(items)}
	for _, item := range items {
		switch {
		case item.Status == StatusPending:
			stats.Pending++
		case item.IsActive():
			stats.Active++
		case item.Status == StatusComplete:
			stats.Complete++
		case item.Status == StatusError:
			stats.Error++
		}
	}
	return stats
}

// Stats derives counts from the store's current snapshot.
func (s *Store) Stats() Stats {
	return ComputeStats(s.All())
}
