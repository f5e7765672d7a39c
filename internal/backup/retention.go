package backup

import (
	"sort"
	"time"
)

// ObjectInfo is a stored snapshot as seen by the retention planner.
type ObjectInfo struct {
	Key          string    `json:"key"`
	LastModified time.Time `json:"last_modified"`
	SizeBytes    int64     `json:"size_bytes"`
}

// PlanRetention decides which snapshots survive a pruning pass. Three
// snapshots are always protected regardless of retainCount:
//
//   - the newest snapshot
//   - among the older snapshots, the newest taken on a Sunday (weekly anchor)
//   - among the older snapshots, the newest taken on the 1st of a month
//     (monthly anchor)
//
// The newest snapshot never doubles as an anchor; a Sunday backup at the head
// of the list must not cost the previous week its checkpoint. The remaining
// slots up to retainCount are filled newest-first. A snapshot that satisfies
// several rules occupies one slot, not three. Everything else is returned in
// del.
func PlanRetention(objects []ObjectInfo, retainCount int) (keep, del []ObjectInfo) {
	if len(objects) == 0 {
		return nil, nil
	}

	sorted := make([]ObjectInfo, len(objects))
	copy(sorted, objects)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastModified.After(sorted[j].LastModified)
	})

	protected := map[string]bool{sorted[0].Key: true}

	for _, o := range sorted[1:] {
		if o.LastModified.UTC().Weekday() == time.Sunday {
			protected[o.Key] = true
			break
		}
	}
	for _, o := range sorted[1:] {
		if o.LastModified.UTC().Day() == 1 {
			protected[o.Key] = true
			break
		}
	}

	kept := make(map[string]bool, retainCount)
	for _, o := range sorted {
		if protected[o.Key] {
			kept[o.Key] = true
			keep = append(keep, o)
		}
	}
	for _, o := range sorted {
		if len(kept) >= retainCount {
			break
		}
		if !kept[o.Key] {
			kept[o.Key] = true
			keep = append(keep, o)
		}
	}

	for _, o := range sorted {
		if !kept[o.Key] {
			del = append(del, o)
		}
	}
	return keep, del
}
