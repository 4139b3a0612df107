package delta

// GroupByEntity partitions observations by entity. Each observation lands in
// exactly one group, and within a group observations keep input order.
func GroupByEntity(observations []Observation) Groups {
	groups := make(Groups)
	for _, obs := range observations {
		groups[obs.EntityID] = append(groups[obs.EntityID], obs)
	}
	return groups
}
