package domain

// GroupReceptions partitions receptions by message id. Groups appear in the
// order their message id is first seen and keep their members in input order.
func GroupReceptions(receptions []Reception) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, r := range receptions {
		i, ok := index[r.MessageID]
		if !ok {
			i = len(groups)
			index[r.MessageID] = i
			groups = append(groups, Group{MessageID: r.MessageID})
		}
		groups[i].Receptions = append(groups[i].Receptions, r)
	}
	return groups
}

// Dataset is the result of strict ingestion: the receptions kept for
// computation and the rows that were dropped.
type Dataset struct {
	Receptions []Reception
	Dropped    []*FieldError

	// Order lists message ids in the order they first appear in the source,
	// across kept and dropped rows. Repeats are allowed.
	Order []string
}

// See records id in Order unless it repeats the previous entry.
func (d *Dataset) See(id string) {
	if id == "" || (len(d.Order) > 0 && d.Order[len(d.Order)-1] == id) {
		return
	}
	d.Order = append(d.Order, id)
}

// Append adds the rows and order of other to d.
func (d *Dataset) Append(other Dataset) {
	d.Receptions = append(d.Receptions, other.Receptions...)
	d.Dropped = append(d.Dropped, other.Dropped...)
	for _, id := range other.Order {
		d.See(id)
	}
}

// Groups partitions the kept receptions like GroupReceptions and adds an
// empty group for every message whose rows were all dropped, so that the
// message surfaces as ErrEmptyGroup instead of vanishing. Groups follow
// Order; ids missing from it go last, kept before dropped.
func (d Dataset) Groups() []Group {
	kept := GroupReceptions(d.Receptions)
	byID := make(map[string]Group, len(kept))
	for _, g := range kept {
		byID[g.MessageID] = g
	}
	for _, fe := range d.Dropped {
		if _, ok := byID[fe.MessageID]; fe.MessageID != "" && !ok {
			byID[fe.MessageID] = Group{MessageID: fe.MessageID}
		}
	}

	groups := make([]Group, 0, len(byID))
	take := func(id string) {
		if g, ok := byID[id]; ok {
			groups = append(groups, g)
			delete(byID, id)
		}
	}
	for _, id := range d.Order {
		take(id)
	}
	for _, g := range kept {
		take(g.MessageID)
	}
	for _, fe := range d.Dropped {
		take(fe.MessageID)
	}
	return groups
}
