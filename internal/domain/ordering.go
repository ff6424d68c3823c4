package domain

// ChannelOrdering is the persisted, partial display-order record for one
// server: the category order plus, per category and per channel kind, the
// channel order. Ids absent from it are unordered-but-present; ids no longer
// live are stale and dropped on reconciliation. The remote service owns the
// record; the client only mirrors it.
type ChannelOrdering struct {
	Categories []CategoryID
	Channels   map[CategoryID]map[ChannelKind][]ChannelID
}

// ChannelOrder returns the persisted order for one (category, kind) pair,
// or nil when the record holds nothing for it.
func (o ChannelOrdering) ChannelOrder(category CategoryID, kind ChannelKind) []ChannelID {
	kinds, ok := o.Channels[category]
	if !ok {
		return nil
	}
	return kinds[kind]
}

// clone deep-copies the record so mutation helpers never touch their input.
func (o ChannelOrdering) clone() ChannelOrdering {
	out := ChannelOrdering{
		Categories: append([]CategoryID(nil), o.Categories...),
		Channels:   make(map[CategoryID]map[ChannelKind][]ChannelID, len(o.Channels)),
	}
	for category, kinds := range o.Channels {
		copied := make(map[ChannelKind][]ChannelID, len(kinds))
		for kind, ids := range kinds {
			copied[kind] = append([]ChannelID(nil), ids...)
		}
		out.Channels[category] = copied
	}
	return out
}

func (o *ChannelOrdering) setChannelOrder(category CategoryID, kind ChannelKind, ids []ChannelID) {
	if o.Channels == nil {
		o.Channels = map[CategoryID]map[ChannelKind][]ChannelID{}
	}
	if o.Channels[category] == nil {
		o.Channels[category] = map[ChannelKind][]ChannelID{}
	}
	o.Channels[category][kind] = ids
}

// Reconcile merges a live entity set with a persisted order into a total,
// duplicate-free display order. Persisted ids are emitted first, in persisted
// order, skipping ids that are no longer live and ids already consumed.
// Remaining live entities follow in their original live-collection order, so
// new entities always land after the known-ordered prefix. The result is a
// permutation of the live set regardless of how incomplete or stale the
// persisted order is.
func Reconcile[T any, K comparable](live []T, key func(T) K, persisted []K) []T {
	index := make(map[K]int, len(live))
	for i, item := range live {
		k := key(item)
		if _, ok := index[k]; !ok {
			index[k] = i
		}
	}

	out := make([]T, 0, len(live))
	consumed := make(map[K]struct{}, len(live))
	for _, k := range persisted {
		i, ok := index[k]
		if !ok {
			continue
		}
		if _, done := consumed[k]; done {
			continue
		}
		consumed[k] = struct{}{}
		out = append(out, live[i])
	}

	for _, item := range live {
		k := key(item)
		if _, done := consumed[k]; done {
			continue
		}
		consumed[k] = struct{}{}
		out = append(out, item)
	}

	return out
}

func ReconcileServers(live []Server, persisted []ServerID) []Server {
	return Reconcile(live, func(s Server) ServerID { return s.ID }, persisted)
}

// CategoryView is one category of a reconciled server layout: the category
// itself plus its two channel collections in display order.
type CategoryView struct {
	Category Category
	Text     []Channel
	Voice    []Channel
}

// ReconcileLayout applies Reconcile at both nesting levels: first the
// category order, then, independently per category and per kind, the channel
// order. Channels whose category is unknown are dropped from the layout; the
// live set remains the only source of membership.
func ReconcileLayout(categories []Category, channels []Channel, ordering ChannelOrdering) []CategoryView {
	byCategory := make(map[CategoryID]map[ChannelKind][]Channel, len(categories))
	for _, channel := range channels {
		kinds, ok := byCategory[channel.CategoryID]
		if !ok {
			kinds = map[ChannelKind][]Channel{}
			byCategory[channel.CategoryID] = kinds
		}
		kinds[channel.Kind] = append(kinds[channel.Kind], channel)
	}

	channelID := func(c Channel) ChannelID { return c.ID }

	ordered := Reconcile(categories, func(c Category) CategoryID { return c.ID }, ordering.Categories)
	views := make([]CategoryView, 0, len(ordered))
	for _, category := range ordered {
		kinds := byCategory[category.ID]
		views = append(views, CategoryView{
			Category: category,
			Text:     Reconcile(kinds[ChannelKindText], channelID, ordering.ChannelOrder(category.ID, ChannelKindText)),
			Voice:    Reconcile(kinds[ChannelKindVoice], channelID, ordering.ChannelOrder(category.ID, ChannelKindVoice)),
		})
	}

	return views
}

// LayoutOrdering snapshots a reconciled layout back into a complete ordering
// record. Every mutation helper must be seeded from this reconciled form,
// never from the raw persisted record: editing the raw record could
// resurrect a stale id or silently omit an entity the record never listed.
func LayoutOrdering(views []CategoryView) ChannelOrdering {
	ordering := ChannelOrdering{
		Categories: make([]CategoryID, 0, len(views)),
		Channels:   make(map[CategoryID]map[ChannelKind][]ChannelID, len(views)),
	}
	for _, view := range views {
		ordering.Categories = append(ordering.Categories, view.Category.ID)
		ordering.setChannelOrder(view.Category.ID, ChannelKindText, channelIDs(view.Text))
		ordering.setChannelOrder(view.Category.ID, ChannelKindVoice, channelIDs(view.Voice))
	}
	return ordering
}

func channelIDs(channels []Channel) []ChannelID {
	ids := make([]ChannelID, 0, len(channels))
	for _, channel := range channels {
		ids = append(ids, channel.ID)
	}
	return ids
}

// MoveUp swaps the element at index with its predecessor, returning a new
// slice. Out-of-range indices and the first position are no-ops.
func MoveUp[K comparable](order []K, index int) []K {
	return swapAdjacent(order, index-1, index)
}

// MoveDown swaps the element at index with its successor, returning a new
// slice. Out-of-range indices and the last position are no-ops.
func MoveDown[K comparable](order []K, index int) []K {
	return swapAdjacent(order, index, index+1)
}

func swapAdjacent[K comparable](order []K, left, right int) []K {
	out := append([]K(nil), order...)
	if left < 0 || right >= len(out) {
		return out
	}
	out[left], out[right] = out[right], out[left]
	return out
}

// MoveChannelUp returns a new record with the channel at index moved one slot
// earlier within its (category, kind) list. The record must be the
// reconciled ordering of the current layout.
func MoveChannelUp(ordering ChannelOrdering, category CategoryID, kind ChannelKind, index int) ChannelOrdering {
	out := ordering.clone()
	out.setChannelOrder(category, kind, MoveUp(out.ChannelOrder(category, kind), index))
	return out
}

// MoveChannelDown is the inverse of MoveChannelUp.
func MoveChannelDown(ordering ChannelOrdering, category CategoryID, kind ChannelKind, index int) ChannelOrdering {
	out := ordering.clone()
	out.setChannelOrder(category, kind, MoveDown(out.ChannelOrder(category, kind), index))
	return out
}

// MoveChannelToCategory returns a new record with the channel removed from
// the source category's list for the given kind and inserted into the target
// category's list. A negative or out-of-range position appends. The record
// must be the reconciled ordering of the current layout.
func MoveChannelToCategory(ordering ChannelOrdering, id ChannelID, from, to CategoryID, kind ChannelKind, position int) ChannelOrdering {
	out := ordering.clone()

	source := out.ChannelOrder(from, kind)
	remaining := make([]ChannelID, 0, len(source))
	for _, candidate := range source {
		if candidate == id {
			continue
		}
		remaining = append(remaining, candidate)
	}
	out.setChannelOrder(from, kind, remaining)

	target := append([]ChannelID(nil), out.ChannelOrder(to, kind)...)
	if position < 0 || position > len(target) {
		position = len(target)
	}
	target = append(target[:position], append([]ChannelID{id}, target[position:]...)...)
	out.setChannelOrder(to, kind, target)

	return out
}
