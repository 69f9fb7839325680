package domain

import "slices"

// Collection is one user's ordered ranking for a single media kind,
// partitioned into the three sentiment sub-sequences. Within a
// sub-sequence items are ordered by descending preference (rank 0 = best).
type Collection struct {
	MediaType MediaKind
	bands     map[Sentiment][]*RatedItem
}

// NewCollection creates an empty collection for a media kind.
func NewCollection(kind MediaKind) *Collection {
	return &Collection{
		MediaType: kind,
		bands:     make(map[Sentiment][]*RatedItem, len(SentimentOrder)),
	}
}

// BuildCollection orders items of the given kind into a collection.
// Items are ranked by descending score within their band; ties break by
// earlier timestamp, then id, so repeated builds are deterministic.
func BuildCollection(kind MediaKind, items []*RatedItem) *Collection {
	c := NewCollection(kind)
	for _, item := range items {
		if item.MediaType != kind {
			continue
		}
		c.bands[item.Sentiment] = append(c.bands[item.Sentiment], item)
	}
	for _, s := range SentimentOrder {
		slices.SortStableFunc(c.bands[s], func(a, b *RatedItem) int {
			switch {
			case a.Score > b.Score:
				return -1
			case a.Score < b.Score:
				return 1
			}
			if cmp := a.Timestamp.Compare(b.Timestamp); cmp != 0 {
				return cmp
			}
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		})
	}
	return c
}

// Band returns the ordered sub-sequence for a sentiment tier.
func (c *Collection) Band(s Sentiment) []*RatedItem {
	return c.bands[s]
}

// Insert splices item into the given sentiment sub-sequence at rank.
// Ranks past the end append (a "too close to call" placement can land
// past the last peer).
func (c *Collection) Insert(s Sentiment, rank int, item *RatedItem) {
	band := c.bands[s]
	if rank < 0 {
		rank = 0
	}
	if rank > len(band) {
		rank = len(band)
	}
	c.bands[s] = slices.Insert(band, rank, item)
}

// Remove takes the item with the given id out of its sub-sequence and
// returns it, or nil if the collection does not hold it.
func (c *Collection) Remove(itemID string) *RatedItem {
	for _, s := range SentimentOrder {
		for i, item := range c.bands[s] {
			if item.ID == itemID {
				c.bands[s] = slices.Delete(c.bands[s], i, i+1)
				return item
			}
		}
	}
	return nil
}

// Items returns the full collection: the three sub-sequences concatenated
// in fixed sentiment order, with no gaps or duplicated ranks.
func (c *Collection) Items() []*RatedItem {
	out := make([]*RatedItem, 0, c.Len())
	for _, s := range SentimentOrder {
		out = append(out, c.bands[s]...)
	}
	return out
}

// Len returns the total number of items across all sub-sequences.
func (c *Collection) Len() int {
	n := 0
	for _, s := range SentimentOrder {
		n += len(c.bands[s])
	}
	return n
}

// Deduplicate enforces the collection's dedup invariant: no two items may
// share an external catalog id within the same media kind. For each
// duplicated id only the highest-scoring member survives; ties keep the
// first seen. Items without an external id are never duplicates.
// Returns the survivors in input order and the discarded items.
func Deduplicate(items []*RatedItem) (kept, discarded []*RatedItem) {
	best := make(map[string]*RatedItem)
	for _, item := range items {
		if item.ExternalID == "" {
			continue
		}
		key := string(item.MediaType) + ":" + item.ExternalID
		if cur, ok := best[key]; !ok || item.Score > cur.Score {
			best[key] = item
		}
	}
	for _, item := range items {
		if item.ExternalID == "" {
			kept = append(kept, item)
			continue
		}
		key := string(item.MediaType) + ":" + item.ExternalID
		if best[key] == item {
			kept = append(kept, item)
		} else {
			discarded = append(discarded, item)
		}
	}
	return kept, discarded
}
