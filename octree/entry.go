package octree

import "sort"

// EntityID is the opaque identifier of an indexed entity.
type EntityID uint32

// entry is an entity stored in a node. Its identity is the id alone: two
// entries with the same id are the same entity even with different bounds.
type entry struct {
	id    EntityID
	bound BoundingBox
}

// entrySet is a set of entries ordered by id.
type entrySet []entry

func (s entrySet) search(id EntityID) (int, bool) {
	i := sort.Search(len(s), func(i int) bool {
		return s[i].id >= id
	})
	return i, i < len(s) && s[i].id == id
}

// insert adds e and reports whether no entry with the same id was present.
func (s *entrySet) insert(e entry) bool {
	i, found := s.search(e.id)
	if found {
		return false
	}

	*s = append(*s, entry{})
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = e
	return true
}

// remove deletes the entry with the given id and reports whether it existed.
func (s *entrySet) remove(id EntityID) bool {
	i, found := s.search(id)
	if !found {
		return false
	}

	*s = append((*s)[:i], (*s)[i+1:]...)
	return true
}

func (s entrySet) get(id EntityID) (entry, bool) {
	i, found := s.search(id)
	if !found {
		return entry{}, false
	}
	return s[i], true
}

// retain keeps the entries for which keep returns true, preserving order.
func (s *entrySet) retain(keep func(entry) bool) {
	kept := (*s)[:0]
	for _, e := range *s {
		if keep(e) {
			kept = append(kept, e)
		}
	}

	for i := len(kept); i < len(*s); i++ {
		(*s)[i] = entry{}
	}
	*s = kept
}
