package dbpf

import "strings"

// Lookup is a secondary index over one package's entries for O(1)
// key lookups and fast name-substring filtering. It is a read-side
// convenience: it reflects the package at build time and is not kept in
// sync with later mutations.
type Lookup struct {
	entries   []*Entry
	types     map[uint32][]int
	groups    map[uint32][]int
	instances map[uint32][]int
	resources map[uint32][]int

	// nameChars maps each character to the set of entry positions whose
	// lowercase name contains it: a necessary-but-not-sufficient filter
	// confirmed by an exact substring check.
	nameChars map[rune]map[int]struct{}
	names     []string
}

// Query selects entries by any subset of the four key components plus an
// optional case-insensitive name substring. Nil fields match anything.
type Query struct {
	Type     *uint32
	Group    *uint32
	Instance *uint32
	Resource *uint32
	Name     string
}

// ID is a convenience for building query field pointers.
func ID(v uint32) *uint32 { return &v }

// BuildLookup indexes the package's entries.
func BuildLookup(p *Package) *Lookup {
	l := &Lookup{
		entries:   p.Entries,
		types:     make(map[uint32][]int),
		groups:    make(map[uint32][]int),
		instances: make(map[uint32][]int),
		resources: make(map[uint32][]int),
		nameChars: make(map[rune]map[int]struct{}),
		names:     make([]string, len(p.Entries)),
	}

	for i, e := range p.Entries {
		l.types[e.Type] = append(l.types[e.Type], i)
		l.groups[e.Group] = append(l.groups[e.Group], i)
		l.instances[e.Instance] = append(l.instances[e.Instance], i)
		if e.HasResource {
			l.resources[e.Resource] = append(l.resources[e.Resource], i)
		}

		name := strings.ToLower(e.Name)
		l.names[i] = name
		for _, ch := range name {
			set := l.nameChars[ch]
			if set == nil {
				set = make(map[int]struct{})
				l.nameChars[ch] = set
			}
			set[i] = struct{}{}
		}
	}
	return l
}

// Find returns the entries matching every constraint of q, in package
// order. An unmatched key value anywhere short-circuits to nil.
func (l *Lookup) Find(q Query) []*Entry {
	var sets []map[int]struct{}

	for _, sel := range []struct {
		value *uint32
		index map[uint32][]int
	}{
		{q.Type, l.types},
		{q.Group, l.groups},
		{q.Instance, l.instances},
		{q.Resource, l.resources},
	} {
		if sel.value == nil {
			continue
		}
		positions, ok := sel.index[*sel.value]
		if !ok {
			return nil
		}
		set := make(map[int]struct{}, len(positions))
		for _, i := range positions {
			set[i] = struct{}{}
		}
		sets = append(sets, set)
	}

	if q.Name != "" {
		name := strings.ToLower(q.Name)
		for _, ch := range name {
			set, ok := l.nameChars[ch]
			if !ok {
				return nil
			}
			sets = append(sets, set)
		}
	}

	if len(sets) == 0 {
		return nil
	}

	result := intersect(sets)

	var out []*Entry
	name := strings.ToLower(q.Name)
	for i := 0; i < len(l.entries); i++ {
		if _, ok := result[i]; !ok {
			continue
		}
		// The per-character sets only prove character membership;
		// confirm the actual substring on surviving candidates.
		if len(name) > 1 && !strings.Contains(l.names[i], name) {
			continue
		}
		out = append(out, l.entries[i])
	}
	return out
}

func intersect(sets []map[int]struct{}) map[int]struct{} {
	smallest := sets[0]
	for _, s := range sets[1:] {
		if len(s) < len(smallest) {
			smallest = s
		}
	}

	out := make(map[int]struct{}, len(smallest))
	for i := range smallest {
		keep := true
		for _, s := range sets {
			if _, ok := s[i]; !ok {
				keep = false
				break
			}
		}
		if keep {
			out[i] = struct{}{}
		}
	}
	return out
}

// Search scans entries linearly with the same constraints as Find,
// without building an index. firstOnly stops at the first match.
func Search(entries []*Entry, q Query, firstOnly bool) []*Entry {
	name := strings.ToLower(q.Name)
	var out []*Entry
	for _, e := range entries {
		if q.Type != nil && *q.Type != e.Type {
			continue
		}
		if q.Group != nil && *q.Group != e.Group {
			continue
		}
		if q.Instance != nil && *q.Instance != e.Instance {
			continue
		}
		if q.Resource != nil && (!e.HasResource || *q.Resource != e.Resource) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(e.Name), name) {
			continue
		}
		out = append(out, e)
		if firstOnly {
			break
		}
	}
	return out
}
