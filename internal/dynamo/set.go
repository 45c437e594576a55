package dynamo

import "fmt"

// ID addresses a particle in a Set. The generation distinguishes a live
// particle from an earlier occupant of the same slot, so IDs held by
// springs or callers never silently alias a different particle.
type ID struct {
	Index uint32
	Gen   uint32
}

// NoID is the zero ID; it never refers to a live particle.
var NoID = ID{}

func (id ID) String() string {
	return fmt.Sprintf("#%d.%d", id.Index, id.Gen)
}

type slot struct {
	gen  uint32
	live bool
	p    Particle
}

// Set is an arena of particles. Removal frees a slot for reuse without
// renumbering any other particle. Iteration is in ascending slot order.
type Set struct {
	slots []slot
	free  []uint32
	live  int
	keys  map[string]ID
}

func NewSet() *Set {
	return &Set{keys: make(map[string]ID)}
}

// Add inserts p and returns its ID. Mass must be finite and positive and
// both positions finite. Particles with a non-empty Key must be unique by
// key.
func (s *Set) Add(p Particle) (ID, error) {
	if err := checkMass(p.Mass); err != nil {
		return NoID, err
	}
	if !p.IsValid() {
		return NoID, Invalid("particle", "position", p.Pos)
	}
	if p.Key != "" {
		if _, dup := s.keys[p.Key]; dup {
			return NoID, &ConfigError{Component: "particle", Field: "key", Value: p.Key, Wrapped: ErrDuplicateKey}
		}
	}

	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}

	sl := &s.slots[idx]
	sl.gen++
	sl.live = true
	sl.p = p
	s.live++

	id := ID{Index: idx, Gen: sl.gen}
	if p.Key != "" {
		s.keys[p.Key] = id
	}
	return id, nil
}

// Remove deletes the particle. The slot's generation is kept so the next
// occupant gets a fresh ID.
func (s *Set) Remove(id ID) error {
	sl, ok := s.slot(id)
	if !ok {
		return &ConfigError{Component: "particle", Field: "id", Value: id, Wrapped: ErrUnknownParticle}
	}
	if sl.p.Key != "" {
		delete(s.keys, sl.p.Key)
	}
	sl.live = false
	sl.p = Particle{}
	s.free = append(s.free, id.Index)
	s.live--
	return nil
}

func (s *Set) slot(id ID) (*slot, bool) {
	if int(id.Index) >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[id.Index]
	if !sl.live || sl.gen != id.Gen {
		return nil, false
	}
	return sl, true
}

// Contains reports whether id refers to a live particle.
func (s *Set) Contains(id ID) bool {
	_, ok := s.slot(id)
	return ok
}

// Get returns a pointer to the particle. The pointer is valid until the
// next Add, which may grow the arena.
func (s *Set) Get(id ID) (*Particle, bool) {
	sl, ok := s.slot(id)
	if !ok {
		return nil, false
	}
	return &sl.p, true
}

// Lookup returns the ID registered under key.
func (s *Set) Lookup(key string) (ID, bool) {
	id, ok := s.keys[key]
	return id, ok
}

// Len returns the number of live particles.
func (s *Set) Len() int { return s.live }

// Slots returns the arena size. Buffers indexed by ID.Index need this length.
func (s *Set) Slots() int { return len(s.slots) }

// Each calls fn for every live particle in slot order.
func (s *Set) Each(fn func(id ID, p *Particle)) {
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.live {
			continue
		}
		fn(ID{Index: uint32(i), Gen: sl.gen}, &sl.p)
	}
}

// IDs returns the live IDs in slot order.
func (s *Set) IDs() []ID {
	ids := make([]ID, 0, s.live)
	s.Each(func(id ID, _ *Particle) { ids = append(ids, id) })
	return ids
}

// Clone returns a deep copy sharing no storage with s.
func (s *Set) Clone() *Set {
	c := &Set{
		slots: make([]slot, len(s.slots)),
		free:  make([]uint32, len(s.free)),
		live:  s.live,
		keys:  make(map[string]ID, len(s.keys)),
	}
	copy(c.slots, s.slots)
	copy(c.free, s.free)
	for k, v := range s.keys {
		c.keys[k] = v
	}
	return c
}
