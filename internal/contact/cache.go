package contact

// Reaction cache layout: speed triple then position triple, each ordered
// normal, tangent U, tangent V.
const (
	speedOffset    = 0
	positionOffset = 3
	slotSize       = 6
)

// Handle identifies one slot of a ReactionCache. The zero Handle is never
// valid. A handle goes stale when its slot is released; stale handles read
// as absent and writes through them are dropped.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

type cacheSlot struct {
	values [slotSize]float64
	gen    uint32
	live   bool
}

// ReactionCache owns fixed-size multiplier slots for tracked contacts. Each
// live slot belongs to exactly one contact.
//
// Acquire and Release must not run concurrently with other cache calls.
// Reads and writes through distinct handles may run concurrently.
type ReactionCache struct {
	slots []cacheSlot
	free  []uint32
}

func NewReactionCache() *ReactionCache {
	return &ReactionCache{}
}

// Acquire returns a fresh zeroed slot.
func (c *ReactionCache) Acquire() Handle {
	var idx uint32
	if n := len(c.free); n > 0 {
		idx = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		c.slots = append(c.slots, cacheSlot{})
		idx = uint32(len(c.slots) - 1)
	}
	s := &c.slots[idx]
	s.gen++
	s.live = true
	s.values = [slotSize]float64{}
	return Handle{index: idx, gen: s.gen}
}

// Release returns the slot to the free list. Releasing a stale handle is a no-op.
func (c *ReactionCache) Release(h Handle) {
	s := c.slot(h)
	if s == nil {
		return
	}
	s.live = false
	c.free = append(c.free, h.index)
}

// Valid reports whether h refers to a live slot.
func (c *ReactionCache) Valid(h Handle) bool { return c.slot(h) != nil }

// Len returns the number of live slots.
func (c *ReactionCache) Len() int { return len(c.slots) - len(c.free) }

func (c *ReactionCache) slot(h Handle) *cacheSlot {
	if c == nil || h.IsZero() || int(h.index) >= len(c.slots) {
		return nil
	}
	s := &c.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return s
}

func (c *ReactionCache) load(h Handle, offset int) ([3]float64, bool) {
	s := c.slot(h)
	if s == nil {
		return [3]float64{}, false
	}
	return [3]float64{s.values[offset], s.values[offset+1], s.values[offset+2]}, true
}

func (c *ReactionCache) store(h Handle, offset int, v [3]float64) bool {
	s := c.slot(h)
	if s == nil {
		return false
	}
	copy(s.values[offset:offset+3], v[:])
	return true
}

// Speed returns the velocity-level multipliers stored in h.
func (c *ReactionCache) Speed(h Handle) ([3]float64, bool) { return c.load(h, speedOffset) }

// Position returns the position-level multipliers stored in h.
func (c *ReactionCache) Position(h Handle) ([3]float64, bool) { return c.load(h, positionOffset) }

// SetSpeed overwrites the velocity-level multipliers of h.
func (c *ReactionCache) SetSpeed(h Handle, v [3]float64) bool { return c.store(h, speedOffset, v) }

// SetPosition overwrites the position-level multipliers of h.
func (c *ReactionCache) SetPosition(h Handle, v [3]float64) bool {
	return c.store(h, positionOffset, v)
}

// CacheRef binds a handle to the cache that issued it. The zero CacheRef
// means "no warm start available".
type CacheRef struct {
	Cache  *ReactionCache
	Handle Handle
}

// Ref is shorthand for CacheRef{Cache: c, Handle: h}.
func (c *ReactionCache) Ref(h Handle) CacheRef { return CacheRef{Cache: c, Handle: h} }

// IsZero reports whether r carries no binding at all.
func (r CacheRef) IsZero() bool { return r.Cache == nil && r.Handle.IsZero() }

// Valid reports whether r refers to a live slot.
func (r CacheRef) Valid() bool { return r.Cache.Valid(r.Handle) }
