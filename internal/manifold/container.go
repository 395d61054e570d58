// Package manifold keeps the set of persistent contacts between steps and
// forwards the constraint protocol to each of them.
package manifold

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"contact3d/internal/collide"
	"contact3d/internal/contact"
	"contact3d/internal/lcp"

	"golang.org/x/sync/errgroup"
)

// Container owns the contacts and the reaction cache their warm-start
// values live in.
type Container struct {
	Workers int

	cache    *contact.ReactionCache
	contacts map[collide.Key]*contact.Contact
	active   []*contact.Contact // ordered by key
	keys     []collide.Key

	added, removed int
	lastLogTime    time.Time // rate-limit contact count logs
}

func NewContainer(workers int) *Container {
	if workers <= 0 {
		workers = 1
	}
	return &Container{
		Workers:  workers,
		cache:    contact.NewReactionCache(),
		contacts: make(map[collide.Key]*contact.Contact),
	}
}

type resetJob struct {
	c *contact.Contact
	p contact.Params
}

// Update replaces the active set with the given candidates. Contacts whose
// key persists are reset in place and keep their cache slot; new keys get a
// fresh slot and vanished ones give theirs back. Candidates are sorted in
// place. When two candidates share a key only the first is used.
func (m *Container) Update(ctx context.Context, candidates []collide.Candidate) error {
	for i := range candidates {
		// contacts against a fixed body always use the static variant
		if candidates[i].ModelA.Body.Fixed && !candidates[i].ModelB.Body.Fixed {
			candidates[i] = candidates[i].Swapped()
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Key().Less(candidates[j].Key())
	})

	m.added, m.removed = 0, 0
	m.active = m.active[:0]
	m.keys = m.keys[:0]
	seen := make(map[collide.Key]bool, len(candidates))
	var jobs []resetJob

	for _, cd := range candidates {
		key := cd.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		p := params(cd)
		c, ok := m.contacts[key]
		if ok {
			jobs = append(jobs, resetJob{c: c, p: p})
		} else {
			p.Cache = m.cache.Ref(m.cache.Acquire())
			c = contact.New(p)
			m.contacts[key] = c
			m.added++
		}
		m.active = append(m.active, c)
		m.keys = append(m.keys, key)
	}

	for key, c := range m.contacts {
		if seen[key] {
			continue
		}
		m.cache.Release(c.Cache().Handle)
		c.Unbind()
		delete(m.contacts, key)
		m.removed++
	}

	if err := m.reset(ctx, jobs); err != nil {
		return fmt.Errorf("manifold: reset contacts: %w", err)
	}

	if (m.added > 0 || m.removed > 0) && time.Since(m.lastLogTime) >= time.Second {
		m.lastLogTime = time.Now()
		log.Printf("Contacts: %d active (+%d -%d), %d cache slots",
			len(m.active), m.added, m.removed, m.cache.Len())
	}
	return nil
}

// reset runs the in-place resets of persisting contacts on Workers goroutines.
// Each contact is touched by exactly one job.
func (m *Container) reset(ctx context.Context, jobs []resetJob) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.Workers)
	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			job.c.Reset(job.p)
			return nil
		})
	}
	return g.Wait()
}

func params(cd collide.Candidate) contact.Params {
	a, b := cd.ModelA.Body, cd.ModelB.Body
	p := contact.Params{
		ModelA:   cd.ModelA.ID,
		ModelB:   cd.ModelB.ID,
		VarA:     a.Variables(),
		FrameA:   a.Frame(),
		PA:       cd.PA,
		PB:       cd.PB,
		Normal:   cd.Normal,
		Distance: cd.Distance,
		Friction: math.Min(a.Friction, b.Friction),
	}
	if !b.Fixed {
		p.VarB = b.Variables()
		p.FrameB = b.Frame()
	}
	return p
}

// Clear drops every contact and frees its cache slot.
func (m *Container) Clear() {
	for key, c := range m.contacts {
		m.cache.Release(c.Cache().Handle)
		c.Unbind()
		delete(m.contacts, key)
	}
	m.removed = len(m.active)
	m.added = 0
	m.active = m.active[:0]
	m.keys = m.keys[:0]
}

// Len returns the number of active contacts.
func (m *Container) Len() int { return len(m.active) }

// Added returns how many contacts the last Update created.
func (m *Container) Added() int { return m.added }

// Removed returns how many contacts the last Update dropped.
func (m *Container) Removed() int { return m.removed }

// Cache returns the reaction cache backing the contacts.
func (m *Container) Cache() *contact.ReactionCache { return m.cache }

// Each calls fn for every active contact in key order.
func (m *Container) Each(fn func(key collide.Key, c *contact.Contact)) {
	for i, c := range m.active {
		fn(m.keys[i], c)
	}
}

func (m *Container) InjectConstraints(d *lcp.Descriptor) {
	for _, c := range m.active {
		c.InjectConstraints(d)
	}
}

func (m *Container) ConstraintsBiReset() {
	for _, c := range m.active {
		c.ConstraintsBiReset()
	}
}

func (m *Container) ConstraintsBiLoadC(factor, recoveryClamp float64, doClamp bool) {
	for _, c := range m.active {
		c.ConstraintsBiLoadC(factor, recoveryClamp, doClamp)
	}
}

func (m *Container) ConstraintsFetchReact(factor float64) {
	for _, c := range m.active {
		c.ConstraintsFetchReact(factor)
	}
}

func (m *Container) ConstraintsLiLoadSuggestedSpeedSolution() {
	for _, c := range m.active {
		c.ConstraintsLiLoadSuggestedSpeedSolution()
	}
}

func (m *Container) ConstraintsLiLoadSuggestedPositionSolution() {
	for _, c := range m.active {
		c.ConstraintsLiLoadSuggestedPositionSolution()
	}
}

func (m *Container) ConstraintsLiFetchSuggestedSpeedSolution() {
	for _, c := range m.active {
		c.ConstraintsLiFetchSuggestedSpeedSolution()
	}
}

func (m *Container) ConstraintsLiFetchSuggestedPositionSolution() {
	for _, c := range m.active {
		c.ConstraintsLiFetchSuggestedPositionSolution()
	}
}
