package manifold

import (
	"context"
	"testing"

	"contact3d/internal/body"
	"contact3d/internal/collide"
	"contact3d/internal/contact"
	"contact3d/internal/lcp"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scene struct {
	ground, a, b *collide.Model
}

func newScene() scene {
	ground := collide.NewModel(1, body.NewFixed("ground"), collide.Box(rl.Vector3{X: 10, Y: 1, Z: 10}))
	ground.Body.Friction = 0.9

	ba := body.New("a", 1, body.SphereInertia(1, 0.5))
	ba.Position = mgl64.Vec3{0, 1.5, 0}
	ba.Friction = 0.3
	bb := body.New("b", 1, body.SphereInertia(1, 0.5))
	bb.Position = mgl64.Vec3{0, 2.5, 0}

	return scene{
		ground: ground,
		a:      collide.NewModel(2, ba, collide.Sphere(0.5)),
		b:      collide.NewModel(3, bb, collide.Sphere(0.5)),
	}
}

func candidate(a, b *collide.Model, feature int, dist float64) collide.Candidate {
	pa := a.Body.Position
	return collide.Candidate{
		ModelA:   a,
		ModelB:   b,
		Feature:  feature,
		PA:       pa,
		PB:       pa.Add(mgl64.Vec3{0, dist, 0}),
		Normal:   mgl64.Vec3{0, 1, 0},
		Distance: dist,
	}
}

func TestUpdateCreatesContactsInKeyOrder(t *testing.T) {
	s := newScene()
	m := NewContainer(2)

	cands := []collide.Candidate{
		candidate(s.a, s.b, 0, -0.01),
		candidate(s.a, s.ground, 1, -0.02),
		candidate(s.a, s.ground, 0, -0.02),
	}
	require.NoError(t, m.Update(context.Background(), cands))

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 3, m.Added())
	assert.Equal(t, 0, m.Removed())
	assert.Equal(t, 3, m.Cache().Len())

	var keys []collide.Key
	m.Each(func(k collide.Key, c *contact.Contact) {
		keys = append(keys, k)
		assert.True(t, c.Cache().Valid())
	})
	assert.Equal(t, []collide.Key{
		{A: 2, B: 1, Feature: 0},
		{A: 2, B: 1, Feature: 1},
		{A: 2, B: 3, Feature: 0},
	}, keys)
}

func TestUpdatePersistsContactAndCacheSlot(t *testing.T) {
	s := newScene()
	m := NewContainer(4)
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, []collide.Candidate{candidate(s.a, s.ground, 0, -0.01)}))
	key := collide.Key{A: 2, B: 1}
	first, ok := find(m, key)
	require.True(t, ok)
	ref := first.Cache()

	n, u, v := first.Rows()
	n.L, u.L, v.L = 3, 0.5, -0.25
	first.ConstraintsLiFetchSuggestedSpeedSolution()

	require.NoError(t, m.Update(ctx, []collide.Candidate{candidate(s.a, s.ground, 0, -0.03)}))
	again, ok := find(m, key)
	require.True(t, ok)
	assert.Same(t, first, again)
	assert.Equal(t, ref, again.Cache())
	assert.Equal(t, 0, m.Added())
	assert.Equal(t, -0.03, again.ContactDistance())

	n, u, v = again.Rows()
	assert.Zero(t, n.L, "reset clears multipliers")
	again.ConstraintsLiLoadSuggestedSpeedSolution()
	assert.Equal(t, []float64{3, 0.5, -0.25}, []float64{n.L, u.L, v.L})
}

func TestUpdateReleasesVanishedContacts(t *testing.T) {
	s := newScene()
	m := NewContainer(1)
	ctx := context.Background()

	require.NoError(t, m.Update(ctx, []collide.Candidate{
		candidate(s.a, s.ground, 0, -0.01),
		candidate(s.a, s.b, 0, -0.01),
	}))
	gone, _ := find(m, collide.Key{A: 2, B: 3})
	handle := gone.Cache().Handle

	require.NoError(t, m.Update(ctx, []collide.Candidate{candidate(s.a, s.ground, 0, -0.01)}))
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, m.Removed())
	assert.Equal(t, 1, m.Cache().Len())
	assert.False(t, m.Cache().Valid(handle))
	assert.True(t, gone.Cache().IsZero(), "dropped contact is unbound")

	_, ok := find(m, collide.Key{A: 2, B: 3})
	assert.False(t, ok)
}

func TestUpdatePairProperties(t *testing.T) {
	s := newScene()
	m := NewContainer(1)

	// fixed body handed in as A is moved to the B side
	require.NoError(t, m.Update(context.Background(), []collide.Candidate{
		candidate(s.ground, s.a, 0, -0.01),
		candidate(s.a, s.b, 0, -0.01),
	}))

	static, ok := find(m, collide.Key{A: 2, B: 1})
	require.True(t, ok)
	assert.Equal(t, contact.Static, static.Kind())
	assert.InDelta(t, 0.3, static.Friction(), 1e-12, "pair friction is the smaller one")
	assertVec(t, mgl64.Vec3{0, -1, 0}, static.ContactNormal())

	pair, ok := find(m, collide.Key{A: 2, B: 3})
	require.True(t, ok)
	assert.Equal(t, contact.TwoBody, pair.Kind())
	assert.InDelta(t, 0.3, pair.Friction(), 1e-12)
}

func TestUpdateDuplicateKeysUseFirst(t *testing.T) {
	s := newScene()
	m := NewContainer(1)
	require.NoError(t, m.Update(context.Background(), []collide.Candidate{
		candidate(s.a, s.b, 0, -0.01),
		candidate(s.a, s.b, 0, -0.5),
	}))
	assert.Equal(t, 1, m.Len())
	c, _ := find(m, collide.Key{A: 2, B: 3})
	assert.Equal(t, -0.01, c.ContactDistance())
}

func TestUpdateCanceled(t *testing.T) {
	s := newScene()
	m := NewContainer(2)
	cands := func() []collide.Candidate {
		return []collide.Candidate{candidate(s.a, s.b, 0, -0.01)}
	}
	require.NoError(t, m.Update(context.Background(), cands()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Update(ctx, cands())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBulkProtocol(t *testing.T) {
	s := newScene()
	m := NewContainer(2)
	require.NoError(t, m.Update(context.Background(), []collide.Candidate{
		candidate(s.a, s.ground, 0, -0.02),
		candidate(s.a, s.b, 0, 0.01),
	}))

	d := lcp.NewDescriptor()
	d.BeginInsertion()
	m.InjectConstraints(d)
	d.EndInsertion()
	assert.Len(t, d.Rows(), 6)

	m.ConstraintsBiReset()
	m.ConstraintsBiLoadC(100, 0.5, true)

	var bias []float64
	m.Each(func(_ collide.Key, c *contact.Contact) {
		n, _, _ := c.Rows()
		bias = append(bias, n.B)
		n.L = 7
	})
	assert.InDeltaSlice(t, []float64{-0.5, 0}, bias, 1e-12)

	m.ConstraintsFetchReact(2)
	m.ConstraintsLiFetchSuggestedPositionSolution()
	m.Each(func(k collide.Key, c *contact.Contact) {
		assert.InDelta(t, 14, c.ContactForce().X(), 1e-12)
		p, ok := m.Cache().Position(c.Cache().Handle)
		require.True(t, ok)
		assert.Equal(t, 7.0, p[0])
	})
}

func TestClear(t *testing.T) {
	s := newScene()
	m := NewContainer(1)
	require.NoError(t, m.Update(context.Background(), []collide.Candidate{candidate(s.a, s.b, 0, 0)}))
	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Cache().Len())
	assert.Equal(t, 1, m.Removed())
}

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], 1e-9)
	}
}

// find looks key up among the active contacts.
func find(m *Container, key collide.Key) (*contact.Contact, bool) {
	var found *contact.Contact
	m.Each(func(k collide.Key, c *contact.Contact) {
		if k == key {
			found = c
		}
	})
	return found, found != nil
}
