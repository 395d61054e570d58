package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestEventInvokesInOrder(t *testing.T) {
	var e Event[int]
	var got []int
	e.AddListener(func(v int) { got = append(got, v) })
	e.AddListener(nil)
	e.AddListener(func(v int) { got = append(got, v*10) })

	e.Invoke(2)
	assert.Equal(t, []int{2, 20}, got)
	assert.Equal(t, 2, e.ListenerCount())

	e.RemoveAllListeners()
	e.Invoke(3)
	assert.Equal(t, []int{2, 20}, got)
	assert.Zero(t, e.ListenerCount())
}

func TestContactEventsFromWorld(t *testing.T) {
	w := newWorld(t, nil)
	events := &ContactEvents{}
	w.SetListener(events)

	var entered, exited []ContactPair
	events.Enter.AddListener(func(p ContactPair) { entered = append(entered, p) })
	events.Exit.AddListener(func(p ContactPair) { exited = append(exited, p) })

	ground := addGround(w)
	s := addSphere(w, mgl64.Vec3{0, 1.5, 0}, 0.5)
	run(t, w, 2)
	assert.Equal(t, []ContactPair{{A: s, B: ground}}, entered)
	assert.Empty(t, exited)

	s.Body.Position = mgl64.Vec3{0, 4, 0}
	run(t, w, 1)
	assert.Equal(t, []ContactPair{{A: s, B: ground}}, exited)
}
