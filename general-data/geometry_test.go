package generaldata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectContainsIsHalfOpen(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 100, H: 50}

	assert.True(t, r.Contains(Vector2f{X: 10, Y: 10}))
	assert.True(t, r.Contains(Vector2f{X: 109.9, Y: 59.9}))
	assert.False(t, r.Contains(Vector2f{X: 110, Y: 20}))
	assert.False(t, r.Contains(Vector2f{X: 20, Y: 60}))
	assert.False(t, Rect{W: 0, H: 10}.Contains(Vector2f{}))
}

func TestRectIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
		ok   bool
	}{
		{"overlap", Rect{0, 0, 100, 100}, Rect{50, 50, 100, 100}, Rect{50, 50, 50, 50}, true},
		{"touching edges", Rect{0, 0, 100, 100}, Rect{100, 0, 10, 10}, Rect{}, false},
		{"contained", Rect{0, 0, 100, 100}, Rect{10, 10, 5, 5}, Rect{10, 10, 5, 5}, true},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 10, 10}, Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersect(tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRectUnionIgnoresEmpty(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	assert.Equal(t, a, a.Union(Rect{}))
	assert.Equal(t, a, Rect{}.Union(a))
	assert.Equal(t, Rect{X: 0, Y: 0, W: 30, H: 20}, a.Union(Rect{X: 20, Y: 10, W: 10, H: 10}))
}

func TestRectScaleGrowsOutwards(t *testing.T) {
	r := Rect{X: 1, Y: 1, W: 3, H: 3}
	assert.Equal(t, Rect{X: 1, Y: 1, W: 5, H: 5}, r.Scale(1.5))
	assert.Equal(t, r, r.Scale(1))
}

func TestRectClamp(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 100}
	p := r.Clamp(Vector2f{X: 150, Y: -3})
	assert.True(t, r.Contains(p))
	assert.Equal(t, 0.0, p.Y)
	assert.Less(t, p.X, 100.0)
}

func TestRegionAdd(t *testing.T) {
	var g Region
	g = g.Add(Rect{X: 0, Y: 0, W: 10, H: 10})
	g = g.Add(Rect{X: 2, Y: 2, W: 2, H: 2})
	assert.Len(t, g, 1, "covered rectangle must not be added")

	g = g.Add(Rect{X: 50, Y: 50, W: 5, H: 5})
	g = g.Add(Rect{X: -1, Y: -1, W: 100, H: 100})
	assert.Equal(t, Region{{X: -1, Y: -1, W: 100, H: 100}}, g)

	g = g.Add(Rect{})
	assert.Len(t, g, 1)
}

func TestRegionClip(t *testing.T) {
	g := Region{{X: -10, Y: -10, W: 20, H: 20}, {X: 500, Y: 500, W: 5, H: 5}}
	clipped := g.Clip(Rect{X: 0, Y: 0, W: 100, H: 100})
	assert.Equal(t, Region{{X: 0, Y: 0, W: 10, H: 10}}, clipped)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 10, H: 10}, clipped.Bounds())
}
