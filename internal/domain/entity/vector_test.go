package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparseVector_Norm(t *testing.T) {
	v := SparseVector{0: 3, 4: 4}
	assert.InDelta(t, 5.0, v.Norm(), 1e-12)

	assert.Equal(t, 0.0, SparseVector{}.Norm())
}

func TestSparseVector_Dot(t *testing.T) {
	a := SparseVector{0: 1, 1: 2, 5: 3}
	b := SparseVector{1: 4, 5: 1, 9: 7}

	assert.InDelta(t, 11.0, a.Dot(b), 1e-12)
	assert.InDelta(t, 11.0, b.Dot(a), 1e-12)
	assert.Equal(t, 0.0, a.Dot(SparseVector{2: 1}))
}

func TestSparseVector_Cosine_SelfIsOne(t *testing.T) {
	v := SparseVector{0: 0.5, 3: 1.2, 7: 0.01}
	assert.InDelta(t, 1.0, v.Cosine(v), 1e-9)
}

func TestSparseVector_Cosine_Symmetric(t *testing.T) {
	a := SparseVector{0: 1, 1: 2}
	b := SparseVector{1: 1, 2: 5}

	assert.InDelta(t, a.Cosine(b), b.Cosine(a), 1e-12)
}

func TestSparseVector_Cosine_Disjoint(t *testing.T) {
	a := SparseVector{0: 1, 1: 1}
	b := SparseVector{2: 1, 3: 1}

	assert.Equal(t, 0.0, a.Cosine(b))
}

func TestSparseVector_Cosine_ZeroVector(t *testing.T) {
	a := SparseVector{0: 1}
	assert.Equal(t, 0.0, a.Cosine(SparseVector{}))
	assert.Equal(t, 0.0, SparseVector{}.Cosine(a))
}

func TestSparseVector_Clone(t *testing.T) {
	a := SparseVector{0: 1, 1: 2}
	b := a.Clone()
	b[0] = 99

	assert.Equal(t, 1.0, a[0])
}

func TestArticleVector_Validate(t *testing.T) {
	valid := func() *ArticleVector {
		return &ArticleVector{
			ID:              NewArticleID("key"),
			Weights:         SparseVector{0: 1.5, 3: 0.2},
			SnapshotVersion: 1,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("zero snapshot version", func(t *testing.T) {
		av := valid()
		av.SnapshotVersion = 0
		assert.Error(t, av.Validate())
	})

	t.Run("negative weight", func(t *testing.T) {
		av := valid()
		av.Weights[1] = -0.5
		assert.Error(t, av.Validate())
	})

	t.Run("non-finite weight", func(t *testing.T) {
		av := valid()
		av.Weights[1] = math.NaN()
		assert.Error(t, av.Validate())
	})
}

func TestArticleVector_Current(t *testing.T) {
	av := &ArticleVector{ID: NewArticleID("key"), SnapshotVersion: 2}

	assert.True(t, av.Current(2))
	assert.False(t, av.Current(3))

	av.Stale = true
	assert.False(t, av.Current(2))
}
