package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewArticleID_Deterministic(t *testing.T) {
	key := "https://www.theguardian.com/commentisfree/2020/sep/22/some-article"

	first := NewArticleID(key)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, NewArticleID(key))
	}
}

func TestNewArticleID_FixedLength(t *testing.T) {
	keys := []string{
		"",
		"a",
		"https://example.com/article",
		"https://example.com/" + string(make([]byte, 4096)),
		"unicode-ключ-記事",
	}

	for _, key := range keys {
		id := NewArticleID(key)
		assert.Len(t, string(id), IDLength)
		assert.NoError(t, id.Validate())
	}
}

func TestNewArticleID_DistinctKeys(t *testing.T) {
	a := NewArticleID("https://example.com/article-1")
	b := NewArticleID("https://example.com/article-2")

	assert.NotEqual(t, a, b)
}

func TestArticleID_Validate(t *testing.T) {
	tests := []struct {
		name    string
		id      ArticleID
		wantErr bool
	}{
		{"valid derived id", NewArticleID("key"), false},
		{"too short", ArticleID("abc123"), true},
		{"uppercase hex", ArticleID("ABCDEF0123456789ABCDEF0123456789"), true},
		{"non-hex characters", ArticleID("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"), true},
		{"empty", ArticleID(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArticleMetadata_Validate(t *testing.T) {
	valid := func() *ArticleMetadata {
		return &ArticleMetadata{
			ID:          NewArticleID("https://example.com/a"),
			Source:      "the_guardian",
			NaturalKey:  "https://example.com/a",
			Section:     "opinion",
			Title:       "A title",
			PublishedAt: time.Now(),
			WebURL:      "https://example.com/a",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing source", func(t *testing.T) {
		m := valid()
		m.Source = ""
		assert.Error(t, m.Validate())
	})

	t.Run("missing title", func(t *testing.T) {
		m := valid()
		m.Title = ""
		assert.Error(t, m.Validate())
	})

	t.Run("identity does not match natural key", func(t *testing.T) {
		m := valid()
		m.NaturalKey = "https://example.com/b"
		err := m.Validate()
		assert.Error(t, err)

		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "id", verr.Field)
	})
}

func TestArticleContent_Validate(t *testing.T) {
	content := &ArticleContent{
		ID:          NewArticleID("key"),
		Body:        "",
		RetrievedAt: time.Now(),
	}

	// Empty bodies are valid: downstream stages handle empty token streams.
	assert.NoError(t, content.Validate())
}

func TestProcessingState_ZeroValue(t *testing.T) {
	var state ProcessingState

	assert.False(t, state.HasMetadata)
	assert.False(t, state.HasContent)
	assert.False(t, state.HasPreprocessed)
	assert.False(t, state.HasVector)
	assert.False(t, state.VectorIsStale)
}
