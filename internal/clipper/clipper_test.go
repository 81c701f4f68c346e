package clipper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/llm"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
)

// --- Mocks ---
type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompt      string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, errors.New("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response, Usage: shared.TokenUsage{PromptTokens: 20, CompletionTokens: 10}}, nil
}

const recipePage = `
<html>
	<head>
		<title>Tasty Chicken Bake</title>
		<script>alert('bad');</script>
		<script type="application/ld+json">{"@type": "Recipe", "recipeIngredient": ["1 lb chicken breast"]}</script>
	</head>
	<body>
		<h1>Tasty Chicken Bake</h1>
		<div class="ads">Buy stuff!</div>
		<p>Bake the    chicken.</p>
		<script>more_bad_stuff()</script>
		<footer>Copyright 2024</footer>
	</body>
</html>`

// --- Tests ---

func TestFetchAndCleanHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(recipePage))
	}))
	defer ts.Close()

	c := NewClipper(&MockTextGenerator{}, zap.NewNop())
	page, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "Tasty Chicken Bake", page.title)
	assert.Contains(t, page.structuredData, "recipeIngredient")
	assert.NotContains(t, page.text, "alert('bad')")
	assert.NotContains(t, page.text, "Buy stuff!")
	assert.NotContains(t, page.text, "Copyright 2024")
	assert.Contains(t, page.text, "Bake the chicken.")
}

func TestClipURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(recipePage))
	}))
	defer ts.Close()

	t.Run("Success", func(t *testing.T) {
		gen := &MockTextGenerator{Response: `{
			"name": "",
			"meal_type": "dinner",
			"instructions": "Bake.",
			"calories": 500,
			"ingredients": [
				{"name": "chicken breast", "quantity": 1, "unit": "lb", "category": "Meat", "estimated_cost": 4.99},
				{"name": "salt", "quantity": 0, "unit": "pinch", "category": "Pantry", "estimated_cost": 0}
			]
		}`}

		meal, meta, err := NewClipper(gen, nil).ClipURL(context.Background(), ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "Clipper", meta.AgentName)
		assert.Equal(t, "Tasty Chicken Bake", meal.Name, "Expected page title as fallback name")
		assert.Equal(t, ts.URL, meal.SourceURL)
		require.Len(t, meal.Ingredients, 1)
		assert.Equal(t, "chicken breast", meal.Ingredients[0].Name)
		assert.Contains(t, gen.Prompt, "recipeIngredient")
	})

	t.Run("NoIngredients", func(t *testing.T) {
		gen := &MockTextGenerator{Response: `{"name": "Air", "ingredients": []}`}
		_, _, err := NewClipper(gen, nil).ClipURL(context.Background(), ts.URL)
		assert.ErrorIs(t, err, ErrNoIngredients)
	})

	t.Run("FetchError", func(t *testing.T) {
		_, _, err := NewClipper(&MockTextGenerator{}, nil).ClipURL(context.Background(), ts.URL+"/missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("AIError", func(t *testing.T) {
		_, _, err := NewClipper(&MockTextGenerator{ShouldError: true}, nil).ClipURL(context.Background(), ts.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ai extraction failed")
	})

	t.Run("BadJSON", func(t *testing.T) {
		_, _, err := NewClipper(&MockTextGenerator{Response: "not json"}, nil).ClipURL(context.Background(), ts.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse AI response")
	})
}

func TestTruncate(t *testing.T) {
	t.Run("ShortInputUnchanged", func(t *testing.T) {
		assert.Equal(t, "½ cup", truncate("½ cup", 100))
	})

	t.Run("StopsBeforeSplitRune", func(t *testing.T) {
		// "½" is two bytes; the limit lands between them.
		s := strings.Repeat("a", 9) + "½ cup sugar"
		got := truncate(s, 10)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, strings.Repeat("a", 9), got)
	})

	t.Run("KeepsWholeRuneAtLimit", func(t *testing.T) {
		s := strings.Repeat("a", 9) + "½ cup"
		assert.Equal(t, strings.Repeat("a", 9)+"½", truncate(s, 11))
	})
}
