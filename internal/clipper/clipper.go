package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/llm"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

//go:embed clipper_prompt.md
var clipperPrompt string

var clipperTemplate = template.Must(template.New("Clipper").Parse(clipperPrompt))

const (
	maxPageBytes   = 2 << 20
	maxPromptChars = 12000
)

// ErrNoIngredients is returned when a page yields a meal with nothing to buy.
var ErrNoIngredients = errors.New("no measurable ingredients found on page")

type clipperPromptData struct {
	StructuredData string
	Content        string
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	textGen    llm.TextGenerator
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClipper creates a new Clipper instance.
func NewClipper(textGen llm.TextGenerator, logger *zap.Logger) *Clipper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clipper{
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.Named("clipper"),
	}
}

// ClipURL fetches the URL and extracts a meal with quantified ingredients.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*planner.PlannedMeal, shared.AgentMeta, error) {
	start := time.Now()

	page, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	var buf bytes.Buffer
	if err := clipperTemplate.Execute(&buf, clipperPromptData{
		StructuredData: page.structuredData,
		Content:        truncate(page.text, maxPromptChars),
	}); err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to render clipper prompt: %w", err)
	}

	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("ai extraction failed: %w", err)
	}
	meta := shared.NewAgentMeta("Clipper", resp.Usage, start)

	var meal planner.PlannedMeal
	if err := json.Unmarshal([]byte(shared.ExtractJSON(resp.Content)), &meal); err != nil {
		return nil, meta, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}

	meal.SourceURL = url
	if strings.TrimSpace(meal.Name) == "" {
		meal.Name = page.title
	}
	meal.Ingredients = keepValid(meal.Ingredients)
	if len(meal.Ingredients) == 0 {
		return nil, meta, ErrNoIngredients
	}

	c.logger.Info("recipe clipped",
		zap.String("url", url),
		zap.String("name", meal.Name),
		zap.Int("ingredients", len(meal.Ingredients)),
	)
	return &meal, meta, nil
}

type cleanedPage struct {
	title          string
	structuredData string
	text           string
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (cleanedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return cleanedPage{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; meal-planner/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return cleanedPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cleanedPage{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return cleanedPage{}, err
	}

	// schema.org Recipe blocks carry exact ingredient lists; keep them before
	// stripping scripts.
	var ld []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); strings.Contains(text, "Recipe") {
			ld = append(ld, text)
		}
	})

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, noscript, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return cleanedPage{
		title:          strings.TrimSpace(doc.Find("title").First().Text()),
		structuredData: truncate(strings.Join(ld, "\n"), maxPromptChars),
		text:           collapseWhitespace(doc.Find("body").Text()),
	}, nil
}

func keepValid(ings []shopping.IngredientUsage) []shopping.IngredientUsage {
	kept := make([]shopping.IngredientUsage, 0, len(ings))
	for _, ing := range ings {
		if shopping.ValidateUsages([]shopping.IngredientUsage{ing}) == nil {
			kept = append(kept, ing)
		}
	}
	return kept
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
