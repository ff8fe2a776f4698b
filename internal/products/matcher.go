package products

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

// Strategy names accepted by NewMatcher.
const (
	StrategyScore  = "score"
	StrategyFilter = "filter"
)

// Score weights.
const (
	intentWeight = 10
	budgetWeight = 5
	brandWeight  = 8
	colorWeight  = 3
)

// DefaultMatchLimit caps ranked results when no limit is configured.
const DefaultMatchLimit = 5

// Matcher ranks catalog entries for a visitor. Implementations are pure.
type Matcher interface {
	Match(intent string, p profile.Profile, catalog []Product) []Product
}

// NewMatcher builds the matcher for a strategy name.
func NewMatcher(strategy string, limit int) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyScore:
		return ScoringMatcher{Limit: limit}, nil
	case StrategyFilter:
		return FilterMatcher{Limit: limit}, nil
	default:
		return nil, fmt.Errorf("products: unknown match strategy %q", strategy)
	}
}

// Scored pairs a product with its relevance score.
type Scored struct {
	Product Product `json:"product"`
	Score   int     `json:"score"`
}

// ScoringMatcher accumulates a relevance score per entry and returns the
// best entries first.
type ScoringMatcher struct {
	Limit int
}

// Match implements Matcher.
func (m ScoringMatcher) Match(intent string, p profile.Profile, catalog []Product) []Product {
	ranked := m.Rank(intent, p, catalog)
	out := make([]Product, len(ranked))
	for i, r := range ranked {
		out[i] = r.Product
	}
	return out
}

// Rank returns scored entries, highest first, ties kept in catalog order.
// Entries of an excluded brand never appear. When nothing scores and the
// intent mentions a laptop, every eligible entry is returned unscored.
func (m ScoringMatcher) Rank(intent string, p profile.Profile, catalog []Product) []Scored {
	budget, hasBudget := profile.BudgetAmount(p.Budget)
	intentTokens := tokenize(intent)

	eligible := make([]Product, 0, len(catalog))
	var ranked []Scored
	for _, item := range catalog {
		if p.ExcludeBrand != "" && containsFold(item.Brand, p.ExcludeBrand) {
			continue
		}
		eligible = append(eligible, item)

		score := 0
		if intentMatches(intent, intentTokens, item) {
			score += intentWeight
		}
		if hasBudget && item.Price <= budget {
			score += budgetWeight
		}
		if p.BrandPreference != "" && containsFold(item.Brand, p.BrandPreference) {
			score += brandWeight
		}
		if p.ColorPreference != "" && containsFold(item.Color, p.ColorPreference) {
			score += colorWeight
		}
		if score > 0 {
			ranked = append(ranked, Scored{Product: item, Score: score})
		}
	}

	if len(ranked) == 0 && intentTokens["laptop"] {
		for _, item := range eligible {
			ranked = append(ranked, Scored{Product: item})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return capScored(ranked, m.Limit)
}

// FilterMatcher turns the intent and brand signals into a Filter and
// returns the passing entries in catalog order.
type FilterMatcher struct {
	Limit int
}

// Match implements Matcher.
func (m FilterMatcher) Match(intent string, p profile.Profile, catalog []Product) []Product {
	f := BuildFilter(intent, p)
	var out []Product
	for _, item := range catalog {
		if f.Matches(item) {
			out = append(out, item)
		}
	}
	return capProducts(out, m.Limit)
}

// BuildFilter translates intent and brand preferences into catalog
// conditions.
func BuildFilter(intent string, p profile.Profile) Filter {
	f := Filter{Category: CategoryForIntent(intent)}
	if p.BrandPreference != "" {
		f.Brand = &BrandFilter{Pattern: p.BrandPreference}
	}
	if p.ExcludeBrand != "" {
		// TODO: confirm with product whether an excluded brand should compose
		// with a preferred brand; today the exclusion replaces it.
		f.Brand = &BrandFilter{Pattern: p.ExcludeBrand, Negate: true}
	}
	return f
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"laptop", []string{"laptop", "notebook", "computer", "ultrabook", "macbook", "chromebook"}},
	{"phone", []string{"smartphone", "phone", "mobile"}},
	{"tablet", []string{"tablet", "ipad"}},
	{"headphones", []string{"headphones", "earbuds", "headset"}},
	{"camera", []string{"camera", "photography"}},
}

// CategoryForIntent maps intent keywords onto a catalog category. Intents
// without a known keyword are used as the category pattern verbatim.
func CategoryForIntent(intent string) string {
	lower := strings.ToLower(strings.TrimSpace(intent))
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category
			}
		}
	}
	return lower
}

var intentStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "for": true, "with": true,
	"new": true, "some": true, "good": true, "one": true, "that": true, "this": true,
}

func intentMatches(intent string, tokens map[string]bool, item Product) bool {
	intent = strings.ToLower(strings.TrimSpace(intent))
	if intent == "" {
		return false
	}
	for _, tag := range item.Tags {
		tag = strings.ToLower(tag)
		if tag != "" && (tokens[tag] || tag == intent) {
			return true
		}
	}
	if containsFold(item.Name, intent) {
		return true
	}
	if item.Brand != "" && tokens[strings.ToLower(item.Brand)] {
		return true
	}
	for word := range tokenize(item.Description) {
		if tokens[word] && len(word) > 2 && !intentStopwords[word] {
			return true
		}
	}
	return false
}

// tokenize lower-cases s and splits it into words. Hyphenated words are kept
// whole so tags like "2-in-1" survive.
func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f == "" {
			continue
		}
		out[f] = true
		if strings.HasSuffix(f, "s") && len(f) > 3 {
			out[strings.TrimSuffix(f, "s")] = true
		}
	}
	return out
}

func capScored(in []Scored, limit int) []Scored {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

func capProducts(in []Product, limit int) []Product {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
