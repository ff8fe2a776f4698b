package profile

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// matcher pulls one candidate value for a field out of a message. It returns
// "" when it does not apply.
type matcher func(message string) string

type fieldRule struct {
	field    Field
	matchers []matcher
}

// extractionRules runs in order; within a rule the first matcher that returns
// a value wins.
var extractionRules = []fieldRule{
	{FieldName, []matcher{introducedName, leadingName}},
	{FieldEmail, []matcher{firstMatch(emailRE)}},
	{FieldPhone, []matcher{labeledPhone, firstMatch(usPhoneRE), firstMatch(intlPhoneRE), firstMatch(barePhoneRE)}},
	{FieldLookingFor, []matcher{intentPhrase(intentPhraseRE), intentPhrase(purchasePhraseRE), intentKeyword}},
	{FieldBudget, []matcher{budgetFrom(budgetLabelRE), budgetFrom(budgetDollarRE), budgetFrom(budgetPhraseRE)}},
	{FieldBrandPreference, []matcher{preferredBrand}},
	{FieldExcludeBrand, []matcher{excludedBrand}},
	{FieldColorPreference, []matcher{colorMention}},
}

// Extract returns the fields it could find in message that are not already
// known. Fields without a match are left empty; it never fails.
func Extract(message string, known Profile) Profile {
	var out Profile
	if strings.TrimSpace(message) == "" {
		return out
	}
	for _, rule := range extractionRules {
		if known.Has(rule.field) {
			continue
		}
		for _, m := range rule.matchers {
			if v := strings.TrimSpace(m(message)); v != "" {
				out.Set(rule.field, v)
				break
			}
		}
	}
	return out
}

func firstMatch(re *regexp.Regexp) matcher {
	return func(message string) string {
		return re.FindString(message)
	}
}

func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

// Name.

var (
	introducedNameRE = regexp.MustCompile(`(?i)\b(?:my name is|name is|call me|i am|i'm|i’m|im)\s+([a-z]+(?:[ \t]+[a-z]+){0,2})`)
	leadingNameRE    = regexp.MustCompile(`(?i)^\s*([a-z]+(?:[ \t]+[a-z]+)?)[ \t]*(?:\bhere\b|!|\.|$)`)
)

// nameDenylist holds words that show a capture is not a name. A capture is
// rejected when it starts with one and truncated before any later one.
var nameDenylist = wordSet(
	"looking", "searching", "need", "needing", "want", "wanting", "interested", "shopping", "trying",
	"hello", "hi", "hey", "here", "thanks", "thank", "yes", "no", "ok", "okay", "sure", "please",
	"good", "fine", "great", "new", "just", "also", "really", "very", "not", "ready", "thinking", "hoping",
	"a", "an", "the", "and", "but", "or", "so", "my", "i", "im", "me", "you", "your", "it", "is",
	"in", "on", "at", "to", "for", "from", "with", "of", "after", "about",
	"email", "phone", "number", "budget", "buy", "get", "purchase",
	"laptop", "laptops", "notebook", "computer", "ultrabook", "gaming", "business",
)

// introducedName tries every introduction in the message; a denylisted
// capture ("I am looking ...") does not stop a later "my name is".
func introducedName(message string) string {
	for _, m := range introducedNameRE.FindAllStringSubmatch(message, -1) {
		if name := cleanName(m[1]); name != "" {
			return name
		}
	}
	return ""
}

func leadingName(message string) string {
	m := leadingNameRE.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return cleanName(m[1])
}

func cleanName(raw string) string {
	words := strings.Fields(raw)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		lw := strings.ToLower(w)
		if nameDenylist[lw] || isVocabularyWord(lw) {
			break
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return ""
	}
	return titleCase(strings.Join(kept, " "))
}

// Email.

var emailRE = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// Phone.

var (
	labeledPhoneRE = regexp.MustCompile(`(?i)\b(?:phone|number|tel|mobile|cell|call)\b(?:[ \t]+(?:me[ \t]+)?(?:at|is|on))?[ \t]*[:#]?[ \t]*(\+?\(?[0-9][0-9 \t().-]{5,}[0-9])`)
	usPhoneRE      = regexp.MustCompile(`\(?\b[0-9]{3}\)?[-. \t]?[0-9]{3}[-. \t]?[0-9]{4}\b`)
	intlPhoneRE    = regexp.MustCompile(`\+[0-9][0-9 \t()-]{8,}[0-9]`)
	barePhoneRE    = regexp.MustCompile(`\b[0-9]{6,}\b`)
)

func labeledPhone(message string) string {
	m := labeledPhoneRE.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return m[1]
}

// Intent.

const intentTail = `(?:\s*(?:[,.!?;]|$)|\s+(?:with|under|for|around|about|that|which|and|but|budget|below|within|in|from|by|at|to|less|up|is|my|i|please)\b)`

var (
	intentPhraseRE   = regexp.MustCompile(`(?i)\b(?:looking for|searching for|interested in|shopping for|need|want)\s+(?:(?:a|an|some|the|new)\s+)*([a-z][a-z \t-]*?)` + intentTail)
	purchasePhraseRE = regexp.MustCompile(`(?i)\b(?:buy|purchase|get|order)\s+(?:(?:a|an|some|the|new|me)\s+)*([a-z][a-z \t-]*?)` + intentTail)
	intentKeywordRE  = regexp.MustCompile(`(?i)\b(gaming laptop|business laptop|ultrabook|notebook|laptop)s?\b`)
)

var intentRejects = wordSet("to", "it", "this", "that", "help", "more", "info", "information", "you", "your", "back", "in", "started", "some", "any", "one")

var negationSuffixes = []string{"don't", "dont", "don’t", "do not", "not", "never", "no"}

// intentPhrase skips captures that are negated ("don't want Apple") or that
// start with filler words, and keeps at most four words. Leading brand and
// color words are dropped; those belong to their own fields.
func intentPhrase(re *regexp.Regexp) matcher {
	return func(message string) string {
		for _, idx := range re.FindAllStringSubmatchIndex(message, -1) {
			if precededByNegation(message[:idx[0]]) {
				continue
			}
			words := strings.Fields(strings.ToLower(message[idx[2]:idx[3]]))
			for len(words) > 0 && isVocabularyWord(words[0]) {
				words = words[1:]
			}
			if len(words) == 0 || intentRejects[words[0]] {
				continue
			}
			if len(words) > 4 {
				words = words[:4]
			}
			return strings.Join(words, " ")
		}
		return ""
	}
}

func intentKeyword(message string) string {
	m := intentKeywordRE.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

func precededByNegation(prefix string) bool {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	for _, neg := range negationSuffixes {
		if prefix == neg || strings.HasSuffix(prefix, " "+neg) {
			return true
		}
	}
	return false
}

// Budget.

const amountPattern = `(\d{1,3}(?:,\d{3})+|\d+)(\.\d{1,2})?`

var (
	budgetLabelRE  = regexp.MustCompile(`(?i)\bbudget\b[^$0-9\n]{0,24}?\$?\s?` + amountPattern)
	budgetDollarRE = regexp.MustCompile(`\$\s?` + amountPattern)
	budgetPhraseRE = regexp.MustCompile(`(?i)\b(?:under|below|up to|around|about|max(?:imum)?|less than|no more than)\s+\$?` + `(\d{1,3}(?:,\d{3})+|\d{3,})(\.\d{1,2})?\b`)
)

func budgetFrom(re *regexp.Regexp) matcher {
	return func(message string) string {
		m := re.FindStringSubmatch(message)
		if m == nil {
			return ""
		}
		return "$" + m[1] + m[2]
	}
}

// Brands.

type brandTerm struct {
	term    string
	display string
	mention *regexp.Regexp
	negated *regexp.Regexp
}

func newBrandTerm(term, display string) brandTerm {
	q := regexp.QuoteMeta(term)
	return brandTerm{
		term:    term,
		display: display,
		mention: regexp.MustCompile(`(?i)\b` + q + `\b`),
		negated: regexp.MustCompile(`(?i)(?:\bdon['’]?t\s+want|\bdo\s+not\s+want|\bno|\bavoid|\bnot|\bwithout)\s+(?:(?:an?|any|the)\s+)?` + q + `\b`),
	}
}

// brandVocabulary is scanned in order. Product lines resolve to the maker
// so they compare against catalog brands.
var brandVocabulary = []brandTerm{
	newBrandTerm("apple", "Apple"),
	newBrandTerm("dell", "Dell"),
	newBrandTerm("hp", "HP"),
	newBrandTerm("lenovo", "Lenovo"),
	newBrandTerm("asus", "ASUS"),
	newBrandTerm("acer", "Acer"),
	newBrandTerm("microsoft", "Microsoft"),
	newBrandTerm("surface", "Microsoft"),
	newBrandTerm("macbook", "Apple"),
	newBrandTerm("thinkpad", "Lenovo"),
	newBrandTerm("msi", "MSI"),
	newBrandTerm("razer", "Razer"),
}

func preferredBrand(message string) string {
	for _, b := range brandVocabulary {
		if b.mention.MatchString(message) && !b.negated.MatchString(message) {
			return b.display
		}
	}
	return ""
}

func excludedBrand(message string) string {
	for _, b := range brandVocabulary {
		if b.negated.MatchString(message) {
			return b.display
		}
	}
	return ""
}

// Colors.

var colorVocabulary = []string{"rose gold", "black", "white", "silver", "gray", "grey", "gold", "blue", "red", "green", "pink", "purple"}

var colorREs = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(colorVocabulary))
	for i, c := range colorVocabulary {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(c) + `\b`)
	}
	return out
}()

func colorMention(message string) string {
	for i, re := range colorREs {
		if re.MatchString(message) {
			return titleCase(colorVocabulary[i])
		}
	}
	return ""
}

func isVocabularyWord(w string) bool {
	for _, b := range brandVocabulary {
		if b.term == w {
			return true
		}
	}
	for _, c := range colorVocabulary {
		if c == w {
			return true
		}
	}
	return false
}

func wordSet(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}
