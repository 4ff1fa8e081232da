// Package parser turns raw field text from result markup into typed values.
//
// Every parser reports a miss with ok=false instead of returning a zero
// value, so callers can keep "absent" distinct from "zero".
package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/shopspring/decimal"
)

var (
	// RatingPattern matches the star rating phrase, e.g. "4.3 out of 5 stars".
	RatingPattern = regexp.MustCompile(`(\d\.\d) out of 5`)

	priceNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ParsePrice strips the currency symbol and thousands separators from a
// price label and parses what is left as a non-negative decimal.
func ParsePrice(text string) (decimal.Decimal, bool) {
	s := strings.TrimLeftFunc(strings.TrimSpace(text), func(r rune) bool {
		return unicode.Is(unicode.Sc, r) || unicode.IsLetter(r) || unicode.IsSpace(r)
	})
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if !priceNumber.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseRating finds the first "<d>.<d> out of 5" phrase in text.
func ParseRating(text string) (float64, bool) {
	m := RatingPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	rating, err := strconv.ParseFloat(m[1], 64)
	if err != nil || rating < 0 || rating > 5 {
		return 0, false
	}
	return rating, true
}

// ParseReviewCount parses a review counter such as "1,234" or "(87)".
func ParseReviewCount(text string) (int, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ValidateProduct checks the declared ranges of every populated field.
func ValidateProduct(p *models.Product) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("product missing url")
	}
	u, err := url.Parse(p.URL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("product url %q is not absolute", p.URL)
	}
	if p.Price != nil && p.Price.IsNegative() {
		return fmt.Errorf("product %s has negative price", p.URL)
	}
	if p.RatingStars != nil && (*p.RatingStars < 0 || *p.RatingStars > 5) {
		return fmt.Errorf("product %s rating %.1f out of range", p.URL, *p.RatingStars)
	}
	if p.ReviewCount != nil && *p.ReviewCount < 0 {
		return fmt.Errorf("product %s has negative review count", p.URL)
	}
	return nil
}
