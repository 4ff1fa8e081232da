// Package models defines data structures for the scraper.
package models

import "github.com/shopspring/decimal"

// Product is one listing scraped from a search-result page.
//
// Optional fields are pointers: nil means the value was not present in
// the markup (or did not parse), which is never the same as a zero value.
type Product struct {
	URL             string           `csv:"url" json:"url"`
	Identifier      *string          `csv:"identifier" json:"identifier"`
	Title           string           `csv:"title" json:"title"`
	Price           *decimal.Decimal `csv:"price" json:"price"`
	ImageURL        *string          `csv:"image_url" json:"imageUrl"`
	RatingStars     *float64         `csv:"rating_stars" json:"ratingStars"`
	ReviewCount     *int             `csv:"review_count" json:"reviewCount"`
	IsBestseller    bool             `csv:"is_bestseller" json:"isBestseller"`
	IsPrimeEligible bool             `csv:"is_prime_eligible" json:"isPrimeEligible"`
}
