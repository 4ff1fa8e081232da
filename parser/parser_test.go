package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "thousands separator", input: "$1,299.00", want: "1299.00", wantOK: true},
		{name: "cents", input: "$0.99", want: "0.99", wantOK: true},
		{name: "whitespace", input: "  $25.99 ", want: "25.99", wantOK: true},
		{name: "multi letter currency", input: "US$ 12.50", want: "12.50", wantOK: true},
		{name: "pound sign", input: "£51.77", want: "51.77", wantOK: true},
		{name: "no symbol", input: "10", want: "10", wantOK: true},
		{name: "malformed", input: "$12.99.1", wantOK: false},
		{name: "range", input: "$12.99 - $15.99", wantOK: false},
		{name: "text only", input: "Currently unavailable", wantOK: false},
		{name: "symbol only", input: "$", wantOK: false},
		{name: "negative", input: "-$3.00", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "phrase", input: "4.3 out of 5 stars", want: 4.3, wantOK: true},
		{name: "embedded in markup", input: `<span class="a-icon-alt">4.8 out of 5 stars</span>`, want: 4.8, wantOK: true},
		{name: "first match wins", input: "3.0 out of 5 then 5.0 out of 5", want: 3.0, wantOK: true},
		{name: "above range", input: "9.9 out of 5", wantOK: false},
		{name: "no phrase", input: "No reviews yet", wantOK: false},
		{name: "integer rating", input: "4 out of 5", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRating(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseRating(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseRating(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{name: "thousands separator", input: "12,345", want: 12345, wantOK: true},
		{name: "plain", input: " 87 ", want: 87, wantOK: true},
		{name: "parenthesised", input: "(1,024)", want: 1024, wantOK: true},
		{name: "zero is a value", input: "0", want: 0, wantOK: true},
		{name: "abbreviated", input: "1.2K", wantOK: false},
		{name: "text", input: "Ratings", wantOK: false},
		{name: "negative", input: "-4", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReviewCount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseReviewCount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseReviewCount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateProduct(t *testing.T) {
	negative := decimal.RequireFromString("-1")
	tooHigh := 5.5
	fewer := -2

	tests := []struct {
		name    string
		product *models.Product
		wantErr bool
	}{
		{
			name:    "minimal valid product",
			product: &models.Product{URL: "https://www.amazon.com/dp/B000000001"},
			wantErr: false,
		},
		{name: "nil", product: nil, wantErr: true},
		{name: "missing url", product: &models.Product{Title: "Phone"}, wantErr: true},
		{name: "relative url", product: &models.Product{URL: "/dp/B000000001"}, wantErr: true},
		{
			name:    "negative price",
			product: &models.Product{URL: "https://www.amazon.com/dp/1", Price: &negative},
			wantErr: true,
		},
		{
			name:    "rating above five",
			product: &models.Product{URL: "https://www.amazon.com/dp/1", RatingStars: &tooHigh},
			wantErr: true,
		},
		{
			name:    "negative reviews",
			product: &models.Product{URL: "https://www.amazon.com/dp/1", ReviewCount: &fewer},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProduct(tt.product)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProduct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
