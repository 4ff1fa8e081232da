package scraper

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/aluiziolira/go-scrape-search/parser"
)

// Selection strategies per field, most specific first.
var (
	resultContainers = Chain{
		CSS(`div[data-component-type="s-search-result"]`),
		ClassTokens("div", "s-result-item", "s-asin"),
	}
	productLink = Chain{
		ClassTokens("a", "a-link-normal", "a-text-normal"),
		CSS("h2 a"),
	}
	productTitle = Chain{
		ClassTokens("span", "a-color-base", "a-text-normal"),
		CSS("h2 span"),
	}
	productPrice = Chain{
		CSS("span.a-price span.a-offscreen"),
		CSS("span.a-offscreen"),
	}
	productImage  = CSS("img")
	productReview = Chain{
		CSS(`span.a-size-base[dir="auto"]`),
		CSS(`a[href*="customerReviews"] span.a-size-base`),
	}
	bestsellerBadge = CSS("span.a-badge-text")
	primeBadge      = Chain{
		ClassTokens("i", "a-icon", "a-icon-prime"),
		CSS(`[aria-label="Amazon Prime"]`),
	}
)

type fieldRule struct {
	name    string
	extract func(e *Extractor, s *goquery.Selection, p *models.Product) bool
}

// Each rule reports false when its field ended up absent. Flags are never
// absent, their default is false.
var fieldRules = []fieldRule{
	{"url", (*Extractor).extractURL},
	{"identifier", (*Extractor).extractIdentifier},
	{"title", (*Extractor).extractTitle},
	{"price", (*Extractor).extractPrice},
	{"imageUrl", (*Extractor).extractImage},
	{"ratingStars", (*Extractor).extractRating},
	{"reviewCount", (*Extractor).extractReviews},
	{"isBestseller", (*Extractor).extractBestseller},
	{"isPrimeEligible", (*Extractor).extractPrime},
}

// Extractor turns result-page markup into products.
type Extractor struct {
	base       *url.URL
	containers Selector
	metrics    *Metrics
}

// NewExtractor resolves relative links against baseURL. Extra container
// strategies are tried after the built-in ones.
func NewExtractor(baseURL string, metrics *Metrics, extra ...Selector) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	containers := append(Chain{}, resultContainers...)
	containers = append(containers, extra...)
	return &Extractor{base: base, containers: containers, metrics: metrics}, nil
}

// Extract returns the products found in markup, in document order.
// Containers without a product link are skipped. A page with no
// containers yields an empty slice.
func (e *Extractor) Extract(markup []byte) ([]models.Product, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}
	return e.extractDocument(doc.Selection), nil
}

func (e *Extractor) extractDocument(root *goquery.Selection) []models.Product {
	containers := e.containers.Select(root)
	products := make([]models.Product, 0, containers.Length())
	containers.Each(func(i int, s *goquery.Selection) {
		if p, ok := e.extractContainer(i, s); ok {
			products = append(products, p)
		}
	})
	e.metrics.AddItems(len(products))
	return products
}

func (e *Extractor) extractContainer(index int, s *goquery.Selection) (product models.Product, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.IncContainerPanic()
			slog.Warn("skipping product container",
				slog.Int("index", index),
				slog.Any("panic", r),
			)
			product, ok = models.Product{}, false
		}
	}()

	for _, rule := range fieldRules {
		if !rule.extract(e, s, &product) {
			e.metrics.IncFieldMiss(rule.name)
		}
	}
	if product.URL == "" {
		slog.Debug("skipping product container without link", slog.Int("index", index))
		return product, false
	}
	return product, true
}

func (e *Extractor) resolve(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	return e.base.ResolveReference(u).String(), true
}

func (e *Extractor) extractURL(s *goquery.Selection, p *models.Product) bool {
	href, _ := productLink.Select(s).First().Attr("href")
	resolved, ok := e.resolve(href)
	if !ok {
		return false
	}
	p.URL = resolved
	return true
}

func (e *Extractor) extractIdentifier(s *goquery.Selection, p *models.Product) bool {
	asin := strings.TrimSpace(s.AttrOr("data-asin", ""))
	if asin == "" {
		return false
	}
	p.Identifier = &asin
	return true
}

func (e *Extractor) extractTitle(s *goquery.Selection, p *models.Product) bool {
	title := strings.TrimSpace(productTitle.Select(s).First().Text())
	if title == "" {
		return false
	}
	p.Title = title
	return true
}

func (e *Extractor) extractPrice(s *goquery.Selection, p *models.Product) bool {
	node := productPrice.Select(s).First()
	if node.Length() == 0 {
		return false
	}
	price, ok := parser.ParsePrice(node.Text())
	if !ok {
		return false
	}
	p.Price = &price
	return true
}

func (e *Extractor) extractImage(s *goquery.Selection, p *models.Product) bool {
	src, _ := productImage.Select(s).First().Attr("src")
	resolved, ok := e.resolve(src)
	if !ok {
		return false
	}
	p.ImageURL = &resolved
	return true
}

// The rating text may sit in an attribute or a hidden span depending on
// the layout, so it is matched against the container's serialised markup.
func (e *Extractor) extractRating(s *goquery.Selection, p *models.Product) bool {
	markup, err := goquery.OuterHtml(s)
	if err != nil {
		return false
	}
	rating, ok := parser.ParseRating(markup)
	if !ok {
		return false
	}
	p.RatingStars = &rating
	return true
}

func (e *Extractor) extractReviews(s *goquery.Selection, p *models.Product) bool {
	node := productReview.Select(s).First()
	if node.Length() == 0 {
		return false
	}
	count, ok := parser.ParseReviewCount(node.Text())
	if !ok {
		return false
	}
	p.ReviewCount = &count
	return true
}

func (e *Extractor) extractBestseller(s *goquery.Selection, p *models.Product) bool {
	p.IsBestseller = bestsellerBadge.Select(s).Length() > 0
	return true
}

func (e *Extractor) extractPrime(s *goquery.Selection, p *models.Product) bool {
	p.IsPrimeEligible = primeBadge.Select(s).Length() > 0
	return true
}
