package scraper

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var paginationItems = Chain{
	CSS("li.a-normal, li.a-disabled, li.a-last"),
	CSS(".s-pagination-strip .s-pagination-item"),
}

// Paginator reads the total page count from the first result page.
type Paginator struct {
	items    Selector
	maxPages int
}

// NewPaginator caps resolved counts at maxPages; 0 means no cap.
func NewPaginator(maxPages int) *Paginator {
	return &Paginator{items: paginationItems, maxPages: maxPages}
}

// ResolvePageCount returns the number of result pages advertised by the
// pagination control. The second-to-last control item holds the last page
// number (the last one is "Next"). Anything unreadable resolves to 1.
func (p *Paginator) ResolvePageCount(markup []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return 1
	}
	return p.pageCount(doc.Selection)
}

func (p *Paginator) pageCount(root *goquery.Selection) int {
	items := p.items.Select(root)
	if items.Length() < 2 {
		return 1
	}

	text := strings.TrimSpace(items.Eq(items.Length() - 2).Text())
	n, err := strconv.Atoi(strings.ReplaceAll(text, ",", ""))
	if err != nil || n < 1 {
		return 1
	}
	if p.maxPages > 0 && n > p.maxPages {
		return p.maxPages
	}
	return n
}
