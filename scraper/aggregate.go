package scraper

import (
	"github.com/aluiziolira/go-scrape-search/models"
)

type pageSlot struct {
	url      string
	attempts int
	err      error
	products []models.Product
	filled   bool
}

// aggregator holds one slot per result page. Each slot is written by
// exactly one worker, so no locking is needed; merge must only be called
// after every worker has returned.
type aggregator struct {
	slots []pageSlot
}

func newAggregator(pageCount int) *aggregator {
	return &aggregator{slots: make([]pageSlot, pageCount)}
}

// put records the outcome of a 1-based page.
func (a *aggregator) put(page int, result models.PageResult, products []models.Product) {
	a.slots[page-1] = pageSlot{
		url:      result.URL,
		attempts: result.Attempts,
		err:      result.Err,
		products: products,
		filled:   true,
	}
}

// merge fills res with the products of every page in page order and the
// request bookkeeping of the whole search.
func (a *aggregator) merge(res *models.SearchResult) {
	total := 0
	for _, slot := range a.slots {
		total += len(slot.products)
	}

	res.Products = make([]models.Product, 0, total)
	res.ErrorsByType = make(map[string]int)
	for _, slot := range a.slots {
		if !slot.filled {
			continue
		}
		res.Products = append(res.Products, slot.products...)
		res.RequestCount += slot.attempts
		if slot.attempts > 1 {
			res.RetryCount += slot.attempts - 1
		}
		if slot.err != nil {
			res.ExhaustedPages = append(res.ExhaustedPages, slot.url)
			res.ErrorsByType[errorTypeLabel(slot.err)]++
		}
	}
}
