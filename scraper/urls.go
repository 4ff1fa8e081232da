package scraper

import (
	"net/url"
	"strconv"
	"strings"
)

const searchPath = "/s"

// BuildSearchURL turns free-form search text into the site's search URL.
// Words are split on any run of whitespace, query-escaped one by one and
// joined with "+". Invalid UTF-8 is replaced rather than rejected.
func BuildSearchURL(baseURL, query string) string {
	words := strings.Fields(strings.ToValidUTF8(query, "\uFFFD"))
	for i, w := range words {
		words[i] = url.QueryEscape(w)
	}
	rawQuery := "k=" + strings.Join(words, "+")

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return strings.TrimRight(baseURL, "/") + searchPath + "?" + rawQuery
	}
	u := base.ResolveReference(&url.URL{Path: searchPath})
	u.RawQuery = rawQuery
	return u.String()
}

// PageURLs returns the URLs of result pages 1..n in order. n below 1 is
// treated as 1.
func PageURLs(searchURL string, n int) []string {
	if n < 1 {
		n = 1
	}
	urls := make([]string, n)
	for i := range urls {
		urls[i] = searchURL + "&page=" + strconv.Itoa(i+1)
	}
	return urls
}
