package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector locates nodes below a root selection.
type Selector interface {
	Name() string
	Select(root *goquery.Selection) *goquery.Selection
}

type cssSelector string

// CSS selects with a CSS query.
func CSS(query string) Selector {
	return cssSelector(query)
}

func (c cssSelector) Name() string { return string(c) }

func (c cssSelector) Select(root *goquery.Selection) *goquery.Selection {
	return root.Find(string(c))
}

type attrPattern struct {
	name    string
	tag     string
	attr    string
	pattern *regexp.Regexp
}

// AttrPattern selects tag elements whose attr value matches pattern.
func AttrPattern(tag, attr string, pattern *regexp.Regexp) Selector {
	return attrPattern{
		name:    tag + "[" + attr + "=~/" + pattern.String() + "/]",
		tag:     tag,
		attr:    attr,
		pattern: pattern,
	}
}

// ClassTokens selects tag elements whose class attribute holds tokens as
// an adjacent run, in that order, e.g. "a-link-normal  a-text-normal".
// Other classes may surround the run.
func ClassTokens(tag string, tokens ...string) Selector {
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}
	pattern := regexp.MustCompile(`(?:^|\s)` + strings.Join(quoted, `\s+`) + `(?:\s|$)`)
	return AttrPattern(tag, "class", pattern)
}

func (a attrPattern) Name() string { return a.name }

func (a attrPattern) Select(root *goquery.Selection) *goquery.Selection {
	return root.Find(a.tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(a.attr)
		return ok && a.pattern.MatchString(v)
	})
}

// Chain tries each strategy in order and keeps the first one that matches
// anything.
type Chain []Selector

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name()
	}
	return strings.Join(names, " | ")
}

func (c Chain) Select(root *goquery.Selection) *goquery.Selection {
	sel, _ := c.Match(root)
	return sel
}

// Match is Select plus the name of the strategy that matched, or "" when
// none did.
func (c Chain) Match(root *goquery.Selection) (*goquery.Selection, string) {
	for _, s := range c {
		if sel := s.Select(root); sel.Length() > 0 {
			return sel, s.Name()
		}
	}
	return root.Slice(0, 0), ""
}
