package menu

import (
	"iter"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Selectors of the lounaat.info listing markup
const (
	MenuItemSelector     = "div.menu.item"
	FallbackItemSelector = "div.item"
	RestaurantSelector   = "h3 a"
	AddressSelector      = ".item-address"
	FallbackAddress      = "address"
	DayTextSelector      = "[data-lounaat-filter='day-text']"
)

// ExtractCandidates yields the listing entries of doc in document order.
// Entries without a restaurant link in an h3 heading are skipped.
func ExtractCandidates(doc *goquery.Document) iter.Seq[MenuCandidate] {
	return func(yield func(MenuCandidate) bool) {
		items := doc.Find(MenuItemSelector)
		if items.Length() == 0 {
			items = doc.Find(FallbackItemSelector)
		}

		for i := range items.Length() {
			candidate, ok := extractCandidate(doc.Url, items.Eq(i))
			if !ok {
				continue
			}
			if !yield(candidate) {
				return
			}
		}
	}
}

// extractCandidate builds a candidate from a single item element
func extractCandidate(base *url.URL, s *goquery.Selection) (MenuCandidate, bool) {
	anchor := s.Find(RestaurantSelector).First()
	if anchor.Length() == 0 {
		return MenuCandidate{}, false
	}

	address := BlockText(s.Find(AddressSelector))
	if address == "" {
		address = BlockText(s.Find(FallbackAddress))
	}

	href, _ := anchor.Attr("href")

	return MenuCandidate{
		RestaurantName: normalizeText(anchor.Text()),
		RestaurantLink: resolveURL(base, strings.TrimSpace(href)),
		AddressText:    address,
		RawText:        strings.ToLower(BlockText(s)),
	}, true
}

// blockElements are separated by whitespace in rendered text
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Caption: true, atom.Dd: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true,
	atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tbody: true,
	atom.Td: true, atom.Tfoot: true, atom.Th: true, atom.Thead: true, atom.Title: true,
	atom.Tr: true, atom.Ul: true,
}

// BlockText returns the whitespace-normalized text of s the way a browser
// shows it: block elements and line breaks separate words, inline elements
// do not. Matched elements are separated from each other as well.
func BlockText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	for _, n := range s.Nodes {
		walk(n)
		b.WriteByte(' ')
	}
	return normalizeText(b.String())
}

// normalizeText collapses runs of whitespace into single spaces
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// resolveURL makes href absolute against base. Without a base only already
// absolute links survive.
func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
