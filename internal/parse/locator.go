// Package parse implements the Parsing Strategy (C2): turning a raw
// Document into candidate Flight records by locating container nodes,
// extracting each configured field, normalising it through internal/normalize,
// and composing a canonical draft.
package parse

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Node is one located element, dialect-agnostic: an HTML locator wraps a
// goquery.Selection, a JSON locator wraps a decoded map/slice value.
type Node interface {
	// Text returns the node's extractable textual content.
	Text() string
	// Attr returns an attribute/key of the node, if the dialect supports
	// one (HTML attributes, JSON object keys).
	Attr(name string) (string, bool)
}

// Locator selects a set of Nodes out of a Document body for one selector
// string. The dialect (CSS selector vs JSON path) is fixed at construction
// time by which concrete Locator localeLocator picks for a site's
// CrawlerKind.
type Locator interface {
	Select(root interface{}, selector string) ([]Node, error)
}

// htmlNode adapts a goquery.Selection of exactly one element to Node.
type htmlNode struct {
	sel *goquery.Selection
}

func (n htmlNode) Text() string {
	return n.sel.Text()
}

func (n htmlNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// HTMLLocator selects container/field nodes via goquery CSS selectors,
// matching the `html-form`/`persian-airline`/`international-aggregator`
// crawler kinds' extraction map.
type HTMLLocator struct{}

// Select parses root as an HTML document body (if given as []byte) or
// reuses an already-parsed *goquery.Document, and returns one Node per
// matched element.
func (HTMLLocator) Select(root interface{}, selector string) ([]Node, error) {
	var sel *goquery.Selection

	switch v := root.(type) {
	case *goquery.Selection:
		sel = v.Find(selector)
	default:
		doc, err := asGoqueryDocument(root)
		if err != nil {
			return nil, err
		}
		sel = doc.Find(selector)
	}

	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, htmlNode{sel: s})
	})
	return nodes, nil
}

func asGoqueryDocument(root interface{}) (*goquery.Document, error) {
	switch v := root.(type) {
	case *goquery.Document:
		return v, nil
	case []byte:
		return goquery.NewDocumentFromReader(bytes.NewReader(v))
	default:
		return nil, fmt.Errorf("parse: HTMLLocator given unsupported root type %T", root)
	}
}
