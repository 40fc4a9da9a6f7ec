package steps

import (
	"context"
	"strings"

	"github.com/aretw0/gleaner/pkg/domain"
	"golang.org/x/net/html"
)

// ParseStep turns the fetched document into model-ready material: the page
// title, the visible text, the outgoing links, and structural flags that
// conditional edges commonly branch on (has_table, has_list).
type ParseStep struct {
	base
}

// NewParse creates a parse step. Parsing is local work; the default policy
// has no timeout and no retries (a document that failed to parse will fail
// again).
func NewParse(id string, opts ...Option) *ParseStep {
	return &ParseStep{
		base: newBase(id, domain.StepPolicy{
			Classify: func(error) domain.FailureClass { return domain.Fatal },
		}, opts),
	}
}

type parsedPage struct {
	title    string
	text     strings.Builder
	links    []string
	hasTable bool
	hasList  bool
}

func (s *ParseStep) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	raw := state.String(KeyRawHTML)
	if raw == "" {
		return nil, domain.Fatalf("parse: state has no %q key", KeyRawHTML)
	}

	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, domain.Fatalf("parse: malformed document: %v", err)
	}

	var page parsedPage
	walk(root, &page, false)

	return domain.State{
		KeyTitle:    page.title,
		KeyText:     normalizeSpace(page.text.String()),
		KeyLinks:    page.links,
		KeyHasTable: page.hasTable,
		KeyHasList:  page.hasList,
	}, nil
}

// walk collects text and structure in document order. skip suppresses text
// under non-visible elements.
func walk(n *html.Node, page *parsedPage, skip bool) {
	switch n.Type {
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			skip = true
		case "title":
			if n.FirstChild != nil && page.title == "" {
				page.title = strings.TrimSpace(n.FirstChild.Data)
			}
			skip = true
		case "table":
			page.hasTable = true
		case "ul", "ol":
			page.hasList = true
		case "a":
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" && !strings.HasPrefix(attr.Val, "#") {
					page.links = append(page.links, attr.Val)
				}
			}
		}
	case html.TextNode:
		if !skip {
			if t := strings.TrimSpace(n.Data); t != "" {
				page.text.WriteString(t)
				page.text.WriteByte(' ')
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, page, skip)
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
