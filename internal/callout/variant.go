package callout

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// Variant classifies a div element by the callout marker it carries.
type Variant int

const (
	Passthrough Variant = iota
	CalloutContainer
	CalloutTitle
	CalloutBody
)

func (v Variant) String() string {
	switch v {
	case CalloutContainer:
		return "callout"
	case CalloutTitle:
		return "title"
	case CalloutBody:
		return "body"
	default:
		return "passthrough"
	}
}

// Classify returns the variant of n. Markers are checked in order title,
// body, container; non-div nodes are always Passthrough.
func Classify(n *html.Node) Variant {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Div {
		return Passthrough
	}
	switch {
	case hasAttr(n, markdown.AttrCalloutTitle):
		return CalloutTitle
	case hasAttr(n, markdown.AttrCalloutBody):
		return CalloutBody
	case hasAttr(n, markdown.AttrCallout):
		return CalloutContainer
	default:
		return Passthrough
	}
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
