// Package callout rewrites the callout marker divs produced by the content
// pipeline into the final callout markup.
package callout

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// Type is a callout style.
type Type string

const (
	TypeNote    Type = "note"
	TypeWarning Type = "warning"
)

// ParseType maps a declared type onto the closed set, defaulting to note.
func ParseType(raw string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeWarning:
		return TypeWarning
	default:
		return TypeNote
	}
}

// Result is the outcome of transforming one fragment.
type Result struct {
	HTML     []byte
	Callouts int
}

// Transform resolves every callout marker in an HTML fragment. The output
// carries no markers, so applying Transform again is a no-op.
func Transform(fragment []byte) (Result, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), context)
	if err != nil {
		return Result{}, ferrors.WrapError(err, ferrors.CategoryRender, "failed to parse rendered html").Build()
	}

	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	t := &transformer{}
	t.children(root)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return Result{}, ferrors.WrapError(err, ferrors.CategoryRender, "failed to render transformed html").Build()
		}
	}
	return Result{HTML: buf.Bytes(), Callouts: t.callouts}, nil
}

type transformer struct {
	callouts int
}

func (t *transformer) children(parent *html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		t.node(parent, c)
		c = next
	}
}

func (t *transformer) node(parent, n *html.Node) {
	switch Classify(n) {
	case CalloutTitle:
		parent.RemoveChild(n)
	case CalloutBody:
		t.children(n)
		unwrap(parent, n)
	case CalloutContainer:
		t.callout(parent, n)
	default:
		if n.Type == html.ElementNode {
			t.children(n)
		}
	}
}

func (t *transformer) callout(parent, n *html.Node) {
	declared, _ := attr(n, markdown.AttrCalloutType)
	typ := ParseType(declared)

	heading := element(atom.P, "callout-title")
	if title := explicitTitle(n); title != nil {
		for c := title.FirstChild; c != nil; {
			next := c.NextSibling
			title.RemoveChild(c)
			heading.AppendChild(c)
			c = next
		}
		trimText(heading)
	} else {
		heading.AppendChild(&html.Node{Type: html.TextNode, Data: Capitalize(string(typ))})
	}

	content := element(atom.Div, "callout-content")
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		content.AppendChild(c)
		c = next
	}
	t.children(content)

	aside := element(atom.Aside, "callout callout-"+string(typ))
	aside.Attr = append(aside.Attr, html.Attribute{Key: "role", Val: "note"})
	aside.AppendChild(heading)
	aside.AppendChild(content)

	parent.InsertBefore(aside, n)
	parent.RemoveChild(n)
	t.callouts++
}

// explicitTitle returns the first immediate title-marker child, or nil when
// there is none or it is blank.
func explicitTitle(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if Classify(c) != CalloutTitle {
			continue
		}
		if strings.TrimSpace(textContent(c)) == "" && !hasElement(c) {
			return nil
		}
		return c
	}
	return nil
}

func hasElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// trimText strips surrounding whitespace from the outer text children of n.
func trimText(n *html.Node) {
	if c := n.FirstChild; c != nil && c.Type == html.TextNode {
		c.Data = strings.TrimLeftFunc(c.Data, unicode.IsSpace)
	}
	if c := n.LastChild; c != nil && c.Type == html.TextNode {
		c.Data = strings.TrimRightFunc(c.Data, unicode.IsSpace)
	}
}

func unwrap(parent, n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

func element(a atom.Atom, class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Capitalize upper-cases the first character of s and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
