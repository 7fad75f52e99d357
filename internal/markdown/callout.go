package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Marker attribute names emitted by the callout stage. They form the contract
// with the content-transform layer, which consumes them.
const (
	AttrCallout      = "data-callout"
	AttrCalloutType  = "data-callout-type"
	AttrCalloutTitle = "data-callout-title"
	AttrCalloutBody  = "data-callout-body"
)

var (
	// KindCallout is the node kind of a callout container.
	KindCallout = gast.NewNodeKind("Callout")
	// KindCalloutTitle is the node kind of a callout title.
	KindCalloutTitle = gast.NewNodeKind("CalloutTitle")
	// KindCalloutBody is the node kind of a callout body.
	KindCalloutBody = gast.NewNodeKind("CalloutBody")
)

// [!type] optional title
var calloutLine = regexp.MustCompile(`^\[!([A-Za-z][A-Za-z0-9_-]*)\][ \t]*(.*?)[ \t]*$`)

// private attribute carried on a blockquote between the paragraph and AST passes.
var pendingType = []byte("callout-pending-type")

// Callout is a typed admonition block.
type Callout struct {
	gast.BaseBlock
	CalloutType string
}

func (n *Callout) Kind() gast.NodeKind { return KindCallout }

func (n *Callout) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"CalloutType": n.CalloutType}, nil)
}

// CalloutTitle holds the title line of a callout. Its text is parsed as
// inline markdown.
type CalloutTitle struct {
	gast.BaseBlock
}

func (n *CalloutTitle) Kind() gast.NodeKind { return KindCalloutTitle }

func (n *CalloutTitle) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, nil, nil)
}

// CalloutBody wraps the block content of a callout.
type CalloutBody struct {
	gast.BaseBlock
}

func (n *CalloutBody) Kind() gast.NodeKind { return KindCalloutBody }

func (n *CalloutBody) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, nil, nil)
}

// calloutParagraphTransformer recognizes the [!type] line that opens a
// blockquote and records it on the blockquote.
type calloutParagraphTransformer struct{}

func (t *calloutParagraphTransformer) Transform(node *gast.Paragraph, reader text.Reader, _ parser.Context) {
	parent := node.Parent()
	if parent == nil || parent.Kind() != gast.KindBlockquote || parent.FirstChild() != node {
		return
	}
	lines := node.Lines()
	if lines.Len() == 0 {
		return
	}

	first := lines.At(0)
	line := first.Value(reader.Source())
	m := calloutLine.FindSubmatchIndex(bytes.TrimRight(line, "\r\n"))
	if m == nil {
		return
	}

	parent.SetAttribute(pendingType, []byte(strings.ToLower(string(line[m[2]:m[3]]))))
	if m[4] < m[5] {
		// Value prepends Padding spaces to the source bytes.
		start := first.Start + m[4] - first.Padding
		title := &CalloutTitle{}
		title.Lines().Append(text.NewSegment(start, start+m[5]-m[4]))
		parent.InsertBefore(parent, node, title)
	}

	if lines.Len() == 1 {
		parent.RemoveChild(parent, node)
		return
	}
	lines.SetSliced(1, lines.Len())
}

// calloutASTTransformer replaces marked blockquotes with callout nodes.
type calloutASTTransformer struct{}

func (t *calloutASTTransformer) Transform(doc *gast.Document, _ text.Reader, _ parser.Context) {
	var marked []*gast.Blockquote
	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		if bq, ok := n.(*gast.Blockquote); ok {
			if _, has := bq.Attribute(pendingType); has {
				marked = append(marked, bq)
			}
		}
		return gast.WalkContinue, nil
	})

	for _, bq := range marked {
		callout := &Callout{CalloutType: attrString(bq, pendingType)}
		if title, ok := bq.FirstChild().(*CalloutTitle); ok {
			callout.AppendChild(callout, title)
		}
		body := &CalloutBody{}
		for c := bq.FirstChild(); c != nil; {
			next := c.NextSibling()
			body.AppendChild(body, c)
			c = next
		}
		callout.AppendChild(callout, body)

		parent := bq.Parent()
		parent.ReplaceChild(parent, bq, callout)
	}
}

func attrString(n gast.Node, name []byte) string {
	v, ok := n.Attribute(name)
	if !ok {
		return ""
	}
	switch vv := v.(type) {
	case []byte:
		return string(vv)
	case string:
		return vv
	}
	return ""
}

// calloutRenderer writes the intermediate marker divs.
type calloutRenderer struct{}

func (r *calloutRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindCallout, r.renderCallout)
	reg.Register(KindCalloutTitle, r.renderTitle)
	reg.Register(KindCalloutBody, r.renderBody)
}

func (r *calloutRenderer) renderCallout(w util.BufWriter, _ []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return gast.WalkContinue, nil
	}
	n := node.(*Callout)
	_, _ = w.WriteString("<div " + AttrCallout + " " + AttrCalloutType + `="`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.CalloutType)))
	_, _ = w.WriteString("\">\n")
	return gast.WalkContinue, nil
}

func (r *calloutRenderer) renderTitle(w util.BufWriter, _ []byte, _ gast.Node, entering bool) (gast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<div " + AttrCalloutTitle + ">")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return gast.WalkContinue, nil
}

func (r *calloutRenderer) renderBody(w util.BufWriter, _ []byte, _ gast.Node, entering bool) (gast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<div " + AttrCalloutBody + ">\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return gast.WalkContinue, nil
}

type calloutExtension struct{}

// Callouts lowers `> [!type] title` blockquotes into callout marker divs.
var Callouts goldmark.Extender = &calloutExtension{}

func (e *calloutExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithParagraphTransformers(util.Prioritized(&calloutParagraphTransformer{}, 150)),
		parser.WithASTTransformers(util.Prioritized(&calloutASTTransformer{}, 150)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(&calloutRenderer{}, 500)))
}
