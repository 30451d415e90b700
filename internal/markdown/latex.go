// Package markdown converts Markdown manuscripts into typesettable LaTeX so
// the normal build pipeline can process sources written as <base>.md.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// citeShorthand matches pandoc-style citations like [@knuth1984].
var citeShorthand = regexp.MustCompile(`\[@([A-Za-z0-9_:.-]+)\]`)

// citeMarker survives both goldmark parsing and LaTeX escaping; guillemets
// never appear in the escape table.
const citeOpen, citeClose = "\u00ABcite:", "\u00BB"

var citeMarker = regexp.MustCompile("\u00ABcite:([A-Za-z0-9_:.-]+)\u00BB")

// RenderBody converts a Markdown body (frontmatter already removed) into a
// LaTeX document body.
func RenderBody(body []byte) (string, error) {
	// Protect citation shorthand from the CommonMark link parser.
	body = citeShorthand.ReplaceAll(body, []byte(citeOpen+"$1"+citeClose))

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var b strings.Builder
	r := &latexRenderer{src: body, out: &b}
	if err := r.render(root); err != nil {
		return "", err
	}
	return restoreCitations(b.String()), nil
}

// restoreCitations turns the protected markers back into \cite commands.
func restoreCitations(s string) string {
	return citeMarker.ReplaceAllString(s, `\cite{$1}`)
}

type latexRenderer struct {
	src []byte
	out *strings.Builder
}

func (r *latexRenderer) render(n gmast.Node) error {
	switch node := n.(type) {
	case *gmast.Document:
		return r.renderChildren(n)

	case *gmast.Heading:
		cmd := sectionCommand(node.Level)
		r.out.WriteString("\\" + cmd + "{")
		if err := r.renderChildren(n); err != nil {
			return err
		}
		r.out.WriteString("}\n\n")
		return nil

	case *gmast.Paragraph:
		if err := r.renderChildren(n); err != nil {
			return err
		}
		r.out.WriteString("\n\n")
		return nil

	case *gmast.TextBlock:
		if err := r.renderChildren(n); err != nil {
			return err
		}
		r.out.WriteString("\n")
		return nil

	case *gmast.Text:
		r.out.WriteString(Escape(string(node.Segment.Value(r.src))))
		if node.HardLineBreak() {
			r.out.WriteString("\\\\\n")
		} else if node.SoftLineBreak() {
			r.out.WriteString("\n")
		}
		return nil

	case *gmast.String:
		r.out.WriteString(Escape(string(node.Value)))
		return nil

	case *gmast.Emphasis:
		cmd := "emph"
		if node.Level == 2 {
			cmd = "textbf"
		}
		r.out.WriteString("\\" + cmd + "{")
		if err := r.renderChildren(n); err != nil {
			return err
		}
		r.out.WriteString("}")
		return nil

	case *gmast.CodeSpan:
		r.out.WriteString("\\texttt{")
		if err := r.renderChildren(n); err != nil {
			return err
		}
		r.out.WriteString("}")
		return nil

	case *gmast.FencedCodeBlock, *gmast.CodeBlock:
		r.out.WriteString("\\begin{verbatim}\n")
		r.writeRawLines(n)
		r.out.WriteString("\\end{verbatim}\n\n")
		return nil

	case *gmast.Blockquote:
		r.out.WriteString("\\begin{quote}\n")
		if err := r.renderChildren(n); err != nil {
			return err
		}
		r.out.WriteString("\\end{quote}\n\n")
		return nil

	case *gmast.List:
		env := "itemize"
		if node.IsOrdered() {
			env = "enumerate"
		}
		r.out.WriteString("\\begin{" + env + "}\n")
		if err := r.renderChildren(n); err != nil {
			return err
		}
		r.out.WriteString("\\end{" + env + "}\n\n")
		return nil

	case *gmast.ListItem:
		r.out.WriteString("\\item ")
		if err := r.renderChildren(n); err != nil {
			return err
		}
		return nil

	case *gmast.Link:
		dest := string(node.Destination)
		r.out.WriteString("\\href{" + escapeURL(dest) + "}{")
		if err := r.renderChildren(n); err != nil {
			return err
		}
		r.out.WriteString("}")
		return nil

	case *gmast.AutoLink:
		r.out.WriteString("\\url{" + escapeURL(string(node.URL(r.src))) + "}")
		return nil

	case *gmast.Image:
		r.out.WriteString("\\includegraphics{" + escapeURL(string(node.Destination)) + "}")
		return nil

	case *gmast.ThematicBreak:
		r.out.WriteString("\\medskip\\hrule\\medskip\n\n")
		return nil

	case *gmast.HTMLBlock, *gmast.RawHTML:
		// Raw HTML has no LaTeX rendering; drop it.
		return nil

	default:
		return r.renderChildren(n)
	}
}

func (r *latexRenderer) renderChildren(n gmast.Node) error {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if err := r.render(c); err != nil {
			return err
		}
	}
	return nil
}

// writeRawLines emits a block node's source lines without escaping, for
// verbatim environments.
func (r *latexRenderer) writeRawLines(n gmast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		r.out.Write(seg.Value(r.src))
	}
}

// sectionCommand maps a Markdown heading level onto the article hierarchy.
// Level 1 is the manuscript title in frontmatter terms, so headings start at
// section.
func sectionCommand(level int) string {
	switch level {
	case 1:
		return "section"
	case 2:
		return "subsection"
	case 3:
		return "subsubsection"
	default:
		return "paragraph"
	}
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape makes plain text safe for LaTeX.
func Escape(s string) string {
	return latexEscaper.Replace(s)
}

// escapeURL escapes only the characters LaTeX chokes on inside \href/\url
// arguments.
func escapeURL(s string) string {
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `#`, `\#`)
	return s
}

// HasCitations reports whether a Markdown body uses citation shorthand.
func HasCitations(body []byte) bool {
	return citeShorthand.Match(body)
}

// firstHeadingText extracts the text of the first level-1 heading, used as a
// title fallback when frontmatter has none.
func firstHeadingText(src []byte, root gmast.Node) string {
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			var buf bytes.Buffer
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*gmast.Text); ok {
					buf.Write(t.Segment.Value(src))
				}
			}
			title = buf.String()
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// TitleFromBody returns the first level-1 heading of a Markdown body, or "".
func TitleFromBody(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))
	return firstHeadingText(body, root)
}
