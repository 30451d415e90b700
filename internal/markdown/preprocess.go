package markdown

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/paperkit/internal/artifact"
	"git.home.luguber.info/inful/paperkit/internal/frontmatter"
)

// Meta carries the manuscript metadata a Markdown frontmatter block may set.
type Meta struct {
	Title             string `yaml:"title"`
	Author            string `yaml:"author"`
	Date              string `yaml:"date"`
	DocumentClass     string `yaml:"documentclass"`
	Bibliography      string `yaml:"bibliography"`       // .bib base name, e.g. "refs"
	BibliographyStyle string `yaml:"bibliography_style"` // BibTeX style, default "plain"
}

// Preprocess converts <base>.md into <base>.tex inside dir so the regular
// typesetting pipeline can consume it. The generated file is overwritten on
// every build; it is a derived artifact, not a source to edit.
func Preprocess(dir, base string) error {
	src := artifact.MarkdownSourcePath(dir, base)
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read markdown source: %w", err)
	}

	fm, body, had, err := frontmatter.Split(content)
	if err != nil {
		return fmt.Errorf("split frontmatter: %w", err)
	}

	meta := Meta{}
	if had {
		if err := frontmatter.Parse(fm, &meta); err != nil {
			return fmt.Errorf("parse frontmatter: %w", err)
		}
	}
	if meta.Title == "" {
		meta.Title = TitleFromBody(body)
	}
	if meta.DocumentClass == "" {
		meta.DocumentClass = "article"
	}
	if meta.BibliographyStyle == "" {
		meta.BibliographyStyle = "plain"
	}

	if meta.Bibliography == "" && HasCitations(body) {
		slog.Warn("Manuscript uses citations but frontmatter sets no bibliography",
			"source", src)
	}

	rendered, err := RenderBody(body)
	if err != nil {
		return fmt.Errorf("render markdown body: %w", err)
	}

	doc := assembleDocument(meta, rendered)

	out := artifact.SourcePath(dir, base)
	if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write generated tex: %w", err)
	}
	slog.Debug("Markdown manuscript preprocessed", "source", src, "generated", out)
	return nil
}

// assembleDocument wraps a rendered body in a minimal preamble derived from
// the frontmatter metadata.
func assembleDocument(meta Meta, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\\documentclass{%s}\n", meta.DocumentClass)
	b.WriteString("\\usepackage[utf8]{inputenc}\n")
	b.WriteString("\\usepackage{graphicx}\n")
	b.WriteString("\\usepackage{hyperref}\n")
	if meta.Title != "" {
		fmt.Fprintf(&b, "\\title{%s}\n", Escape(meta.Title))
	}
	if meta.Author != "" {
		fmt.Fprintf(&b, "\\author{%s}\n", Escape(meta.Author))
	}
	if meta.Date != "" {
		fmt.Fprintf(&b, "\\date{%s}\n", Escape(meta.Date))
	}
	b.WriteString("\\begin{document}\n")
	if meta.Title != "" {
		b.WriteString("\\maketitle\n")
	}
	b.WriteString("\n")
	b.WriteString(body)
	if meta.Bibliography != "" {
		fmt.Fprintf(&b, "\n\\bibliographystyle{%s}\n", meta.BibliographyStyle)
		fmt.Fprintf(&b, "\\bibliography{%s}\n", meta.Bibliography)
	}
	b.WriteString("\\end{document}\n")
	return b.String()
}
