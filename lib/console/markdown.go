// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// wrapBreakpoints are the extra characters lines may break after.
const wrapBreakpoints = " ,.;-+|/"

var descriptionParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown renders a scene description for the header. Soft
// line breaks reflow; paragraphs, headings, lists, and code blocks
// keep their structure. Plain text without markdown renders as
// wrapped paragraphs.
func renderMarkdown(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	source := []byte(input)
	document := descriptionParser.Parser().Parse(text.NewReader(source))

	// Pin the profile: the output always goes to the TUI, and
	// detection would strip colour when stderr is not a terminal.
	lip := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lip.SetColorProfile(termenv.ANSI256)

	r := &descriptionRenderer{source: source, theme: theme, width: width, lip: lip}
	ast.Walk(document, r.walk)
	return strings.TrimRight(r.output.String(), "\n")
}

type descriptionRenderer struct {
	source []byte
	theme  Theme
	width  int
	lip    *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	bold, italic, strike int

	// lists holds the next number for each open ordered list, or -1
	// for bullet lists.
	lists  []int
	bullet string
}

func (r *descriptionRenderer) indent() string {
	return strings.Repeat("  ", max(0, len(r.lists)-1))
}

func (r *descriptionRenderer) blankLine() {
	current := r.output.String()
	if current == "" || strings.HasSuffix(current, "\n\n") {
		return
	}
	if strings.HasSuffix(current, "\n") {
		r.output.WriteString("\n")
		return
	}
	r.output.WriteString("\n\n")
}

// flush wraps the inline buffer and writes it as one block.
func (r *descriptionRenderer) flush() {
	content := r.inline.String()
	r.inline.Reset()
	if strings.TrimSpace(ansi.Strip(content)) == "" {
		return
	}
	prefix := r.indent()
	first := prefix
	if r.bullet != "" {
		first = prefix + r.bullet
		prefix += strings.Repeat(" ", len(r.bullet))
		r.bullet = ""
	}
	wrapped := ansi.Wrap(content, max(10, r.width-len(prefix)), wrapBreakpoints)
	for index, line := range strings.Split(wrapped, "\n") {
		if index == 0 {
			r.output.WriteString(first)
		} else {
			r.output.WriteString(prefix)
		}
		r.output.WriteString(line)
		r.output.WriteString("\n")
	}
}

func (r *descriptionRenderer) style(content string) string {
	style := r.lip.NewStyle().Foreground(r.theme.NormalText)
	if r.bold > 0 {
		style = style.Bold(true)
	}
	if r.italic > 0 {
		style = style.Italic(true)
	}
	if r.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

func (r *descriptionRenderer) faint(content string) string {
	return r.lip.NewStyle().Foreground(r.theme.FaintText).Render(content)
}

func (r *descriptionRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if !entering {
			r.flush()
			if len(r.lists) == 0 {
				r.blankLine()
			}
		}

	case ast.KindHeading:
		if !entering {
			content := ansi.Strip(r.inline.String())
			r.inline.Reset()
			style := r.lip.NewStyle().Bold(true).Foreground(r.theme.HeaderForeground)
			r.blankLine()
			r.output.WriteString(ansi.Wrap(style.Render(content), r.width, wrapBreakpoints))
			r.output.WriteString("\n")
			r.blankLine()
		}

	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		if entering {
			r.codeBlock(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			next := -1
			if list.IsOrdered() {
				next = list.Start
			}
			r.lists = append(r.lists, next)
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			if len(r.lists) == 0 {
				r.blankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			r.flush()
			top := &r.lists[len(r.lists)-1]
			if *top < 0 {
				r.bullet = "- "
			} else {
				r.bullet = fmt.Sprintf("%d. ", *top)
				*top++
			}
		} else {
			r.flush()
		}

	case ast.KindText:
		if entering {
			node := node.(*ast.Text)
			r.inline.WriteString(r.style(string(node.Segment.Value(r.source))))
			switch {
			case node.HardLineBreak():
				r.inline.WriteString("\n")
			case node.SoftLineBreak():
				r.inline.WriteString(" ")
			}
		}

	case ast.KindString:
		if entering {
			r.inline.WriteString(r.style(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if node.(*ast.Emphasis).Level >= 2 {
			r.bold += delta
		} else {
			r.italic += delta
		}

	case extast.KindStrikethrough:
		if entering {
			r.strike++
		} else {
			r.strike--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(r.source))
				}
			}
			r.inline.WriteString(r.faint(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			destination := string(node.(*ast.Link).Destination)
			if destination != "" {
				r.inline.WriteString(" " + r.faint("("+destination+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			r.inline.WriteString(r.faint(string(node.(*ast.AutoLink).URL(r.source))))
		}

	case ast.KindHTMLBlock, ast.KindRawHTML:
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// codeBlock writes a code block, highlighted with chroma when it
// names a language chroma knows.
func (r *descriptionRenderer) codeBlock(node ast.Node) {
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(r.source))
	}

	rendered := r.faint(strings.TrimRight(code.String(), "\n"))
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		if language := string(fenced.Language(r.source)); language != "" {
			var highlighted strings.Builder
			if err := quick.Highlight(&highlighted, code.String(), language, "terminal256", "monokai"); err == nil {
				rendered = strings.TrimRight(highlighted.String(), "\n")
			}
		}
	}

	r.blankLine()
	prefix := r.indent() + "  "
	for _, line := range strings.Split(rendered, "\n") {
		r.output.WriteString(prefix + line + "\n")
	}
	r.blankLine()
}
