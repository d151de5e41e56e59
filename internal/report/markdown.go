package report

import (
	"html"
	htmltemplate "html/template"
	"regexp"
	"strings"
)

var boldRegex = regexp.MustCompile(`\*\*([^*]+)\*\*`)

// markdownToHTML converts the summarizer's markdown subset (## headings,
// - or * bullets, **bold**) into HTML for the report body. Every line is
// HTML-escaped before any tags are added, so collaborator output cannot
// inject markup.
func markdownToHTML(md string) htmltemplate.HTML {
	var out strings.Builder
	inList := false

	closeList := func() {
		if inList {
			out.WriteString("</ul>\n")
			inList = false
		}
	}

	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			closeList()
		case strings.HasPrefix(trimmed, "### "):
			closeList()
			out.WriteString("<h4>" + inline(strings.TrimPrefix(trimmed, "### ")) + "</h4>\n")
		case strings.HasPrefix(trimmed, "## "):
			closeList()
			out.WriteString("<h3>" + inline(strings.TrimPrefix(trimmed, "## ")) + "</h3>\n")
		case strings.HasPrefix(trimmed, "# "):
			closeList()
			out.WriteString("<h3>" + inline(strings.TrimPrefix(trimmed, "# ")) + "</h3>\n")
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			if !inList {
				out.WriteString("<ul>\n")
				inList = true
			}
			out.WriteString("<li>" + inline(trimmed[2:]) + "</li>\n")
		default:
			closeList()
			out.WriteString("<p>" + inline(trimmed) + "</p>\n")
		}
	}
	closeList()

	return htmltemplate.HTML(out.String())
}

// inline escapes a line of text, then applies bold markers.
func inline(s string) string {
	escaped := html.EscapeString(s)
	return boldRegex.ReplaceAllString(escaped, "<strong>$1</strong>")
}
