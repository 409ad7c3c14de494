package helpers

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const maxPageLinks = 200

var (
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spacesRe     = regexp.MustCompile(`[ \t\r\f\v]+`)
)

// PageText is the cleaned, prompt-ready form of a fetched HTML document.
type PageText struct {
	Title    string
	Markdown string
}

// HTMLToMarkdown turns a raw HTML document into a compact markdown rendering: a title,
// the readable body text and a list of absolute links. The link list is what lets the
// store-list filter pick shop URLs out of a scraped overview page. maxChars bounds the
// body text; zero means unbounded.
func HTMLToMarkdown(rawHTML string, pageURL *url.URL, maxChars int) (PageText, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return PageText{}, fmt.Errorf("empty document")
	}
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	raw, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return PageText{}, fmt.Errorf("parse html: %w", err)
	}
	title := collapse(raw.Find("title").First().Text())

	clean, err := goquery.NewDocumentFromReader(strings.NewReader(SanitizePageHTML(rawHTML)))
	if err != nil {
		return PageText{}, fmt.Errorf("parse sanitized html: %w", err)
	}

	body := ""
	if article, err := readability.FromReader(strings.NewReader(rawHTML), pageURL); err == nil {
		body = normalizeText(article.TextContent)
		if title == "" {
			title = collapse(article.Title)
		}
	}
	if body == "" {
		body = normalizeText(clean.Text())
	}
	body = truncateRunes(body, maxChars)

	var b strings.Builder
	if title != "" {
		b.WriteString("# " + title + "\n\n")
	}
	b.WriteString(body)
	if links := extractLinks(clean, pageURL); len(links) > 0 {
		b.WriteString("\n\n## Links\n")
		for _, l := range links {
			fmt.Fprintf(&b, "- [%s](%s)\n", l.text, l.href)
		}
	}
	return PageText{Title: title, Markdown: strings.TrimSpace(b.String())}, nil
}

type pageLink struct {
	text string
	href string
}

func extractLinks(doc *goquery.Document, base *url.URL) []pageLink {
	seen := make(map[string]struct{})
	var out []pageLink
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		abs.Fragment = ""
		key := abs.String()
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		text := collapse(s.Text())
		if text == "" {
			text = abs.Host
		}
		out = append(out, pageLink{text: text, href: key})
		return len(out) < maxPageLinks
	})
	return out
}

func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(blankLinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
