// Package parser provides HTML parsing and content extraction capabilities.
// It counts the words in the visible text of a document and collects the
// outbound links it can follow.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// nonWordChars matches everything that is stripped from a token before counting
var nonWordChars = regexp.MustCompile(`\W`)

// hiddenElements hold text that is never shown to a reader
const hiddenElements = "script, style, noscript, template"

// HTMLParser extracts word counts and links from HTML
type HTMLParser struct {
	baseURL        *url.URL
	allowedSchemes []string
	ignoredWords   []*regexp.Regexp
}

// ParseResult contains the parsed HTML data
type ParseResult struct {
	Title      string
	WordCounts map[string]int
	Links      []string
}

// NewHTMLParser creates a new HTML parser resolving links against baseURL.
// Words fully matching any of ignoredWords are not counted.
func NewHTMLParser(baseURL string, ignoredWords []*regexp.Regexp) (*HTMLParser, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &HTMLParser{
		baseURL:        parsedURL,
		allowedSchemes: []string{"https", "http"},
		ignoredWords:   ignoredWords,
	}, nil
}

// Parse parses HTML content and extracts word counts and links.
func (p *HTMLParser) Parse(htmlContent []byte) (*ParseResult, error) {
	root, err := html.Parse(bytes.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Find(hiddenElements).Remove()

	result := &ParseResult{
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		WordCounts: make(map[string]int),
		Links:      []string{},
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if link, ok := p.parseAnchor(a); ok {
			result.Links = append(result.Links, link)
		}
	})

	p.collectWords(root, result)

	return result, nil
}

// collectWords counts the words of every text node under n
func (p *HTMLParser) collectWords(n *html.Node, result *ParseResult) {
	if n.Type == html.TextNode {
		p.countWords(n.Data, result)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.collectWords(c, result)
	}
}

// countWords splits text on whitespace, normalizes each token and counts it
func (p *HTMLParser) countWords(text string, result *ParseResult) {
	for _, token := range strings.Fields(text) {
		word := strings.ToLower(nonWordChars.ReplaceAllString(token, ""))
		if word == "" || p.isIgnoredWord(word) {
			continue
		}
		result.WordCounts[word]++
	}
}

func (p *HTMLParser) isIgnoredWord(word string) bool {
	for _, re := range p.ignoredWords {
		if re.MatchString(word) {
			return true
		}
	}
	return false
}

// parseAnchor returns the followable link of an anchor element
func (p *HTMLParser) parseAnchor(a *goquery.Selection) (string, bool) {
	href := strings.TrimSpace(a.AttrOr("href", ""))
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	return p.resolveURL(href)
}

// resolveURL converts href to an absolute URL without fragment.
// Only URLs with an allowed scheme are returned.
func (p *HTMLParser) resolveURL(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := p.baseURL.ResolveReference(u)
	if !p.isAllowedScheme(resolved.Scheme) || resolved.Host == "" {
		return "", false
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""

	return resolved.String(), true
}

// isAllowedScheme checks if the scheme is one the fetcher can follow
func (p *HTMLParser) isAllowedScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, allowed := range p.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}
