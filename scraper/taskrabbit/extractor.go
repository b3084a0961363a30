package taskrabbit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"taskrabbit-scraper/models"
)

var (
	hourlyRatePattern = regexp.MustCompile(`\$\s*([\d,]+(?:\.\d+)?)\s*/\s*hr`)
	plainPricePattern = regexp.MustCompile(`\$\s*([\d,]+\.\d{2})`)
	reviewPattern     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\(\s*([\d,]+)\s*reviews?`)
	elitePattern      = regexp.MustCompile(`\b(?:Elite|ELITE|elite)\b`)

	overallTaskPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([\d,]+)\s+(?:[A-Za-z&,' -]+?\s+)?tasks\s+overall`),
		regexp.MustCompile(`(?i)([\d,]+)\s+overall\s+tasks`),
		regexp.MustCompile(`(?i)([\d,]+)\s+total\s+tasks`),
		regexp.MustCompile(`(?i)([\d,]+)\s+tasks\s+completed`),
	}

	twoHourMinimumPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)2\s*hour\s*minimum`),
		regexp.MustCompile(`(?i)2\s*hr\s*minimum`),
		regexp.MustCompile(`(?i)2\s*hour\s*min\b`),
		regexp.MustCompile(`(?i)minimum\s*(?:of\s*)?2\s*hours?`),
		regexp.MustCompile(`(?i)min\s*2\s*hrs?\b`),
	}
)

// Extractor turns the outer HTML of one tasker card into a Tasker.
// It holds no state between cards.
type Extractor struct {
	categoryTasks *regexp.Regexp
}

// NewExtractor returns an extractor that counts "N <categoryName> tasks"
// as the category task count.
func NewExtractor(categoryName string) *Extractor {
	return &Extractor{
		categoryTasks: regexp.MustCompile(`(?i)([\d,]+)\s+` + regexp.QuoteMeta(strings.TrimSpace(categoryName)) + `\s+tasks(\s+overall)?`),
	}
}

// Extract parses one card. Every field except the name degrades to
// absent; a card without a name returns ErrMissingName.
func (e *Extractor) Extract(cardHTML string) (models.Tasker, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cardHTML))
	if err != nil {
		return models.Tasker{}, fmt.Errorf("parse card: %w", err)
	}

	lines := textLines(doc.Nodes)
	text := strings.Join(lines, "\n")

	name := findName(doc, lines)
	if name == "" {
		return models.Tasker{}, ErrMissingName
	}

	t := models.Tasker{
		Name:              name,
		HourlyRate:        parseRate(text),
		CategoryTaskCount: e.categoryCount(text),
		OverallTaskCount:  overallCount(text),
		TwoHourMinimum:    matchesAny(twoHourMinimumPatterns, text),
		EliteStatus:       elitePattern.MatchString(text) || doc.Find("[class*='elite'], [class*='Elite']").Length() > 0,
	}

	if m := reviewPattern.FindStringSubmatch(text); m != nil {
		rating, rerr := strconv.ParseFloat(m[1], 64)
		count, cerr := parseCount(m[2])
		if rerr == nil && cerr == nil {
			t.ReviewRating = &rating
			t.ReviewCount = &count
		}
	}

	return t, nil
}

func findName(doc *goquery.Document, lines []string) string {
	for _, sel := range nameSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			candidate := strings.Join(strings.Fields(s.Text()), " ")
			if IsValidPersonName(candidate) {
				found = candidate
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	if len(lines) > 0 && IsValidPersonName(lines[0]) {
		return lines[0]
	}
	return ""
}

func parseRate(text string) *float64 {
	m := hourlyRatePattern.FindStringSubmatch(text)
	if m == nil {
		m = plainPricePattern.FindStringSubmatch(text)
	}
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func (e *Extractor) categoryCount(text string) *int {
	for _, m := range e.categoryTasks.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			continue
		}
		if n, err := parseCount(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

func overallCount(text string) *int {
	for _, re := range overallTaskPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := parseCount(m[1]); err == nil {
				return &n
			}
		}
	}
	return nil
}

func parseCount(s string) (int, error) {
	return strconv.Atoi(strings.ReplaceAll(s, ",", ""))
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// textLines returns the trimmed, non-empty text nodes under nodes in
// document order. Each text node is one line, which keeps adjacent
// elements such as a name and a badge from running together.
func textLines(nodes []*html.Node) []string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if line := strings.Join(strings.Fields(n.Data), " "); line != "" {
				lines = append(lines, line)
			}
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return lines
}
