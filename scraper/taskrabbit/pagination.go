package taskrabbit

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var pageParamPattern = regexp.MustCompile(`[?&]page=(\d+)`)

// PaginationInfo describes the pagination control of a results page.
type PaginationInfo struct {
	Current int
	Pages   []int
	HasNext bool
	// NextXPath locates the control that leads to the next page. Empty
	// when HasNext is false.
	NextXPath string
}

const (
	muiPageButtons = "//button[contains(@class, 'MuiPaginationItem-page') or (contains(@class, 'MuiPaginationItem-root') and not(contains(@class, 'MuiPaginationItem-previousNext')))]"
	nextControls   = "//button[contains(@aria-label, 'Next') or contains(@aria-label, 'next')] | //a[contains(@aria-label, 'Next') or contains(@aria-label, 'next')] | //a[@rel='next']"
	pageLinks      = "//a[contains(@href, 'page=')]"
)

// InspectPagination reads the pagination state from a full results
// document. MUI page buttons are preferred, then next controls, then
// links carrying a page= query parameter.
func InspectPagination(document string) (PaginationInfo, error) {
	doc, err := htmlquery.Parse(strings.NewReader(document))
	if err != nil {
		return PaginationInfo{}, fmt.Errorf("parse document: %w", err)
	}

	info := PaginationInfo{Current: 1}
	var nextButton bool

	for _, n := range htmlquery.Find(doc, muiPageButtons) {
		num, err := strconv.Atoi(strings.TrimSpace(htmlquery.InnerText(n)))
		if err != nil {
			continue
		}
		info.Pages = appendUnique(info.Pages, num)
		if isCurrent(n) {
			info.Current = num
		}
	}

	for _, n := range htmlquery.Find(doc, pageLinks) {
		m := pageParamPattern.FindStringSubmatch(htmlquery.SelectAttr(n, "href"))
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		info.Pages = appendUnique(info.Pages, num)
		if isCurrent(n) {
			info.Current = num
		}
	}
	slices.Sort(info.Pages)

	for _, n := range htmlquery.Find(doc, nextControls) {
		if !isDisabled(n) {
			nextButton = true
			break
		}
	}

	next := info.Current + 1
	switch {
	case slices.Contains(info.Pages, next) && hasMUIButton(doc, next):
		info.HasNext = true
		info.NextXPath = pageButtonXPath(next)
	case nextButton:
		info.HasNext = true
		info.NextXPath = "(" + nextControls + ")[not(@disabled)][1]"
	case slices.Contains(info.Pages, next):
		info.HasNext = true
		info.NextXPath = pageLinkXPath(next)
	}

	return info, nil
}

// pageButtonXPath locates the MUI pagination button for page n.
func pageButtonXPath(n int) string {
	return fmt.Sprintf("//button[contains(@class, 'MuiPaginationItem') and normalize-space(.)='%d']", n)
}

// pageLinkXPath locates a link whose page query parameter is exactly n.
// The query delimiters and the end of the href are folded into '&' so
// page=2 does not match page=20.
func pageLinkXPath(n int) string {
	return fmt.Sprintf("//a[contains(concat(translate(@href, '?#', '&&'), '&'), '&page=%d&')]", n)
}

func hasMUIButton(doc *html.Node, n int) bool {
	return htmlquery.FindOne(doc, pageButtonXPath(n)) != nil
}

func isCurrent(n *html.Node) bool {
	if htmlquery.SelectAttr(n, "aria-current") == "page" {
		return true
	}
	class := htmlquery.SelectAttr(n, "class")
	return strings.Contains(class, "Mui-selected")
}

func isDisabled(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "disabled" {
			return true
		}
	}
	if htmlquery.SelectAttr(n, "aria-disabled") == "true" {
		return true
	}
	return strings.Contains(strings.ToLower(htmlquery.SelectAttr(n, "class")), "disabled")
}

func appendUnique(s []int, n int) []int {
	if slices.Contains(s, n) {
		return s
	}
	return append(s, n)
}
