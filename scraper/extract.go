package scraper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/use-agent/reviewscope/models"
)

// ParseSnapshot parses rendered page HTML into a queryable document.
func ParseSnapshot(raw string) (*goquery.Document, error) {
	node, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtractionFailure, "failed to parse page snapshot", err)
	}
	return goquery.NewDocumentFromNode(node), nil
}

// ExtractBusiness reads the business summary. Every field is optional.
func ExtractBusiness(doc *goquery.Document, sel SelectorSet) models.BusinessSummary {
	return models.BusinessSummary{
		Name:        value(doc.Selection, sel[RoleBusinessName]),
		Rating:      value(doc.Selection, sel[RoleBusinessRating]),
		ReviewCount: parseCount(value(doc.Selection, sel[RoleBusinessReviewCount])),
	}
}

// ExtractReviews reads every review currently rendered in the feed, in
// feed order. It fails only when the feed container is missing.
func ExtractReviews(doc *goquery.Document, sel SelectorSet) ([]models.ReviewRecord, error) {
	container := doc.Find(sel[RoleFeedContainer].CSS).First()
	if container.Length() == 0 {
		return nil, models.NewScrapeError(
			models.ErrCodeExtractionFailure,
			fmt.Sprintf("feed container %q not in page", sel[RoleFeedContainer].CSS),
			nil,
		)
	}

	items := container.Find(sel[RoleReview].CSS)
	reviews := make([]models.ReviewRecord, 0, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		reviews = append(reviews, extractReview(item, sel))
	})
	return reviews, nil
}

func extractReview(item *goquery.Selection, sel SelectorSet) models.ReviewRecord {
	r := models.ReviewRecord{
		ID:       value(item, sel[RoleReviewID]),
		Author:   value(item, sel[RoleReviewAuthor]),
		Rating:   value(item, sel[RoleReviewRating]),
		PostedAt: value(item, sel[RoleReviewDate]),
	}
	if r.Author == "" {
		r.Author = models.DefaultAuthor
	}
	if r.Rating == "" {
		r.Rating = models.NoRating
	}

	// Long reviews render truncated until expanded; the expanded node wins.
	r.Text = value(item, sel[RoleReviewTextExpanded])
	if r.Text == "" {
		r.Text = value(item, sel[RoleReviewTextCollapsed])
	}
	if r.Text == "" {
		r.Text = models.NoReviewText
	}
	return r
}

// value returns the trimmed text, or the Attr attribute, of the first
// element matching s within scope. An empty CSS selects scope itself.
func value(scope *goquery.Selection, s Selector) string {
	target := scope
	if s.CSS != "" {
		target = scope.Find(s.CSS).First()
	} else if s.Attr == "" {
		return ""
	}
	if target.Length() == 0 {
		return ""
	}
	if s.Attr != "" {
		v, _ := target.Attr(s.Attr)
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(target.Text())
}

// parseCount keeps only the digits of label. It returns nil when nothing
// parseable is left; zero is a real count.
func parseCount(label string) *int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, label)
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}
