package scraper

import (
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/reviewscope/models"
)

const reviewFixture = `<html><body>
<h1 class="DUwDvf"> Example Cafe </h1>
<div class="F7nice"><span aria-hidden="true">4,6</span><span aria-label="1,234 reviews">(1,234)</span></div>
<div class="m6QErb DxyBCb kA9KIf dS8AEf">
  <div class="jftiEf" data-review-id="a1">
    <div class="d4r55">Ann</div>
    <span class="kvMYJc" aria-label="5 stars">★★★★★</span>
    <span class="rsqaWe">a week ago</span>
    <div class="MyEned">Great coffee… <span class="wiI7pd">Great coffee and friendly staff.</span></div>
  </div>
  <div class="jftiEf" data-review-id="b2">
    <span class="kvMYJc" aria-label="Excellent">★★★★</span>
    <div class="MyEned">Short and sweet</div>
  </div>
  <div class="jftiEf">
    <div class="d4r55">   </div>
  </div>
</div>
</body></html>`

func mustParse(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := ParseSnapshot(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtractReviews(t *testing.T) {
	doc := mustParse(t, reviewFixture)

	reviews, err := ExtractReviews(doc, DefaultSelectors())
	if err != nil {
		t.Fatalf("ExtractReviews: %v", err)
	}

	want := []models.ReviewRecord{
		{ID: "a1", Author: "Ann", Rating: "5 stars", Text: "Great coffee and friendly staff.", PostedAt: "a week ago"},
		{ID: "b2", Author: models.DefaultAuthor, Rating: "Excellent", Text: "Short and sweet"},
		{Author: models.DefaultAuthor, Rating: models.NoRating, Text: models.NoReviewText},
	}
	if len(reviews) != len(want) {
		t.Fatalf("got %d reviews, want %d: %+v", len(reviews), len(want), reviews)
	}
	for i := range want {
		if reviews[i] != want[i] {
			t.Errorf("review %d = %+v, want %+v", i, reviews[i], want[i])
		}
	}
}

func TestExtractReviewsMissingContainer(t *testing.T) {
	doc := mustParse(t, `<html><body><div class="jftiEf">orphan</div></body></html>`)

	_, err := ExtractReviews(doc, DefaultSelectors())
	if models.CodeOf(err) != models.ErrCodeExtractionFailure {
		t.Fatalf("code = %q, want %q", models.CodeOf(err), models.ErrCodeExtractionFailure)
	}
}

func TestExtractReviewsEmptyFeed(t *testing.T) {
	doc := mustParse(t, `<div class="m6QErb DxyBCb kA9KIf dS8AEf"></div>`)

	reviews, err := ExtractReviews(doc, DefaultSelectors())
	if err != nil {
		t.Fatalf("empty feed is not an error: %v", err)
	}
	if reviews == nil || len(reviews) != 0 {
		t.Errorf("reviews = %#v, want empty slice", reviews)
	}
}

func TestExtractBusiness(t *testing.T) {
	biz := ExtractBusiness(mustParse(t, reviewFixture), DefaultSelectors())

	if biz.Name != "Example Cafe" {
		t.Errorf("name = %q", biz.Name)
	}
	if biz.Rating != "4,6" {
		t.Errorf("rating = %q, want source format kept", biz.Rating)
	}
	if biz.ReviewCount == nil || *biz.ReviewCount != 1234 {
		t.Errorf("review count = %v, want 1234", biz.ReviewCount)
	}
}

func TestExtractBusinessAbsentFields(t *testing.T) {
	biz := ExtractBusiness(mustParse(t, `<html><body></body></html>`), DefaultSelectors())
	if biz.Name != "" || biz.Rating != "" || biz.ReviewCount != nil {
		t.Errorf("expected empty summary, got %+v", biz)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		label string
		want  *int
	}{
		{"1,234 reviews", intPtr(1234)},
		{"(87)", intPtr(87)},
		{"0 reviews", intPtr(0)},
		{"No reviews", nil},
		{"", nil},
		{"99999999999999999999999", nil},
	}
	for _, tt := range tests {
		got := parseCount(tt.label)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseCount(%q) = %d, want nil", tt.label, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("parseCount(%q) = %v, want %d", tt.label, got, *tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }
