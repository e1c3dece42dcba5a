package scraper

import (
	"fmt"
	"os"
	"sort"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// Role names an element the pipeline needs to find, independent of the
// markup of any particular site version.
type Role string

const (
	RoleConsent             Role = "consent"
	RoleFeedEntry           Role = "feed_entry"
	RoleFeedContainer       Role = "feed_container"
	RoleBusinessName        Role = "business_name"
	RoleBusinessRating      Role = "business_rating"
	RoleBusinessReviewCount Role = "business_review_count"
	RoleReview              Role = "review"
	RoleReviewID            Role = "review_id"
	RoleReviewAuthor        Role = "review_author"
	RoleReviewRating        Role = "review_rating"
	RoleReviewTextExpanded  Role = "review_text_expanded"
	RoleReviewTextCollapsed Role = "review_text_collapsed"
	RoleReviewDate          Role = "review_date"
)

var knownRoles = map[Role]struct{}{
	RoleConsent: {}, RoleFeedEntry: {}, RoleFeedContainer: {},
	RoleBusinessName: {}, RoleBusinessRating: {}, RoleBusinessReviewCount: {},
	RoleReview: {}, RoleReviewID: {}, RoleReviewAuthor: {}, RoleReviewRating: {},
	RoleReviewTextExpanded: {}, RoleReviewTextCollapsed: {}, RoleReviewDate: {},
}

var requiredRoles = []Role{RoleFeedEntry, RoleFeedContainer, RoleReview}

// Selector locates a role. CSS is resolved relative to the review item for
// review_* roles and to the document otherwise; an empty CSS on a review_*
// role means the item itself. When Attr is set the value is read from that
// attribute instead of the element text.
type Selector struct {
	CSS  string `yaml:"css"`
	Attr string `yaml:"attr,omitempty"`
}

// SelectorSet maps every role to its selector for one site version.
type SelectorSet map[Role]Selector

// DefaultSelectors returns the selector set for the current Google Maps
// place page.
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		RoleConsent:             {CSS: `form[action*="consent"] button, button[aria-label*="Accept all"]`},
		RoleFeedEntry:           {CSS: `button[jsaction*="moreReviews"], button[role="tab"][aria-label^="Reviews"]`},
		RoleFeedContainer:       {CSS: `div.m6QErb.DxyBCb.kA9KIf.dS8AEf`},
		RoleBusinessName:        {CSS: `h1.DUwDvf`},
		RoleBusinessRating:      {CSS: `div.F7nice span[aria-hidden="true"]`},
		RoleBusinessReviewCount: {CSS: `div.F7nice span[aria-label*="review"]`, Attr: "aria-label"},
		RoleReview:              {CSS: `div.jftiEf`},
		RoleReviewID:            {Attr: "data-review-id"},
		RoleReviewAuthor:        {CSS: `div.d4r55`},
		RoleReviewRating:        {CSS: `span.kvMYJc`, Attr: "aria-label"},
		RoleReviewTextExpanded:  {CSS: `span.wiI7pd`},
		RoleReviewTextCollapsed: {CSS: `div.MyEned`},
		RoleReviewDate:          {CSS: `span.rsqaWe`},
	}
}

// LoadSelectorSet reads a YAML file of role overrides on top of the
// defaults. An empty path returns the defaults.
//
//	feed_container:
//	  css: div[role="feed"]
//	review_rating:
//	  css: span[role="img"]
//	  attr: aria-label
func LoadSelectorSet(path string) (SelectorSet, error) {
	set := DefaultSelectors()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selector file: %w", err)
	}

	var overrides map[Role]Selector
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse selector file %s: %w", path, err)
	}
	for role, sel := range overrides {
		if _, ok := knownRoles[role]; !ok {
			return nil, fmt.Errorf("selector file %s: unknown role %q", path, role)
		}
		set[role] = sel
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("selector file %s: %w", path, err)
	}
	return set, nil
}

// Validate checks that required roles are present and that every CSS
// selector parses.
func (s SelectorSet) Validate() error {
	for _, role := range requiredRoles {
		if s[role].CSS == "" {
			return fmt.Errorf("required role %q has no selector", role)
		}
	}
	for _, role := range s.Roles() {
		sel := s[role]
		if sel.CSS == "" {
			continue
		}
		if _, err := cascadia.ParseGroup(sel.CSS); err != nil {
			return fmt.Errorf("role %q: invalid selector %q: %w", role, sel.CSS, err)
		}
	}
	return nil
}

// Roles returns the roles present in the set in a stable order.
func (s SelectorSet) Roles() []Role {
	roles := make([]Role, 0, len(s))
	for r := range s {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Marshal renders the set as YAML.
func (s SelectorSet) Marshal() ([]byte, error) {
	return yaml.Marshal(map[Role]Selector(s))
}
