package scraper

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/use-agent/reviewscope/models"
)

func TestNavigateStates(t *testing.T) {
	tests := []struct {
		name      string
		sess      *fakeSession
		wantState NavState
		wantTrace []NavState
		wantCode  string
		wantClick []Role
	}{
		{
			name:      "consent then feed",
			sess:      &fakeSession{},
			wantState: StateReady,
			wantTrace: []NavState{StateLoading, StateConsentCheck, StateFeedEntryWait, StateFeedEntryClick, StateContainerWait, StateReady},
			wantClick: []Role{RoleConsent, RoleFeedEntry},
		},
		{
			name:      "no consent interstitial",
			sess:      &fakeSession{missing: map[Role]bool{RoleConsent: true}},
			wantState: StateReady,
			wantTrace: []NavState{StateLoading, StateConsentCheck, StateFeedEntryWait, StateFeedEntryClick, StateContainerWait, StateReady},
			wantClick: []Role{RoleFeedEntry},
		},
		{
			name:      "consent click failure is ignored",
			sess:      &fakeSession{clickErr: map[Role]error{RoleConsent: errors.New("detached")}},
			wantState: StateReady,
			wantTrace: []NavState{StateLoading, StateConsentCheck, StateFeedEntryWait, StateFeedEntryClick, StateContainerWait, StateReady},
			wantClick: []Role{RoleConsent, RoleFeedEntry},
		},
		{
			name:      "no feed entry point",
			sess:      &fakeSession{missing: map[Role]bool{RoleFeedEntry: true}},
			wantState: StateNoFeed,
			wantTrace: []NavState{StateLoading, StateConsentCheck, StateFeedEntryWait, StateNoFeed},
			wantCode:  models.ErrCodeNoFeedFound,
			wantClick: []Role{RoleConsent},
		},
		{
			name:      "entry click fails",
			sess:      &fakeSession{clickErr: map[Role]error{RoleFeedEntry: errors.New("not visible")}},
			wantState: StateFailed,
			wantTrace: []NavState{StateLoading, StateConsentCheck, StateFeedEntryWait, StateFeedEntryClick, StateFailed},
			wantCode:  models.ErrCodeFeedContainerMissing,
			wantClick: []Role{RoleConsent, RoleFeedEntry},
		},
		{
			name:      "container never appears",
			sess:      &fakeSession{missing: map[Role]bool{RoleFeedContainer: true}},
			wantState: StateFailed,
			wantTrace: []NavState{StateLoading, StateConsentCheck, StateFeedEntryWait, StateFeedEntryClick, StateContainerWait, StateFailed},
			wantCode:  models.ErrCodeFeedContainerMissing,
			wantClick: []Role{RoleConsent, RoleFeedEntry},
		},
		{
			name:      "load times out",
			sess:      &fakeSession{loadErr: fmt.Errorf("navigate: %w", context.DeadlineExceeded)},
			wantState: StateFailed,
			wantTrace: []NavState{StateLoading, StateFailed},
			wantCode:  models.ErrCodeNavigationTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := NewNavigator(testConfig().Navigation)
			res, err := nav.Navigate(context.Background(), tt.sess, "https://maps.example.com/place/1")

			if res.State != tt.wantState {
				t.Errorf("state = %s, want %s", res.State, tt.wantState)
			}
			if !reflect.DeepEqual(res.Trace, tt.wantTrace) {
				t.Errorf("trace = %v, want %v", res.Trace, tt.wantTrace)
			}
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else if models.CodeOf(err) != tt.wantCode {
				t.Errorf("code = %q, want %q (err %v)", models.CodeOf(err), tt.wantCode, err)
			}
			if !reflect.DeepEqual(tt.sess.clicks, tt.wantClick) {
				t.Errorf("clicks = %v, want %v", tt.sess.clicks, tt.wantClick)
			}
		})
	}
}

func TestNavigateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := &fakeSession{}
	res, err := NewNavigator(testConfig().Navigation).Navigate(ctx, sess, "https://maps.example.com/place/1")
	if res.State != StateFailed {
		t.Errorf("state = %s, want failed", res.State)
	}
	if models.CodeOf(err) != models.ErrCodeNavigationTimeout {
		t.Errorf("code = %q", models.CodeOf(err))
	}
}
