package handlers

import (
	"testing"

	"github.com/roomly-app/MessagingBack/internal/models"
)

func TestParseLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", defaultMessageLimit},
		{"25", 25},
		{"0", defaultMessageLimit},
		{"-3", defaultMessageLimit},
		{"abc", defaultMessageLimit},
		{"200", maxMessageLimit},
		{"1000", maxMessageLimit},
	}

	for _, tc := range cases {
		if got := parseLimit(tc.raw); got != tc.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestParseCursor(t *testing.T) {
	if cursor, err := parseCursor(""); err != nil || cursor != 0 {
		t.Errorf("empty cursor: got %d, %v", cursor, err)
	}
	if cursor, err := parseCursor("17"); err != nil || cursor != 17 {
		t.Errorf("numeric cursor: got %d, %v", cursor, err)
	}
	if _, err := parseCursor("-1"); err == nil {
		t.Errorf("negative cursor should fail")
	}
	if _, err := parseCursor("abc"); err == nil {
		t.Errorf("non-numeric cursor should fail")
	}
}

func TestBuildPageInfo(t *testing.T) {
	messages := []models.Message{{ID: "msg-1", Seq: 4}, {ID: "msg-2", Seq: 9}}

	page := buildPageInfo(50, messages, true)
	if page.Limit != 50 || !page.HasMore || page.NextCursor != 9 {
		t.Errorf("unexpected page info: %+v", page)
	}

	lastPage := buildPageInfo(50, messages, false)
	if lastPage.HasMore || lastPage.NextCursor != 0 {
		t.Errorf("final page should carry no cursor: %+v", lastPage)
	}

	emptyPage := buildPageInfo(50, nil, true)
	if emptyPage.NextCursor != 0 {
		t.Errorf("empty page should carry no cursor: %+v", emptyPage)
	}
}
