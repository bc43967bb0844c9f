package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestPageLimitsFromQuery(t *testing.T) {
	configured := PageLimits{Default: 25, Max: 100}

	cases := []struct {
		name   string
		limits PageLimits
		url    string
		page   int
		limit  int
		offset int
	}{
		{"configured default", configured, "/users", 1, 25, 0},
		{"configured cap", configured, "/users?limit=500", 1, 100, 0},
		{"within configured cap", configured, "/users?page=3&limit=60", 3, 60, 120},
		{"zero value falls back", PageLimits{}, "/users?limit=500", 1, 50, 0},
		{"zero value default", PageLimits{}, "/users", 1, 10, 0},
		{"negative page clamps", configured, "/users?page=-2", 1, 25, 0},
	}

	for _, tc := range cases {
		r := httptest.NewRequest("GET", tc.url, nil)
		page, limit, offset := tc.limits.fromQuery(r)
		if page != tc.page || limit != tc.limit || offset != tc.offset {
			t.Fatalf("%s: got page=%d limit=%d offset=%d, want %d/%d/%d",
				tc.name, page, limit, offset, tc.page, tc.limit, tc.offset)
		}
	}
}
