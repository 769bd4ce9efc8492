package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func Test_parseDate(t *testing.T) {
	d, err := parseDate("start", "2016-02-29")
	if err != nil {
		t.Fatalf("parseDate() err = %v; want nil", err)
	}
	if d.String() != "2016-02-29" {
		t.Errorf("date = %s; want 2016-02-29", d)
	}

	for _, raw := range []string{"", "2017-02-29", "2017-8-23", "2017/08/23", "2017-08-23T00:00:00Z"} {
		if _, err := parseDate("start", raw); err == nil {
			t.Errorf("parseDate(%q) err = nil; want error", raw)
		} else if !strings.Contains(err.Error(), "'start'") {
			t.Errorf("parseDate(%q) err = %v; want it to name the field", raw, err)
		}
	}
}

func Test_parseRangeQuery(t *testing.T) {
	t.Run("no params is open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		start, end, err := parseRangeQuery(req, false)
		if err != nil {
			t.Fatalf("parseRangeQuery() err = %v; want nil", err)
		}
		if start != nil || end != nil {
			t.Errorf("start = %v end = %v; want both nil", start, end)
		}
	})

	t.Run("both params", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x?start=2017-01-01&end=2017-01-31", nil)
		start, end, err := parseRangeQuery(req, true)
		if err != nil {
			t.Fatalf("parseRangeQuery() err = %v; want nil", err)
		}
		if start.String() != "2017-01-01" || end.String() != "2017-01-31" {
			t.Errorf("start = %s end = %s", start, end)
		}
	})

	t.Run("required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x?end=2017-01-31", nil)
		if _, _, err := parseRangeQuery(req, true); err == nil || !strings.Contains(err.Error(), "missing 'start'") {
			t.Errorf("err = %v; want missing 'start'", err)
		}
	})

	t.Run("names the bad field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x?start=2017-01-01&end=soon", nil)
		if _, _, err := parseRangeQuery(req, false); err == nil || !strings.Contains(err.Error(), "'end'") {
			t.Errorf("err = %v; want invalid 'end'", err)
		}
	})
}

func Test_validateStationID(t *testing.T) {
	if err := validateStationID("USC00519281"); err != nil {
		t.Errorf("validateStationID() err = %v; want nil", err)
	}
	for _, id := range []string{"", strings.Repeat("x", 65), "café"} {
		if err := validateStationID(id); err == nil {
			t.Errorf("validateStationID(%q) err = nil; want error", id)
		}
	}
}
