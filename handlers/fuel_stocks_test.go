package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestStockFilters(t *testing.T) {
	tradingPoint := uuid.New()
	r := httptest.NewRequest("GET",
		"/fuel-stocks?trading_point_id="+tradingPoint.String()+
			"&fill_status=critical&unknown=dropped", nil)

	filters := stockFilters(r)
	if filters["trading_point_id"] != tradingPoint.String() {
		t.Errorf("trading_point_id = %q", filters["trading_point_id"])
	}
	if filters["fill_status"] != "critical" {
		t.Errorf("fill_status = %q", filters["fill_status"])
	}
	if _, ok := filters["unknown"]; ok {
		t.Error("unknown key leaked into filters")
	}
}

func TestPageAndLimitDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/fuel-stocks", nil)
	page, limit := pageAndLimit(r)
	if page != 0 || limit != 0 {
		t.Errorf("page/limit = %d/%d, want 0/0 (service applies defaults)", page, limit)
	}

	r = httptest.NewRequest("GET", "/fuel-stocks?page=2&limit=5", nil)
	page, limit = pageAndLimit(r)
	if page != 2 || limit != 5 {
		t.Errorf("page/limit = %d/%d", page, limit)
	}
}
