package models

import (
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// filterableKeys are the query parameters ParseReportParams lifts into the
// filter map. Anything else on the query string is ignored.
var filterableKeys = []string{
	"tank_id", "fuel_type_id", "trading_point_id", "network_id",
	"status", "fill_status", "event_type", "method", "severity",
}

var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ReportParams is the explicit filter/pagination envelope every list
// endpoint works from. Handlers may add scope filters before querying.
type ReportParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	DateFrom  *time.Time
	DateTo    *time.Time
	// DateColumn is the column the date range applies to; defaults to created_at.
	DateColumn string
	Filters    map[string]string
}

// ParseReportParams reads pagination, sorting, date-range and known filter
// keys from the request query string.
func ParseReportParams(r *http.Request) (*ReportParams, error) {
	q := r.URL.Query()
	params := &ReportParams{
		Page:      1,
		Limit:     defaultPageSize,
		SortOrder: "desc",
		Filters:   map[string]string{},
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", v)
		}
		params.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid limit %q", v)
		}
		params.Limit = n
	}
	if v := q.Get("sort_by"); v != "" {
		params.SortBy = v
	}
	if v := q.Get("sort_order"); v != "" {
		params.SortOrder = v
	}
	if v := q.Get("date_from"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return nil, fmt.Errorf("invalid date_from %q", v)
		}
		params.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return nil, fmt.Errorf("invalid date_to %q", v)
		}
		params.DateTo = &t
	}
	for _, key := range filterableKeys {
		if v := q.Get(key); v != "" {
			params.Filters[key] = v
		}
	}
	return params, nil
}

func parseDateParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// Validate normalizes bounds and rejects unusable values.
func (p *ReportParams) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if p.Limit < 1 {
		return fmt.Errorf("limit must be >= 1")
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.SortOrder != "asc" && p.SortOrder != "desc" {
		return fmt.Errorf("sort_order must be asc or desc")
	}
	if p.SortBy != "" && !columnPattern.MatchString(p.SortBy) {
		return fmt.Errorf("invalid sort_by %q", p.SortBy)
	}
	for key := range p.Filters {
		if !columnPattern.MatchString(key) {
			return fmt.Errorf("invalid filter key %q", key)
		}
	}
	if p.DateFrom != nil && p.DateTo != nil && p.DateTo.Before(*p.DateFrom) {
		return fmt.Errorf("date_to before date_from")
	}
	return nil
}

// Offset converts page/limit to a SQL offset.
func (p *ReportParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the envelope returned with every paginated list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes pages = ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// PaginatedResponse is the wire shape of every list endpoint.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
	Summary    interface{} `json:"summary,omitempty"`
}

// ReportService runs filtered, paginated queries for one model. The
// column-name checks in Validate keep the filter map from reaching the SQL
// layer as anything but bind parameters against vetted identifiers.
type ReportService struct {
	db    *gorm.DB
	model interface{}
}

func NewReportService(db *gorm.DB, model interface{}) *ReportService {
	return &ReportService{db: db, model: model}
}

// GetReport fills dest (a pointer to a slice) with one page of rows and
// returns the pagination envelope.
func (s *ReportService) GetReport(params *ReportParams, dest interface{}) (*PaginatedResponse, error) {
	query := s.db.Model(s.model)

	for key, value := range params.Filters {
		query = query.Where(key+" = ?", value)
	}
	dateCol := params.DateColumn
	if dateCol == "" {
		dateCol = "created_at"
	}
	if params.DateFrom != nil {
		query = query.Where(dateCol+" >= ?", *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where(dateCol+" <= ?", *params.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	if params.SortBy != "" {
		query = query.Order(params.SortBy + " " + params.SortOrder)
	} else {
		query = query.Order(dateCol + " " + params.SortOrder)
	}
	if err := query.Offset(params.Offset()).Limit(params.Limit).Find(dest).Error; err != nil {
		return nil, err
	}

	return &PaginatedResponse{
		Data:       dest,
		Pagination: NewPagination(params.Page, params.Limit, total),
	}, nil
}
