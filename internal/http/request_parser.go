package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/model/budget"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 16
	minYear      = 2000
	maxYear      = 3000

	timeFrameYear  = "year"
	timeFrameMonth = "month"
)

type transactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
	Type string `json:"type"`
}

type settingsRequest struct {
	Currency string `json:"currency"`
}

type historyRequest struct {
	TimeFrame string
	Year      int
	Month     int
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return customerr.Validation("malformed request body: %v", err)
	}
	return nil
}

// parseTime accepts a calendar date or an RFC3339 timestamp. A bare date is UTC
// midnight, or the last instant of that day when endOfDay is set.
func parseTime(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		if endOfDay {
			return now.With(t).EndOfDay(), nil
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, customerr.Validation("invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}
	return t.UTC(), nil
}

func parseRange(query url.Values, maxDays int) (from, to time.Time, err error) {
	rawFrom, rawTo := query.Get("from"), query.Get("to")
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, customerr.Validation("from and to are required")
	}
	if from, err = parseTime(rawFrom, false); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to, err = parseTime(rawTo, true); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err = budget.ValidateRange(from, to, maxDays); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func parseKind(value string) (ledger.Kind, error) {
	kind, ok := ledger.ParseKind(strings.TrimSpace(value))
	if !ok {
		return "", customerr.Validation("type must be income or expense, got %q", value)
	}
	return kind, nil
}

func parseOptionalKind(value string) (*ledger.Kind, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	kind, err := parseKind(value)
	if err != nil {
		return nil, err
	}
	return &kind, nil
}

func parseIntParam(query url.Values, name string, lo, hi int) (int, error) {
	raw := strings.TrimSpace(query.Get(name))
	if raw == "" {
		return 0, customerr.Validation("%s is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, customerr.Validation("%s must be an integer between %d and %d", name, lo, hi)
	}
	return v, nil
}

func parseHistoryRequest(query url.Values) (historyRequest, error) {
	req := historyRequest{TimeFrame: query.Get("timeFrame")}
	if req.TimeFrame != timeFrameYear && req.TimeFrame != timeFrameMonth {
		return req, customerr.Validation("timeFrame must be year or month")
	}

	var err error
	if req.Year, err = parseIntParam(query, "year", minYear, maxYear); err != nil {
		return req, err
	}
	if req.TimeFrame == timeFrameMonth {
		if req.Month, err = parseIntParam(query, "month", 0, 11); err != nil {
			return req, err
		}
	}
	return req, nil
}

func (req transactionRequest) toNewTransaction() (ledger.NewTransaction, error) {
	kind, err := parseKind(req.Type)
	if err != nil {
		return ledger.NewTransaction{}, err
	}
	if req.Date == "" {
		return ledger.NewTransaction{}, customerr.Validation("date is required")
	}
	date, err := parseTime(req.Date, false)
	if err != nil {
		return ledger.NewTransaction{}, err
	}
	return ledger.NewTransaction{
		Amount:      req.Amount,
		Kind:        kind,
		Date:        date,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
	}, nil
}
