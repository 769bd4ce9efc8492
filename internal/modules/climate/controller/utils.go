package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"climate-server/internal/modules/climate/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// rangeQuery holds the optional ?start=&end= pair.
type rangeQuery struct {
	Start string `validate:"omitempty,datetime=2006-01-02"`
	End   string `validate:"omitempty,datetime=2006-01-02"`
}

func parseDate(name, raw string) (types.Date, error) {
	if err := validate.Var(raw, "required,datetime=2006-01-02"); err != nil {
		return types.Date{}, fmt.Errorf("invalid '%s' %q (expected YYYY-MM-DD)", name, raw)
	}
	return types.ParseDate(raw)
}

// parseRangeQuery reads ?start= and ?end=. Missing values come back nil;
// requireBoth turns a missing value into an error.
func parseRangeQuery(r *http.Request, requireBoth bool) (start, end *types.Date, err error) {
	q := rangeQuery{Start: r.URL.Query().Get("start"), End: r.URL.Query().Get("end")}
	if requireBoth {
		if q.Start == "" {
			return nil, nil, errors.New("missing 'start' (expected YYYY-MM-DD)")
		}
		if q.End == "" {
			return nil, nil, errors.New("missing 'end' (expected YYYY-MM-DD)")
		}
	}
	if err := validate.Struct(q); err != nil {
		field := "start"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "End" {
			field = "end"
		}
		return nil, nil, fmt.Errorf("invalid '%s' (expected YYYY-MM-DD)", field)
	}
	if q.Start != "" {
		d, err := types.ParseDate(q.Start)
		if err != nil {
			return nil, nil, err
		}
		start = &d
	}
	if q.End != "" {
		d, err := types.ParseDate(q.End)
		if err != nil {
			return nil, nil, err
		}
		end = &d
	}
	return start, end, nil
}

func parseMonthDay(raw string) (types.MonthDayKey, error) {
	if err := validate.Var(raw, "required,len=5"); err != nil {
		return types.MonthDayKey{}, fmt.Errorf("invalid month-day %q (expected MM-DD)", raw)
	}
	return types.ParseMonthDay(raw)
}

func validateStationID(id string) error {
	if err := validate.Var(id, "required,max=64,printascii"); err != nil {
		return fmt.Errorf("invalid station id %q", id)
	}
	return nil
}
