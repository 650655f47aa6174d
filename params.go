package tune

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/joshuawatkins04/tune_sdk/internal/validation"
)

// SortDirection orders a sort clause.
type SortDirection string

// Sort directions accepted by the API.
const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Record is one row returned by Find.
type Record map[string]any

// SortField is one ordered sort clause, encoded as sort[Field]=Direction.
type SortField struct {
	Field     string
	Direction SortDirection
}

// Params are the request parameters shared by every report operation.
type Params struct {
	// StartDate is required. Format: "2006-01-02" or "2006-01-02 15:04:05".
	StartDate string
	// EndDate is required and must not precede StartDate.
	EndDate string

	// Fields lists the columns to return for Find and Export.
	Fields []string
	// Filter is a filter expression, e.g. "(status = 'approved')". Passed verbatim.
	Filter string
	// Group is a comma-separated list of group-by fields. Passed verbatim.
	Group string
	// Sort clauses in priority order.
	Sort []SortField
	// Limit caps the number of records returned by Find. Zero means the API default.
	Limit int
	// Page selects the result page for Find. Zero means the API default.
	Page int
	// ResponseTimezone is an IANA zone name such as "America/Los_Angeles". Passed verbatim.
	ResponseTimezone string
	// Format selects the export file format, "csv" or "json".
	Format string

	// Extra carries report-specific parameters (cohort_type, timestamp, ...) and any
	// other key the API accepts. Values are passed verbatim.
	Extra map[string]string
}

// validate checks the shared parameters and the report's own requirements.
func (p Params) validate(def reportDefinition) error {
	sortFields := make([]validation.SortField, len(p.Sort))
	for i, s := range p.Sort {
		sortFields[i] = validation.SortField{Field: s.Field, Direction: string(s.Direction)}
	}

	err := validation.ValidateParams(validation.ReportParams{
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Fields:    p.Fields,
		Sort:      sortFields,
		Limit:     p.Limit,
		Page:      p.Page,
		Format:    p.Format,
	})
	if err == nil {
		err = validation.ValidateExtras(p.Extra, def.requiredExtras)
	}
	if err == nil {
		err = validation.ValidateOptionalExtras(p.Extra, def.optionalExtras)
	}
	return toValidationError(err)
}

// query encodes the parameters. Unset optional parameters are omitted and the
// named parameters win over Extra entries with the same key.
func (p Params) query() url.Values {
	q := url.Values{}
	for key, value := range p.Extra {
		q.Set(key, value)
	}
	q.Set("start_date", p.StartDate)
	q.Set("end_date", p.EndDate)
	if len(p.Fields) > 0 {
		q.Set("fields", strings.Join(p.Fields, ","))
	}
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	if p.Group != "" {
		q.Set("group", p.Group)
	}
	for _, s := range p.Sort {
		q.Set("sort["+s.Field+"]", string(s.Direction))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.ResponseTimezone != "" {
		q.Set("response_timezone", p.ResponseTimezone)
	}
	if p.Format != "" {
		q.Set("format", p.Format)
	}
	return q
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErr *validation.FieldError
	if errors.As(err, &fieldErr) {
		msg := fieldErr.Message
		if fieldErr.Value != "" {
			msg += " (got: " + fieldErr.Value + ")"
		}
		return &ValidationError{Field: fieldErr.Field, Message: msg}
	}
	return &ValidationError{Field: "params", Message: err.Error()}
}
