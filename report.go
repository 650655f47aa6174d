package tune

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Report is a handle on one report type. All report types share the same operations;
// they differ in endpoint, required parameters, and recommended fields.
// A Report is safe for concurrent use.
type Report struct {
	client *Client
	def    reportDefinition
}

// Name returns the report name, e.g. "log_installs".
func (r *Report) Name() string {
	return r.def.name
}

// Controller returns the API controller, e.g. "advertiser/stats/installs".
func (r *Report) Controller() string {
	return r.def.controller
}

// Count returns the number of records matching the parameters.
func (r *Report) Count(ctx context.Context, p Params) (*Response[int], error) {
	if err := p.validate(r.def); err != nil {
		return nil, err
	}
	return execute(ctx, r.client, r.label("count"), r.def.path("count"), p.query(), decodeCount)
}

// Find returns the records matching the parameters, in API order.
func (r *Report) Find(ctx context.Context, p Params) (*Response[[]Record], error) {
	if err := p.validate(r.def); err != nil {
		return nil, err
	}
	if err := r.verifyFields(ctx, p.Fields); err != nil {
		return nil, err
	}
	return execute(ctx, r.client, r.label("find"), r.def.path("find"), p.query(), decodeRecords)
}

// Export queues an export of the matching records and returns the job handle.
// Format defaults to "csv".
func (r *Report) Export(ctx context.Context, p Params) (*Response[ExportJob], error) {
	if p.Format == "" {
		p.Format = "csv"
	}
	if err := p.validate(r.def); err != nil {
		return nil, err
	}
	if err := r.verifyFields(ctx, p.Fields); err != nil {
		return nil, err
	}

	resp, err := execute(ctx, r.client, r.label("find_export_queue"), r.def.path("find_export_queue"), p.query(), decodeExportJob)
	if err != nil {
		return nil, err
	}
	resp.Data.Report = r.def.name
	return resp, nil
}

// ExportStatus returns the progress of a queued export.
func (r *Report) ExportStatus(ctx context.Context, jobID string) (*Response[ExportStatus], error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, &ValidationError{Field: "job_id", Message: "is required"}
	}

	q := url.Values{}
	q.Set("job_id", jobID)
	resp, err := execute(ctx, r.client, r.label("status"), r.def.statusPath(), q, decodeExportStatus)
	if err != nil {
		return nil, err
	}
	if resp.Data.JobID == "" {
		resp.Data.JobID = jobID
	}
	return resp, nil
}

// WaitForExport polls ExportStatus until the job completes, fails, or the export
// polling timeout elapses. On success the returned status carries the download URL.
func (r *Report) WaitForExport(ctx context.Context, jobID string) (*Response[ExportStatus], error) {
	cfg := r.client.config
	ctx, cancel := context.WithTimeout(ctx, cfg.statusTimeout)
	defer cancel()

	logger := r.client.logger.With("report", r.def.name, "job_id", jobID)
	for attempt := 1; ; attempt++ {
		resp, err := r.ExportStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch resp.Data.Status {
		case ExportComplete:
			logger.Info("export complete", "attempts", attempt)
			return resp, nil
		case ExportFail:
			logger.Error("export failed", "attempts", attempt)
			return nil, &APIError{
				Label:      r.label("status"),
				HTTPStatus: resp.HTTPCode,
				Message:    fmt.Sprintf("export job %s failed", jobID),
				RequestID:  resp.RequestID,
				Err:        ErrExportFailed,
			}
		}

		logger.Debug("export pending",
			"status", resp.Data.Status,
			"percent_complete", resp.Data.PercentComplete,
		)

		timer := time.NewTimer(cfg.statusSleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("tune: export job %s not complete after %s: %w", jobID, cfg.statusTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

// Fields returns the report's field names selected by preset, sorted.
// FieldsRecommended alone is answered locally; every other preset calls Define.
func (r *Report) Fields(ctx context.Context, preset FieldsPreset) ([]string, error) {
	if !preset.needsDefinitions() {
		return selectFields(preset, nil, r.def.recommended), nil
	}
	resp, err := r.Define(ctx)
	if err != nil {
		return nil, err
	}
	return selectFields(preset, resp.Data, r.def.recommended), nil
}

// Define returns the report's field definitions.
func (r *Report) Define(ctx context.Context) (*Response[[]FieldDefinition], error) {
	return execute(ctx, r.client, r.label("define"), r.def.path("define"), nil, decodeFieldDefinitions)
}

// verifyFields checks requested fields against Define when field verification is on.
func (r *Report) verifyFields(ctx context.Context, fields []string) error {
	if !r.client.config.verifyFields || len(fields) == 0 {
		return nil
	}
	resp, err := r.Define(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(resp.Data))
	for _, d := range resp.Data {
		known[d.Name] = struct{}{}
	}
	var unknown []string
	for _, f := range fields {
		if _, ok := known[f]; !ok {
			unknown = append(unknown, f)
		}
	}
	if len(unknown) > 0 {
		return &ValidationError{
			Field:   "fields",
			Message: fmt.Sprintf("unknown fields for %s: %s", r.def.name, strings.Join(unknown, ", ")),
		}
	}
	return nil
}

func (r *Report) label(action string) string {
	return r.def.controller + "/" + action
}

// decodeFieldDefinitions accepts a list of definitions or an object keyed by field name.
func decodeFieldDefinitions(raw json.RawMessage) ([]FieldDefinition, error) {
	var list []FieldDefinition
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var byName map[string]FieldDefinition
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("define data is not a list of field definitions: %w", err)
	}
	list = make([]FieldDefinition, 0, len(byName))
	for name, d := range byName {
		if d.Name == "" {
			d.Name = name
		}
		list = append(list, d)
	}
	return list, nil
}
