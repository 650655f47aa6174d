package tune

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Export job states reported by the status endpoints.
const (
	ExportPending  = "pending"
	ExportRunning  = "running"
	ExportComplete = "complete"
	ExportFail     = "fail"
)

// ExportJob is the handle returned by Export.
type ExportJob struct {
	// ID is the job identifier passed to ExportStatus and WaitForExport.
	ID string `json:"job_id"`
	// Report is the name of the report that queued the job.
	Report string `json:"report"`
}

// ExportStatus is the progress of a queued export.
type ExportStatus struct {
	JobID           string `json:"job_id"`
	Status          string `json:"status"`
	PercentComplete int    `json:"percent_complete"`
	// URL is set once Status is ExportComplete.
	URL string `json:"url,omitempty"`
}

// Done reports whether the job reached a final state.
func (s ExportStatus) Done() bool {
	return s.Status == ExportComplete || s.Status == ExportFail
}

// decodeExportJob accepts a bare job ID string or an object carrying job_id.
func decodeExportJob(raw json.RawMessage) (ExportJob, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		if id == "" {
			return ExportJob{}, fmt.Errorf("export data has an empty job id")
		}
		return ExportJob{ID: id}, nil
	}

	var obj struct {
		JobID json.RawMessage `json:"job_id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ExportJob{}, fmt.Errorf("export data is not a job handle: %s", string(raw))
	}
	id = scalarString(obj.JobID)
	if id == "" {
		return ExportJob{}, fmt.Errorf("export data is not a job handle: %s", string(raw))
	}
	return ExportJob{ID: id}, nil
}

// scalarString returns a JSON string or number as text, and "" for anything else.
func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func decodeExportStatus(raw json.RawMessage) (ExportStatus, error) {
	var payload struct {
		JobID           json.RawMessage `json:"job_id"`
		Status          string          `json:"status"`
		PercentComplete json.RawMessage `json:"percent_complete"`
		URL             string          `json:"url"`
		Data            json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ExportStatus{}, fmt.Errorf("export status data is not an object: %w", err)
	}
	if payload.Status == "" {
		return ExportStatus{}, fmt.Errorf("export status data is missing status")
	}

	status := ExportStatus{
		JobID:  scalarString(payload.JobID),
		Status: strings.ToLower(payload.Status),
		URL:    payload.URL,
	}
	if pct := scalarString(payload.PercentComplete); pct != "" {
		if f, err := strconv.ParseFloat(pct, 64); err == nil {
			status.PercentComplete = int(f)
		}
	}
	// Some status endpoints nest the download location one level deeper.
	if status.URL == "" && len(payload.Data) > 0 {
		var nested struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(payload.Data, &nested); err == nil {
			status.URL = nested.URL
		}
	}
	if status.Status == ExportComplete && status.URL == "" {
		return ExportStatus{}, fmt.Errorf("export is complete but has no download url")
	}
	return status, nil
}

// OpenExport starts downloading a finished export. The caller must close the reader.
func (c *Client) OpenExport(ctx context.Context, url string) (io.ReadCloser, error) {
	if url == "" {
		return nil, &ValidationError{Field: "url", Message: "is required"}
	}

	resp, err := c.transport.Fetch(ctx, url)
	if err != nil {
		c.logger.Error("export download failed", "error", err)
		return nil, &NetworkError{Op: "download", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &APIError{
			Label:      "export/download",
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("download failed with HTTP %d", resp.StatusCode),
		}
	}
	return resp.Body, nil
}

// DownloadExport copies a finished export to w and returns the number of bytes written.
func (c *Client) DownloadExport(ctx context.Context, url string, w io.Writer) (int64, error) {
	body, err := c.OpenExport(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, &NetworkError{Op: "download", Err: err}
	}
	c.logger.Debug("export downloaded", "bytes", n)
	return n, nil
}
