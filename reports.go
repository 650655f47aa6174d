package tune

import (
	"fmt"
	"sort"
	"strings"
)

// Report names accepted by Client.Report.
const (
	ReportActuals         = "actuals"
	ReportCohortValue     = "cohort_value"
	ReportCohortRetention = "cohort_retention"
	ReportLogClicks       = "log_clicks"
	ReportLogEventItems   = "log_event_items"
	ReportLogEvents       = "log_events"
	ReportLogInstalls     = "log_installs"
	ReportLogPostbacks    = "log_postbacks"
)

// statusKind selects the endpoint that reports export progress.
type statusKind int

const (
	// statusByController polls {controller}/status.
	statusByController statusKind = iota
	// statusByExport polls export/download.
	statusByExport
)

// reportDefinition describes one report type.
type reportDefinition struct {
	name       string
	controller string
	status     statusKind

	// requiredExtras maps each required report-specific parameter to its allowed
	// values. An empty list accepts any non-empty value.
	requiredExtras map[string][]string
	// optionalExtras is checked only when the key is present.
	optionalExtras map[string][]string

	recommended []string
}

var (
	cohortTypes     = []string{"click", "install"}
	cohortIntervals = []string{"year_day", "year_week", "year_month", "year"}
)

var reportCatalog = map[string]reportDefinition{
	ReportActuals: {
		name:       ReportActuals,
		controller: "advertiser/stats",
		status:     statusByController,
		optionalExtras: map[string][]string{
			"timestamp": {"hour", "datehour", "date", "week", "month"},
		},
		recommended: []string{
			"site_id", "site.name", "publisher_id", "publisher.name",
			"ad_impressions", "ad_impressions_unique", "ad_clicks", "ad_clicks_unique",
			"paid_clicks", "paid_clicks_unique", "paid_installs", "paid_installs_assists",
			"installs", "paid_events", "events", "payouts", "revenues_usd",
		},
	},
	ReportCohortValue: {
		name:       ReportCohortValue,
		controller: "advertiser/stats/ltv",
		status:     statusByController,
		requiredExtras: map[string][]string{
			"cohort_type":      cohortTypes,
			"cohort_interval":  cohortIntervals,
			"aggregation_type": {"incremental", "cumulative"},
		},
		recommended: []string{
			"site_id", "site.name", "publisher_id", "publisher.name",
			"rpi", "epi",
		},
	},
	ReportCohortRetention: {
		name:       ReportCohortRetention,
		controller: "advertiser/stats/retention",
		status:     statusByController,
		requiredExtras: map[string][]string{
			"cohort_type":       cohortTypes,
			"cohort_interval":   cohortIntervals,
			"retention_measure": nil,
		},
		recommended: []string{
			"site_id", "site.name", "install_publisher_id", "install_publisher.name",
			"installs", "opens",
		},
	},
	ReportLogClicks: {
		name:       ReportLogClicks,
		controller: "advertiser/stats/clicks",
		status:     statusByExport,
		recommended: []string{
			"id", "created", "site_id", "site.name", "campaign_id", "campaign.name",
			"publisher_id", "publisher.name", "is_unique", "country.name",
		},
	},
	ReportLogEventItems: {
		name:       ReportLogEventItems,
		controller: "advertiser/stats/event/items",
		status:     statusByExport,
		recommended: []string{
			"id", "created", "site_id", "site.name", "campaign_id", "campaign.name",
			"site_event_id", "site_event.name", "site_event_item_id", "site_event_item.name",
			"quantity", "value_usd", "revenue_usd",
		},
	},
	ReportLogEvents: {
		name:       ReportLogEvents,
		controller: "advertiser/stats/events",
		status:     statusByExport,
		recommended: []string{
			"id", "created", "status", "site_id", "site.name", "site_event_id",
			"site_event.name", "campaign_id", "campaign.name", "publisher_id",
			"publisher.name", "revenue_usd", "country.name",
		},
	},
	ReportLogInstalls: {
		name:       ReportLogInstalls,
		controller: "advertiser/stats/installs",
		status:     statusByExport,
		recommended: []string{
			"id", "created", "status", "site_id", "site.name", "campaign_id",
			"campaign.name", "publisher_id", "publisher.name", "match_type",
			"device_ip", "country.name", "region.name",
		},
	},
	ReportLogPostbacks: {
		name:       ReportLogPostbacks,
		controller: "advertiser/stats/postbacks",
		status:     statusByExport,
		recommended: []string{
			"id", "created", "status", "site_id", "site.name", "site_event_id",
			"site_event.name", "publisher_id", "publisher.name", "http_result",
			"url",
		},
	},
}

// path returns the API path of an action on this report.
func (d reportDefinition) path(action string) string {
	return apiPath(d.controller, action)
}

// statusPath returns the path polled for export progress.
func (d reportDefinition) statusPath() string {
	if d.status == statusByExport {
		return apiPath("export", "download")
	}
	return d.path("status")
}

func apiPath(controller, action string) string {
	return "/" + apiVersion + "/" + strings.Trim(controller, "/") + "/" + action + ".json"
}

// ReportNames lists every report name accepted by Client.Report, sorted.
func ReportNames() []string {
	names := make([]string, 0, len(reportCatalog))
	for name := range reportCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report returns the report handle with the given name, e.g. "log_installs".
func (c *Client) Report(name string) (*Report, error) {
	def, ok := reportCatalog[name]
	if !ok {
		return nil, &ValidationError{
			Field:   "report",
			Message: fmt.Sprintf("unknown report %q, expected one of %s", name, strings.Join(ReportNames(), ", ")),
		}
	}
	return &Report{client: c, def: def}, nil
}

func (c *Client) mustReport(name string) *Report {
	return &Report{client: c, def: reportCatalog[name]}
}

// ActualsReport returns the aggregated actuals report (advertiser/stats).
func (c *Client) ActualsReport() *Report { return c.mustReport(ReportActuals) }

// CohortValueReport returns the cohort lifetime value report (advertiser/stats/ltv).
func (c *Client) CohortValueReport() *Report { return c.mustReport(ReportCohortValue) }

// CohortRetentionReport returns the cohort retention report (advertiser/stats/retention).
func (c *Client) CohortRetentionReport() *Report { return c.mustReport(ReportCohortRetention) }

// LogClicksReport returns the click log report.
func (c *Client) LogClicksReport() *Report { return c.mustReport(ReportLogClicks) }

// LogEventItemsReport returns the event item log report.
func (c *Client) LogEventItemsReport() *Report { return c.mustReport(ReportLogEventItems) }

// LogEventsReport returns the event log report.
func (c *Client) LogEventsReport() *Report { return c.mustReport(ReportLogEvents) }

// LogInstallsReport returns the install log report.
func (c *Client) LogInstallsReport() *Report { return c.mustReport(ReportLogInstalls) }

// LogPostbacksReport returns the postback log report.
func (c *Client) LogPostbacksReport() *Report { return c.mustReport(ReportLogPostbacks) }
