// Package tune provides a Go SDK for the TUNE Reporting API (MobileAppTracking v2).
//
// The SDK exposes one report handle per report type. Every handle supports the same
// operations: Count, Find, Export and Fields.
//
// Basic usage:
//
//	client, err := tune.NewClient("0123456789abcdef0123456789abcdef")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.LogInstallsReport().Count(ctx, tune.Params{
//	    StartDate: "2026-10-15 00:00:00",
//	    EndDate:   "2026-10-15 23:59:59",
//	    Filter:    "(status = 'approved')",
//	})
package tune

// Version is the SDK version.
const Version = "0.1.0"
