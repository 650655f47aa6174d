// Command tune-reports runs TUNE Reporting API operations from the command line
// and prints the results as JSON.
//
//	tune-reports count  -report log_installs -start 2026-10-01 -end 2026-10-01
//	tune-reports export -report log_clicks -start 2026-10-01 -end 2026-10-01 -wait -output s3://bucket/clicks.csv
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	tune "github.com/joshuawatkins04/tune_sdk"
	"github.com/joshuawatkins04/tune_sdk/config"
	"github.com/joshuawatkins04/tune_sdk/internal/sink"
)

// Exit codes.
const (
	exitSuccess        = 0
	exitRemoteError    = 1
	exitInvalidArgs    = 2
	exitConfigError    = 3
	exitValidationFail = 4
)

// Environment variables for the S3 export sink.
const (
	envS3Endpoint  = "TUNE_EXPORT_S3_ENDPOINT"
	envS3Region    = "TUNE_EXPORT_S3_REGION"
	envS3AccessKey = "TUNE_EXPORT_S3_ACCESS_KEY"
	envS3SecretKey = "TUNE_EXPORT_S3_SECRET_KEY"
	envS3UseSSL    = "TUNE_EXPORT_S3_USE_SSL"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
	}

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAILED code=%d msg=%s\n", exitInvalidArgs, err.Error())
		os.Exit(exitInvalidArgs)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, opts, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) int {
	if opts.Command == "reports" {
		return writeJSON(stdout, stderr, tune.ReportNames())
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return fail(stderr, err)
	}

	client, err := tune.NewClientFromConfig(cfg, tune.WithLogger(cfg.Log.NewLogger(stderr)))
	if err != nil {
		return fail(stderr, err)
	}

	result, err := dispatch(ctx, client, opts, stdout, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	if opts.Command == "export" && opts.Output == "-" {
		// stdout carries the export itself
		return writeJSON(stderr, stderr, result)
	}
	return writeJSON(stdout, stderr, result)
}

func dispatch(ctx context.Context, client *tune.Client, opts *options, stdout, stderr io.Writer) (any, error) {
	if opts.Command == "advertiser" {
		return client.AdvertiserID(ctx)
	}

	report, err := client.Report(opts.Report)
	if err != nil {
		return nil, err
	}

	switch opts.Command {
	case "count":
		return report.Count(ctx, opts.Params)
	case "find":
		return report.Find(ctx, opts.Params)
	case "fields":
		return report.Fields(ctx, opts.Preset)
	case "status":
		return report.ExportStatus(ctx, opts.JobID)
	case "export":
		return export(ctx, client, report, opts, stdout, stderr)
	default:
		return nil, fmt.Errorf("%w: unknown command %q", errInvalidArgs, opts.Command)
	}
}

// exportResult is printed by the export command.
type exportResult struct {
	Job      tune.ExportJob     `json:"job"`
	Status   *tune.ExportStatus `json:"status,omitempty"`
	Location string             `json:"location,omitempty"`
}

func export(ctx context.Context, client *tune.Client, report *tune.Report, opts *options, stdout, stderr io.Writer) (*exportResult, error) {
	job, err := report.Export(ctx, opts.Params)
	if err != nil {
		return nil, err
	}
	out := &exportResult{Job: job.Data}
	if !opts.Wait {
		return out, nil
	}

	fmt.Fprintf(stderr, "waiting for export job %s\n", job.Data.ID)
	status, err := report.WaitForExport(ctx, job.Data.ID)
	if err != nil {
		return nil, err
	}
	out.Status = &status.Data
	if opts.Output == "" {
		return out, nil
	}

	dst, err := sink.Open(opts.Output, stdout, s3ConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	body, err := client.OpenExport(ctx, status.Data.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	out.Location, err = dst.Put(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}
	return out, nil
}

// loadConfig prefers an explicit file, then the default file, then the environment.
func loadConfig(path string) (*config.SDKConfig, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultFilename); err == nil {
		return config.Load(config.DefaultFilename)
	}
	return config.FromEnv(), nil
}

func s3ConfigFromEnv() sink.S3Config {
	useSSL := true
	if v := os.Getenv(envS3UseSSL); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			useSSL = parsed
		}
	}
	return sink.S3Config{
		Endpoint:  os.Getenv(envS3Endpoint),
		Region:    os.Getenv(envS3Region),
		AccessKey: os.Getenv(envS3AccessKey),
		SecretKey: os.Getenv(envS3SecretKey),
		UseSSL:    useSSL,
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errInvalidArgs):
		return exitInvalidArgs
	case tune.IsConfigError(err):
		return exitConfigError
	case tune.IsValidationError(err):
		return exitValidationFail
	default:
		return exitRemoteError
	}
}

func fail(stderr io.Writer, err error) int {
	code := exitCode(err)
	fmt.Fprintf(stderr, "FAILED code=%d msg=%s\n", code, err.Error())
	return code
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "FAILED code=%d msg=encode output: %s\n", exitRemoteError, err.Error())
		return exitRemoteError
	}
	return exitSuccess
}
