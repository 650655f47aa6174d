package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	tune "github.com/joshuawatkins04/tune_sdk"
)

var errInvalidArgs = errors.New("invalid_args")

var commands = map[string]bool{
	"count":      true,
	"find":       true,
	"export":     true,
	"status":     true,
	"fields":     true,
	"advertiser": true,
	"reports":    true,
}

// options is the parsed command line.
type options struct {
	Command    string
	ConfigPath string
	Report     string
	Params     tune.Params
	Preset     tune.FieldsPreset
	JobID      string
	Wait       bool
	Output     string
}

// paramFlag collects repeated -param key=value pairs.
type paramFlag map[string]string

func (p paramFlag) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+p[k])
	}
	return strings.Join(parts, ",")
}

func (p paramFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("want key=value, got %q", value)
	}
	p[strings.TrimSpace(key)] = val
	return nil
}

func parseArgs(args []string) (*options, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing command (%s)", errInvalidArgs, commandList())
	}

	opts := &options{Command: strings.ToLower(strings.TrimSpace(args[0]))}
	if !commands[opts.Command] {
		return nil, fmt.Errorf("%w: unknown command %q (must be %s)", errInvalidArgs, opts.Command, commandList())
	}

	fs := flag.NewFlagSet("tune-reports", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var fields, sortSpec, preset string
	extra := paramFlag{}
	fs.StringVar(&opts.ConfigPath, "config", "", "SDK config file (default: tune_reporting.yaml if present, else environment)")
	fs.StringVar(&opts.Report, "report", "", "Report name: "+strings.Join(tune.ReportNames(), "|"))
	fs.StringVar(&opts.Params.StartDate, "start", "", "Start date, YYYY-MM-DD[ HH:MM:SS]")
	fs.StringVar(&opts.Params.EndDate, "end", "", "End date, YYYY-MM-DD[ HH:MM:SS]")
	fs.StringVar(&fields, "fields", "", "Comma-separated fields")
	fs.StringVar(&opts.Params.Filter, "filter", "", "Filter expression")
	fs.StringVar(&opts.Params.Group, "group", "", "Comma-separated group-by fields")
	fs.StringVar(&sortSpec, "sort", "", "Sort clauses, e.g. created:DESC,id:ASC")
	fs.IntVar(&opts.Params.Limit, "limit", 0, "Record limit for find")
	fs.IntVar(&opts.Params.Page, "page", 0, "Result page for find")
	fs.StringVar(&opts.Params.ResponseTimezone, "tz", "", "Response timezone, e.g. America/Los_Angeles")
	fs.StringVar(&opts.Params.Format, "format", "", "Export format: csv|json")
	fs.Var(extra, "param", "Report-specific parameter key=value (repeatable)")
	fs.StringVar(&preset, "preset", "recommended", "Field preset for fields: all|endpoint|default|related|minimal|recommended, combined with +")
	fs.StringVar(&opts.JobID, "job", "", "Export job ID for status")
	fs.BoolVar(&opts.Wait, "wait", false, "Wait for the export to finish")
	fs.StringVar(&opts.Output, "output", "", "Export destination: file path, - for stdout, or s3://bucket/key")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("%w: flag parse error: %s", errInvalidArgs, err.Error())
	}

	if fields != "" {
		opts.Params.Fields = splitList(fields)
	}
	if len(extra) > 0 {
		opts.Params.Extra = extra
	}

	var err error
	if opts.Params.Sort, err = parseSort(sortSpec); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	if opts.Preset, err = parsePreset(preset); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	switch opts.Command {
	case "count", "find", "export", "status", "fields":
		if opts.Report == "" {
			return nil, fmt.Errorf("%w: -report is required for %s", errInvalidArgs, opts.Command)
		}
	}
	if opts.Command == "status" && opts.JobID == "" {
		return nil, fmt.Errorf("%w: -job is required for status", errInvalidArgs)
	}
	if opts.Output != "" && !opts.Wait {
		return nil, fmt.Errorf("%w: -output requires -wait", errInvalidArgs)
	}
	return opts, nil
}

// parseSort reads "field:DIR,field:DIR". The direction defaults to ASC.
func parseSort(spec string) ([]tune.SortField, error) {
	var out []tune.SortField
	for _, item := range splitList(spec) {
		field, dir, found := strings.Cut(item, ":")
		direction := tune.SortAsc
		if found {
			direction = tune.SortDirection(strings.ToUpper(strings.TrimSpace(dir)))
		}
		if direction != tune.SortAsc && direction != tune.SortDesc {
			return nil, fmt.Errorf("invalid sort direction %q for %s", dir, field)
		}
		out = append(out, tune.SortField{Field: strings.TrimSpace(field), Direction: direction})
	}
	return out, nil
}

var presetNames = map[string]tune.FieldsPreset{
	"all":         tune.FieldsAll,
	"endpoint":    tune.FieldsEndpoint,
	"default":     tune.FieldsDefault,
	"related":     tune.FieldsRelated,
	"minimal":     tune.FieldsMinimal,
	"recommended": tune.FieldsRecommended,
}

// parsePreset reads preset names joined by "+", e.g. "default+related".
func parsePreset(spec string) (tune.FieldsPreset, error) {
	var preset tune.FieldsPreset
	for _, name := range strings.Split(spec, "+") {
		p, ok := presetNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown field preset %q", name)
		}
		preset |= p
	}
	return preset, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func commandList() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
