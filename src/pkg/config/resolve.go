package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"teamwork-invoicer/src/pkg/util"
)

/*
UsageError is returned by Resolve for any problem with the command line or the config file.

The caller prints Problems (or the long help when Help is set) followed by the usage
line and exits with util.UsageExitCode.
*/
type UsageError struct {
	Help     bool
	Problems []string
}

func (u *UsageError) Error() string {
	if u.Help {
		return "help requested"
	}
	return strings.Join(u.Problems, "; ")
}

// flag names, kept identical to the historical command line
const (
	flagDomain            = "domain"
	flagAPIKey            = "apikey"
	flagProjectIDs        = "project_ids"
	flagExcludeProjectIDs = "exclude_project_ids"
	flagStartDate         = "start_date"
	flagEndDate           = "end_date"
	flagLogDir            = "logdir"
	flagPDFDir            = "pdfdir"
	flagCheckLost         = "check-lost"
	flagHelp              = "help"
)

type rawFlags struct {
	domain, apiKey, projectIDs, excludeProjectIDs *string
	startDate, endDate, logDir, pdfDir            *string
	checkLost, help                               *bool

	configPath, envPath, reportPath, reportXLSX *string
	pdfEngine, emailTo, emailProvider           *string
	emailSender, s3Bucket                       *string
	delay                                       *float64
}

func newFlagSet(program string) (*flag.FlagSet, rawFlags) {
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	raw := rawFlags{
		domain:            fs.String(flagDomain, "", "URL of the Teamwork site, e.g. https://test123.teamwork.com"),
		apiKey:            fs.String(flagAPIKey, "", "Teamwork API key"),
		projectIDs:        fs.String(flagProjectIDs, "", "Comma separated project ids or 'all_projects'"),
		excludeProjectIDs: fs.String(flagExcludeProjectIDs, "", "Comma separated project ids to skip"),
		startDate:         fs.String(flagStartDate, "", "Start date, YYYYMMDD or 'last_month'"),
		endDate:           fs.String(flagEndDate, "", "End date, YYYYMMDD or 'last_month'"),
		logDir:            fs.String(flagLogDir, "", "Directory for log.txt and errors.txt"),
		pdfDir:            fs.String(flagPDFDir, "", "Directory for PDF invoices, PDFs are skipped when empty"),
		checkLost:         fs.Bool(flagCheckLost, false, "Report items left uninvoiced after the run"),
		help:              fs.Bool(flagHelp, false, "Print help"),

		configPath:    fs.String("config", "", "Optional INI/JSON/TOML config file with [config] and [options] sections"),
		envPath:       fs.String("env", ".env", "Optional dotenv file"),
		reportPath:    fs.String("report", "report.txt", "Path of the plaintext report"),
		reportXLSX:    fs.String("report-xlsx", "", "Optional path of an XLSX copy of the report"),
		pdfEngine:     fs.String("pdf-engine", "", "PDF engine: wkhtmltopdf or maroto"),
		emailTo:       fs.String("email-to", "", "Comma separated recipients of the report"),
		emailProvider: fs.String("email-provider", "", "mailgun, sendgrid or ses"),
		emailSender:   fs.String("email-sender", "", "Sender address of the report e-mail"),
		s3Bucket:      fs.String("s3-bucket", "", "Optional S3 bucket to archive report and PDFs"),
		delay:         fs.Float64("delay", 0, "Seconds to wait between pages, invoices and projects, must be greater than 0 (default 1)"),
	}
	return fs, raw
}

/*
Resolve parses args (without the program name), merges the optional config file
and the environment, and validates the result.

Precedence is flag, environment, config file, default. now is used for last_month.
*/
func Resolve(program string, args []string, now time.Time) (cfg RunConfig, usageErr *UsageError) {
	fs, raw := newFlagSet(program)
	parseErr := fs.Parse(args)
	if parseErr != nil {
		if errors.Is(parseErr, flag.ErrHelp) {
			return cfg, &UsageError{Help: true}
		}
		return cfg, &UsageError{Problems: []string{parseErr.Error()}}
	}
	if fs.NArg() > 0 {
		return cfg, &UsageError{Problems: []string{fmt.Sprintf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}}
	}
	if *raw.help {
		return cfg, &UsageError{Help: true}
	}

	LoadDotEnv(*raw.envPath)

	v := viper.New()
	bindErr := errors.Join(
		v.BindEnv("config."+flagDomain, EnvDomain),
		v.BindEnv("config."+flagAPIKey, EnvAPIKey),
	)
	if bindErr != nil {
		return cfg, &UsageError{Problems: []string{bindErr.Error()}}
	}
	if *raw.configPath != "" {
		v.SetConfigFile(*raw.configPath)
		if strings.EqualFold(filepath.Ext(*raw.configPath), ".cfg") {
			v.SetConfigType("ini")
		}
		readErr := v.ReadInConfig()
		if readErr != nil {
			return cfg, &UsageError{Problems: []string{fmt.Sprintf("unable to read config file '%s': %s", *raw.configPath, readErr)}}
		}
		tl.Log(tl.Info1, palette.Green, "Using config file '%s'", v.ConfigFileUsed())
	}

	// explicitly passed flags win over everything else
	delaySet := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "delay":
			delaySet = true
		case flagDomain, flagAPIKey, flagProjectIDs, flagExcludeProjectIDs, flagStartDate, flagEndDate, flagLogDir, flagPDFDir:
			v.Set("config."+f.Name, f.Value.String())
		case flagCheckLost:
			v.Set("config.check_lost", *raw.checkLost)
		}
	})

	var required util.RequiredFlags
	values := map[string]*string{}
	for _, name := range []string{flagDomain, flagAPIKey, flagProjectIDs, flagStartDate, flagEndDate, flagLogDir} {
		value := strings.TrimSpace(v.GetString("config." + name))
		values[name] = &value
		required.Add(values[name], name)
	}
	var problems []string
	for _, name := range required.Missing() {
		problems = append(problems, fmt.Sprintf("%s parameter is required", name))
	}
	if len(problems) > 0 {
		return cfg, &UsageError{Problems: problems}
	}

	cfg = RunConfig{
		Domain:            *values[flagDomain],
		APIKey:            *values[flagAPIKey],
		ExcludeProjectIDs: SplitList(v.GetString("config." + flagExcludeProjectIDs)),
		LogDir:            *values[flagLogDir],
		PDFDir:            strings.TrimSpace(v.GetString("config." + flagPDFDir)),
		CheckLost:         v.GetBool("config.check_lost"),
		ReportPath:        *raw.reportPath,
		ConfigPath:        *raw.configPath,
	}

	projectIDs := *values[flagProjectIDs]
	if projectIDs == AllProjects {
		cfg.AllProjects = true
	} else {
		cfg.ProjectIDs = SplitList(projectIDs)
		if len(cfg.ProjectIDs) == 0 {
			problems = append(problems, "--project_ids must list at least one project id")
		}
	}

	var dateErr error
	cfg.StartDate, dateErr = ParseDate(*values[flagStartDate], now, false)
	if dateErr != nil {
		problems = append(problems, "--start_date: "+dateErr.Error())
	}
	cfg.EndDate, dateErr = ParseDate(*values[flagEndDate], now, true)
	if dateErr != nil {
		problems = append(problems, "--end_date: "+dateErr.Error())
	}
	if len(problems) == 0 && cfg.StartDate.After(cfg.EndDate) {
		problems = append(problems, fmt.Sprintf("start date %s is after end date %s", FormatDate(cfg.StartDate), FormatDate(cfg.EndDate)))
	}

	// the delay cannot be switched off; 0 in [options] means the default
	if delaySet && *raw.delay <= 0 {
		problems = append(problems, fmt.Sprintf("--delay must be greater than 0, got %v", *raw.delay))
	}

	var local Options
	unmarshalErr := v.UnmarshalKey("options", &local)
	if unmarshalErr != nil {
		problems = append(problems, fmt.Sprintf("invalid [options] section: %s", unmarshalErr))
	}
	if len(problems) > 0 {
		return RunConfig{}, &UsageError{Problems: problems}
	}

	if *raw.pdfEngine != "" {
		local.PDFEngine = *raw.pdfEngine
	}
	if *raw.reportXLSX != "" {
		local.ReportXLSXPath = *raw.reportXLSX
	}
	if *raw.emailTo != "" {
		local.EmailRecipients = *raw.emailTo
	}
	if *raw.emailProvider != "" {
		local.EmailProvider = *raw.emailProvider
	}
	if *raw.emailSender != "" {
		local.EmailSender = *raw.emailSender
	}
	if *raw.s3Bucket != "" {
		local.S3Bucket = *raw.s3Bucket
	}
	if delaySet {
		local.DelaySeconds = *raw.delay
	}
	cfg.Options = InitializeOptions(local)

	switch cfg.Options.PDFEngine {
	case "wkhtmltopdf", "maroto":
	default:
		return RunConfig{}, &UsageError{Problems: []string{fmt.Sprintf("unknown pdf engine '%s'", cfg.Options.PDFEngine)}}
	}

	return cfg, nil
}
