/*
invoicer creates Teamwork invoices for fixed expenses and billable time of a set of
projects, then writes a per-person report.

	go run ./src/cmd/invoicer --domain https://test123.teamwork.com --apikey testkey123 \
		--project_ids 41230,112332 --start_date last_month --end_date last_month --logdir ./logs
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"teamwork-invoicer/src/pkg/archive"
	"teamwork-invoicer/src/pkg/billing"
	"teamwork-invoicer/src/pkg/config"
	"teamwork-invoicer/src/pkg/email"
	"teamwork-invoicer/src/pkg/logging"
	"teamwork-invoicer/src/pkg/pdf"
	"teamwork-invoicer/src/pkg/report"
	tw "teamwork-invoicer/src/pkg/teamwork"
	"teamwork-invoicer/src/pkg/util"
)

// overridden with -ldflags "-X main.version=..."
var version = "4.2"

func main() {
	program := os.Args[0]
	cfg, usageErr := config.Resolve(program, os.Args[1:], time.Now())
	if usageErr != nil {
		if usageErr.Help {
			config.PrintHelp(os.Stdout, program)
		} else {
			for _, problem := range usageErr.Problems {
				tl.Log(tl.Warning, palette.YellowBold, "%s", problem)
			}
			config.PrintUsage(os.Stderr, program)
		}
		os.Exit(util.UsageExitCode)
	}

	log, e := logging.Open(cfg.LogDir)
	e.QuitIf(xerr.ErrorTypeError)

	defer func() {
		if recovered := recover(); recovered != nil {
			fmt.Fprintf(os.Stderr, "Unexpected failure - %v\n%s", recovered, debug.Stack())
			log.Error("Unexpected failure - %v", recovered)
			log.Error("%s", debug.Stack())
			log.Close()
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run(ctx, cfg, log)
	log.Close()
}

/*
run is the whole invoicing pass. Fatal errors close the log and exit 1 right away,
no report is written.
*/
func run(ctx context.Context, cfg config.RunConfig, log *logging.Logger) {
	startedAt := time.Now()
	log.Info("== Script started (version %s) run %s with params: %s", version, log.RunID, cfg.Params())

	client := tw.New(tw.Options{
		BaseURL:           cfg.BaseURL(),
		APIKey:            cfg.APIKey,
		Log:               log,
		Timeout:           cfg.Options.RequestTimeout(),
		RequestsPerSecond: cfg.Options.RequestsPerSecond,
		PageDelay:         cfg.Options.Delay(),
		PageSize:          cfg.Options.PageSize,
	})

	if cfg.AllProjects {
		log.Info("Getting all active projects")
	}
	projectIDs, e := billing.SelectProjects(ctx, client, cfg.AllProjects, cfg.ProjectIDs, cfg.ExcludeProjectIDs)
	if e != nil {
		log.Error("API error (get projects)! Aborting.")
		abort(log, e)
	}
	log.Info("Projects to process: %v", projectIDs)

	var renderer pdf.Renderer
	if cfg.PDFDir != "" {
		renderer, e = pdf.NewRenderer(cfg.Options.PDFEngine, pdf.Options{
			WKHTMLToPDFPath: cfg.Options.WKHTMLToPDF,
			LogoPath:        cfg.Options.LogoPath,
		})
		if e != nil {
			abort(log, e)
		}
	}

	runner := billing.NewRunner(client, log, renderer, billing.Config{
		StartDate: cfg.StartDate,
		EndDate:   cfg.EndDate,
		Currency:  cfg.Options.Currency,
		PDFDir:    cfg.PDFDir,
		Delay:     cfg.Options.Delay(),
	})
	result, e := runner.Run(ctx, projectIDs)
	if e != nil {
		abort(log, e)
	}

	header := report.Header{
		CreatedAt: time.Now(),
		Domain:    cfg.Domain,
		StartDate: cfg.StartDate,
		EndDate:   cfg.EndDate,
		Projects:  projectIDs,
	}
	rows := report.Build(result.Directory, result.Totals)
	artifacts := writeReports(cfg, log, header, rows)

	if cfg.CheckLost {
		runner.CheckLost(ctx, result)
	}

	for _, invoice := range result.Invoices {
		if invoice.PDFPath != "" {
			artifacts = append(artifacts, invoice.PDFPath)
		}
	}
	if len(cfg.Options.Recipients()) > 0 {
		sendSummary(ctx, cfg, log, header, rows, len(result.Invoices))
	}
	if cfg.Options.S3Bucket != "" {
		archiveArtifacts(ctx, cfg, log, startedAt, artifacts)
	}

	if errorCount := log.ErrorCount(); errorCount > 0 {
		log.Warn("%d errors were written to %s", errorCount, logging.ErrorsFileName)
	}
	log.Info("== Script ended")
}

func abort(log *logging.Logger, e *xerr.Error) {
	log.Close()
	e.QuitIf(xerr.ErrorTypeError)
}

// writeReports writes the text report and the optional workbook, returning the written paths.
func writeReports(cfg config.RunConfig, log *logging.Logger, header report.Header, rows []report.Row) (paths []string) {
	e := report.SaveText(cfg.ReportPath, header, rows)
	if e != nil {
		log.Error("Unable to write report '%s'", cfg.ReportPath)
		abort(log, e)
	}
	log.Info("Report with %d rows saved to '%s'", len(rows), cfg.ReportPath)
	paths = append(paths, cfg.ReportPath)

	if xlsxPath := cfg.Options.ReportXLSXPath; xlsxPath != "" {
		e = report.SaveXLSX(xlsxPath, header, rows)
		if e != nil {
			log.Error("Unable to write report workbook '%s': %v", xlsxPath, e)
		} else {
			log.Info("Report workbook saved to '%s'", xlsxPath)
			paths = append(paths, xlsxPath)
		}
	}
	return paths
}

func sendSummary(ctx context.Context, cfg config.RunConfig, log *logging.Logger, header report.Header, rows []report.Row, invoices int) {
	subject, text, html, err := report.Summary(header, rows, invoices)
	if err != nil {
		log.Error("Unable to build the summary e-mail: %s", err)
		return
	}
	e := email.SendMessage(ctx, email.Provider(cfg.Options.EmailProvider), email.Message{
		Sender:     cfg.Options.EmailSender,
		Recipients: cfg.Options.Recipients(),
		Subject:    subject,
		Text:       text,
		HTML:       html,
	})
	if e != nil {
		log.Error("Unable to send the summary e-mail via %s: %v", cfg.Options.EmailProvider, e)
		return
	}
	log.Info("Summary e-mail sent to %v", cfg.Options.Recipients())
}

func archiveArtifacts(ctx context.Context, cfg config.RunConfig, log *logging.Logger, startedAt time.Time, paths []string) {
	archiver, e := archive.New(cfg.Options.S3Region, cfg.Options.S3Bucket, cfg.Options.S3Prefix)
	if e != nil {
		log.Error("Unable to archive to s3://%s: %v", cfg.Options.S3Bucket, e)
		return
	}
	keys, e := archiver.Upload(ctx, archive.RunFolder(startedAt, log.RunID), paths)
	if e != nil {
		log.Error("Archive to s3://%s stopped after %d of %d files: %v", cfg.Options.S3Bucket, len(keys), len(paths), e)
		return
	}
	log.Info("Archived %d files to s3://%s", len(keys), cfg.Options.S3Bucket)
}
