package config

import (
	"fmt"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// Value of --project_ids that selects every active project on the site.
const AllProjects = "all_projects"

/*
RunConfig is the resolved, validated configuration of one invoicing run.
*/
type RunConfig struct {
	Domain            string    `json:"domain"`
	APIKey            string    `json:"-"`
	ProjectIDs        []string  `json:"project_ids"`
	AllProjects       bool      `json:"all_projects"`
	ExcludeProjectIDs []string  `json:"exclude_project_ids"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	LogDir            string    `json:"logdir"`
	PDFDir            string    `json:"pdfdir"`
	CheckLost         bool      `json:"check_lost"`
	ReportPath        string    `json:"report_path"`
	ConfigPath        string    `json:"config_path,omitempty"`
	Options           Options   `json:"options"`
}

/*
Options holds the optional knobs of a run.

They come from the [options] section of the config file, and a few can be overridden with flags.
Zero values are replaced with DefaultOptions.
*/
type Options struct {
	PDFEngine             string  `mapstructure:"pdf_engine" json:"pdf_engine,omitempty"`
	WKHTMLToPDF           string  `mapstructure:"wkhtmltopdf" json:"wkhtmltopdf,omitempty"`
	LogoPath              string  `mapstructure:"logo" json:"logo,omitempty"`
	Currency              string  `mapstructure:"currency" json:"currency,omitempty"`
	DelaySeconds          float64 `mapstructure:"delay" json:"delay,omitempty"`
	PageSize              int     `mapstructure:"page_size" json:"page_size,omitempty"`
	RequestsPerSecond     float64 `mapstructure:"requests_per_second" json:"requests_per_second,omitempty"`
	RequestTimeoutSeconds float64 `mapstructure:"request_timeout" json:"request_timeout,omitempty"`
	ReportXLSXPath        string  `mapstructure:"report_xlsx" json:"report_xlsx,omitempty"`
	EmailProvider         string  `mapstructure:"email_provider" json:"email_provider,omitempty"`
	EmailSender           string  `mapstructure:"email_sender" json:"email_sender,omitempty"`
	EmailRecipients       string  `mapstructure:"email_to" json:"email_to,omitempty"`
	S3Bucket              string  `mapstructure:"s3_bucket" json:"s3_bucket,omitempty"`
	S3Region              string  `mapstructure:"s3_region" json:"s3_region,omitempty"`
	S3Prefix              string  `mapstructure:"s3_prefix" json:"s3_prefix,omitempty"`
}

func DefaultOptions() Options {
	return Options{
		PDFEngine:             "wkhtmltopdf",
		WKHTMLToPDF:           "wkhtmltopdf",
		Currency:              "USD",
		DelaySeconds:          1,
		PageSize:              500,
		RequestTimeoutSeconds: 60,
		EmailProvider:         "mailgun",
		S3Region:              "us-east-1",
		S3Prefix:              "invoices",
	}
}

/*
InitializeOptions replaces every missing field of local with its default value.

Each substitution is logged so the effective configuration is visible in the console.
*/
func InitializeOptions(local Options) (options Options) {
	options = local
	tl.ApplyDefaults(&options, DefaultOptions(), func(field string, defVal any) {
		tl.Log(
			tl.Detailed, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", GetPackageName(), tl.PrettyForStderr(defVal),
		)
	})
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s options", GetPackageName()), options)
	return options
}

// Recipients splits the comma separated e-mail list.
func (o Options) Recipients() []string {
	return SplitList(o.EmailRecipients)
}

// Delay between paged requests, invoices and projects.
func (o Options) Delay() time.Duration {
	return time.Duration(o.DelaySeconds * float64(time.Second))
}

func (o Options) RequestTimeout() time.Duration {
	return time.Duration(o.RequestTimeoutSeconds * float64(time.Second))
}

/*
Params renders the run parameters for the start banner.

The API key is always masked.
*/
func (c RunConfig) Params() string {
	projects := strings.Join(c.ProjectIDs, ",")
	if c.AllProjects {
		projects = AllProjects
	}
	return fmt.Sprintf(
		"domain %s, project_ids %s, exclude_project_ids %s, start_date %s, end_date %s, logdir %s, pdfdir %s, check-lost %t, apikey ###",
		c.Domain, projects, strings.Join(c.ExcludeProjectIDs, ","),
		FormatDate(c.StartDate), FormatDate(c.EndDate), c.LogDir, c.PDFDir, c.CheckLost,
	)
}

// BaseURL is the domain with a scheme and without a trailing slash.
func (c RunConfig) BaseURL() string {
	domain := strings.TrimRight(strings.TrimSpace(c.Domain), "/")
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	return domain
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) (items []string) {
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
