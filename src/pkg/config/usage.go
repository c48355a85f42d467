package config

import (
	"fmt"
	"io"
	"path/filepath"
)

// PrintUsage prints the short usage lines shown after any command line problem.
func PrintUsage(w io.Writer, program string) {
	program = filepath.Base(program)
	fmt.Fprintln(w, "Error: wrong startup arguments")
	fmt.Fprintf(w, "Usage: %s --domain <domain> --apikey <apikey> --project_ids <project_ids_comma_separated> --exclude_project_ids <project_ids_comma_separated> --start_date <YYYYMMDD|last_month> --end_date <YYYYMMDD|last_month> --logdir <directory_for_logs> --pdfdir <directory_for_pdfs> --check-lost\n", program)
	fmt.Fprintf(w, "Help: %s --help\n", program)
}

// PrintHelp prints the long help shown for --help.
func PrintHelp(w io.Writer, program string) {
	program = filepath.Base(program)
	fmt.Fprintf(w, `
    %[1]s --domain <domain> --apikey <apikey> --project_ids <ids> --exclude_project_ids <ids> --start_date <date> --end_date <date> --logdir <dir> --pdfdir <dir> --check-lost

    Creates Teamwork invoices from fixed expenses and billable time entries of the given projects.

    Required: --domain --apikey --project_ids --start_date --end_date --logdir.
    --domain and --apikey may also come from TEAMWORK_DOMAIN and TEAMWORK_API_KEY
    (a .env file is loaded when present) or from the [config] section of --config.

    Example:

        %[1]s --domain https://test123.teamwork.com --apikey testkey123 --project_ids 41230,112332 --exclude_project_ids 112332 --start_date 20200501 --end_date 20200603 --logdir ./logs --pdfdir ./pdf --check-lost

    Arguments:

        --domain               URL of the Teamwork site, e.g. https://test123.teamwork.com
        --apikey               API key of the Teamwork site
        --project_ids          comma separated project ids, or all_projects for every active project
        --exclude_project_ids  comma separated project ids to skip
        --start_date           first day of the period, YYYYMMDD or last_month
        --end_date             last day of the period, YYYYMMDD or last_month
        --logdir               directory for log.txt and errors.txt, created when missing
        --pdfdir               directory for PDF invoices, no PDFs are rendered when omitted
        --check-lost           after the report, list expenses and time entries left uninvoiced
        --help                 print this message

    Optional:

        --config       INI/JSON/TOML file with [config] (same keys as above) and [options]
        --env          dotenv file, default .env
        --report       plaintext report path, default report.txt
        --report-xlsx  XLSX copy of the report
        --pdf-engine   wkhtmltopdf (default) or maroto
        --delay        seconds between pages, invoices and projects, above 0, default 1
        --email-to     comma separated report recipients
        --email-provider, --email-sender
        --s3-bucket    archive the report and PDFs to this bucket
`, program)
}
