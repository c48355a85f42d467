package pdf

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os/exec"
	"strings"

	"github.com/tuumbleweed/xerr"
)

//go:embed templates/invoice.html
var templateFS embed.FS

var invoiceTemplate = template.Must(template.ParseFS(templateFS, "templates/invoice.html"))

const DefaultTitle = "Invoice"

// wkhtmltopdf settings: A4, 1cm margins, page counter in the footer.
var wkhtmlArgs = []string{
	"--dpi", "96",
	"--image-dpi", "3500",
	"--image-quality", "94",
	"--page-size", "A4",
	"--encoding", "UTF-8",
	"--margin-top", "1cm",
	"--margin-bottom", "1cm",
	"--margin-right", "1cm",
	"--margin-left", "1cm",
	"--quiet",
	"--disable-smart-shrinking",
	"--footer-left", "[page] of [topage]",
}

type htmlItem struct {
	Date    string
	Name    string
	Task    string
	Comment []string
	Hours   string
	Cost    string
}

type htmlView struct {
	Title      string
	Logo       template.URL
	Name       string
	Project    string
	Date       string
	Currency   string
	Items      []htmlItem
	TotalHours string
	Total      string
}

type WKHTMLRenderer struct {
	binary string
	opts   Options
}

func NewWKHTMLRenderer(opts Options) *WKHTMLRenderer {
	binary := opts.WKHTMLToPDFPath
	if binary == "" {
		binary = EngineWKHTMLToPDF
	}
	return &WKHTMLRenderer{binary: binary, opts: opts}
}

/*
HTML renders the invoice page fed to wkhtmltopdf. Text is escaped, line breaks
inside comments become <br>.
*/
func (r *WKHTMLRenderer) HTML(inv Invoice) (page []byte, e *xerr.Error) {
	view := htmlView{
		Title:      r.opts.Title,
		Name:       inv.Name,
		Project:    inv.Project,
		Date:       inv.Date.Format("2006-01-02"),
		Currency:   inv.Currency,
		TotalHours: inv.TotalHours().StringFixed(2),
		Total:      inv.Total().StringFixed(2),
	}
	if view.Title == "" {
		view.Title = DefaultTitle
	}

	logo, e := loadLogo(r.opts.LogoPath)
	if e != nil {
		return nil, e
	}
	if logo != "" {
		view.Logo = template.URL("data:image/png;base64," + logo)
	}

	for _, item := range inv.Items {
		view.Items = append(view.Items, htmlItem{
			Date:    item.Date.Format("2006-01-02"),
			Name:    item.Name,
			Task:    item.Task,
			Comment: strings.Split(strings.ReplaceAll(item.Comment, "\r\n", "\n"), "\n"),
			Hours:   item.Hours.StringFixed(2),
			Cost:    item.Cost.StringFixed(2),
		})
	}

	var buf bytes.Buffer
	execErr := invoiceTemplate.Execute(&buf, view)
	if execErr != nil {
		return nil, xerr.NewError(execErr, "execute invoice template", inv.Name)
	}
	return buf.Bytes(), nil
}

// Render pipes the page into wkhtmltopdf, which writes the PDF next to the other invoices.
func (r *WKHTMLRenderer) Render(ctx context.Context, inv Invoice, dir string) (path string, e *xerr.Error) {
	page, e := r.HTML(inv)
	if e != nil {
		return "", e
	}
	path, e = prepareOutput(dir, inv)
	if e != nil {
		return "", e
	}

	args := append(append([]string{}, wkhtmlArgs...), "-", path)
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdin = bytes.NewReader(page)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		return "", xerr.NewError(
			fmt.Errorf("%w: %s", runErr, strings.TrimSpace(stderr.String())),
			"run wkhtmltopdf", r.binary,
		)
	}
	return path, nil
}
