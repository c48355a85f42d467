/*
Package pdf renders per-person time invoices.

Two engines share the same model: wkhtmltopdf (an HTML template piped through the external
binary) and maroto (native Go rendering).
*/
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tuumbleweed/xerr"
)

type LineItem struct {
	Date    time.Time       `json:"date"`
	Name    string          `json:"name"`
	Task    string          `json:"task"`
	Comment string          `json:"comment"`
	Hours   decimal.Decimal `json:"time"`
	Cost    decimal.Decimal `json:"cost"`
}

type Invoice struct {
	Name     string     `json:"name"`
	Project  string     `json:"project"`
	Date     time.Time  `json:"date"`
	Currency string     `json:"currency"`
	Items    []LineItem `json:"invoices"`
}

// Total is the sum of line costs rounded to cents.
func (inv Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Cost)
	}
	return total.Round(2)
}

// TotalHours is the sum of line hours.
func (inv Invoice) TotalHours() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Hours)
	}
	return total
}

/*
FileName is "({total} usd) Invoice {project} {name}.pdf" with a comma as decimal separator,
for example "(45,00 usd) Invoice 1 Alice Tan.pdf".
*/
func FileName(inv Invoice) string {
	total := strings.Replace(inv.Total().StringFixed(2), ".", ",", 1)
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(inv.Name)
	return fmt.Sprintf("(%s usd) Invoice %s %s.pdf", total, inv.Project, name)
}

// Renderer writes one invoice into dir and returns the file path.
type Renderer interface {
	Render(ctx context.Context, invoice Invoice, dir string) (path string, e *xerr.Error)
}

/*
NewRenderer returns the renderer for an engine name ("wkhtmltopdf" or "maroto").
*/
func NewRenderer(engine string, opts Options) (renderer Renderer, e *xerr.Error) {
	switch engine {
	case "", EngineWKHTMLToPDF:
		return NewWKHTMLRenderer(opts), nil
	case EngineMaroto:
		return NewMarotoRenderer(opts), nil
	default:
		return nil, xerr.NewError(fmt.Errorf("unknown engine '%s'", engine), "select pdf engine", engine)
	}
}

const (
	EngineWKHTMLToPDF = "wkhtmltopdf"
	EngineMaroto      = "maroto"
)

// Options shared by the engines.
type Options struct {
	WKHTMLToPDFPath string
	LogoPath        string
	Title           string
}

func prepareOutput(dir string, inv Invoice) (path string, e *xerr.Error) {
	mkdirErr := os.MkdirAll(dir, 0o755)
	if mkdirErr != nil {
		return "", xerr.NewError(mkdirErr, "create pdf directory", dir)
	}
	return filepath.Join(dir, FileName(inv)), nil
}
