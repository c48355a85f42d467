package pdf_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"

	"teamwork-invoicer/src/pkg/pdf"
)

func sampleInvoice() pdf.Invoice {
	day := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	return pdf.Invoice{
		Name:     "Alice Tan",
		Project:  "1",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency: "USD",
		Items: []pdf.LineItem{
			{Date: day, Name: "Alice Tan", Task: "Build", Comment: "first <b>\nsecond", Hours: decimal.RequireFromString("1"), Cost: decimal.RequireFromString("30.004")},
			{Date: day, Name: "Alice Tan", Task: "Test", Comment: "", Hours: decimal.RequireFromString("0.5"), Cost: decimal.RequireFromString("15")},
		},
	}
}

func TestTotalsAndFileName(t *testing.T) {
	t.Parallel()

	inv := sampleInvoice()
	if got := inv.Total().StringFixed(2); got != "45.00" {
		t.Fatalf("total = %s", got)
	}
	if got := inv.TotalHours().StringFixed(2); got != "1.50" {
		t.Fatalf("hours = %s", got)
	}
	if got := pdf.FileName(inv); got != "(45,00 usd) Invoice 1 Alice Tan.pdf" {
		t.Fatalf("file name = %q", got)
	}

	inv.Name = "a/b"
	if got := pdf.FileName(inv); got != "(45,00 usd) Invoice 1 a_b.pdf" {
		t.Fatalf("file name = %q", got)
	}
}

func TestNewRendererEngines(t *testing.T) {
	t.Parallel()

	if r, e := pdf.NewRenderer("", pdf.Options{}); e != nil || r == nil {
		t.Fatalf("default engine: %v", e)
	}
	if _, ok := mustRenderer(t, pdf.EngineMaroto).(*pdf.MarotoRenderer); !ok {
		t.Fatalf("maroto engine has wrong type")
	}
	if _, ok := mustRenderer(t, pdf.EngineWKHTMLToPDF).(*pdf.WKHTMLRenderer); !ok {
		t.Fatalf("wkhtmltopdf engine has wrong type")
	}
	if _, e := pdf.NewRenderer("latex", pdf.Options{}); e == nil {
		t.Fatalf("expected an error for an unknown engine")
	}
}

func mustRenderer(t *testing.T, engine string) pdf.Renderer {
	t.Helper()
	r, e := pdf.NewRenderer(engine, pdf.Options{})
	if e != nil {
		t.Fatalf("engine %s: %v", engine, e)
	}
	return r
}

func writeLogo(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 800, 200))
	for x := 0; x < 800; x++ {
		img.Set(x, 100, color.NRGBA{R: 200, A: 255})
	}
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save logo: %v", err)
	}
	return path
}

func TestHTML(t *testing.T) {
	t.Parallel()

	r := pdf.NewWKHTMLRenderer(pdf.Options{LogoPath: writeLogo(t), Title: "Monthly invoice"})
	page, e := r.HTML(sampleInvoice())
	if e != nil {
		t.Fatalf("html: %v", e)
	}
	html := string(page)

	for _, want := range []string{
		"Monthly invoice",
		"2024-02-05",
		"first &lt;b&gt;<br>second",
		"30.00",
		"45.00 USD",
		"1.50",
		`src="data:image/png;base64,`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("html misses %q:\n%s", want, html)
		}
	}
}

func TestHTMLMissingLogo(t *testing.T) {
	t.Parallel()

	r := pdf.NewWKHTMLRenderer(pdf.Options{LogoPath: filepath.Join(t.TempDir(), "none.png")})
	if _, e := r.HTML(sampleInvoice()); e == nil {
		t.Fatalf("expected an error for a missing logo")
	}
}

func TestWKHTMLMissingBinary(t *testing.T) {
	t.Parallel()

	r := pdf.NewWKHTMLRenderer(pdf.Options{WKHTMLToPDFPath: filepath.Join(t.TempDir(), "no-such-binary")})
	if _, e := r.Render(context.Background(), sampleInvoice(), t.TempDir()); e == nil {
		t.Fatalf("expected an error when wkhtmltopdf is missing")
	}
}

func TestMarotoRender(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "pdf")
	r := pdf.NewMarotoRenderer(pdf.Options{LogoPath: writeLogo(t)})
	path, e := r.Render(context.Background(), sampleInvoice(), dir)
	if e != nil {
		t.Fatalf("render: %v", e)
	}
	if filepath.Base(path) != "(45,00 usd) Invoice 1 Alice Tan.pdf" {
		t.Fatalf("unexpected path %s", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Fatalf("not a pdf: %q", content[:min(len(content), 16)])
	}
}
