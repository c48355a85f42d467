package report

import (
	"bytes"
	"fmt"
	"html/template"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`<p>Domain {{.Header.Domain}}, dates {{.Start}} - {{.End}}, {{.Invoices}} invoices created.</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
`))

/*
Summary renders the subject, plain text and HTML body of the run summary email.
*/
func Summary(header Header, rows []Row, invoices int) (subject, text, html string, err error) {
	start := header.StartDate.Format("20060102")
	end := header.EndDate.Format("20060102")
	subject = fmt.Sprintf("Teamwork invoices %s - %s (%d created)", start, end, invoices)

	var textBuf bytes.Buffer
	err = WriteText(&textBuf, header, rows)
	if err != nil {
		return "", "", "", err
	}
	fmt.Fprintf(&textBuf, "\n%d invoices created\n", invoices)

	var htmlBuf bytes.Buffer
	err = summaryTemplate.Execute(&htmlBuf, map[string]any{
		"Header":   header,
		"Start":    start,
		"End":      end,
		"Invoices": invoices,
		"Headers":  Headers,
		"Rows":     rows,
	})
	if err != nil {
		return "", "", "", err
	}
	return subject, textBuf.String(), htmlBuf.String(), nil
}
