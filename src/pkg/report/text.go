package report

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/tuumbleweed/xerr"
)

const rowFormat = "%-15s %-30s %-15s %-15s %-15s %-15s\n"

/*
WriteText prints the header block, a blank line and the fixed-width table.
*/
func WriteText(w io.Writer, header Header, rows []Row) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Created at %s\n", header.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "Domain %s\n", header.Domain)
	fmt.Fprintf(bw, "Dates from %s to %s\n", header.StartDate.Format("20060102"), header.EndDate.Format("20060102"))
	fmt.Fprintf(bw, "Projects %s\n", projectList(header.Projects))
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, rowFormat, toAny(Headers)...)
	for _, row := range rows {
		fmt.Fprintf(bw, rowFormat, toAny(row.Cells())...)
	}
	return bw.Flush()
}

// SaveText overwrites path with the report.
func SaveText(path string, header Header, rows []Row) (e *xerr.Error) {
	file, createErr := os.Create(path)
	if createErr != nil {
		return xerr.NewError(createErr, "create report file", path)
	}
	writeErr := WriteText(file, header, rows)
	closeErr := file.Close()
	if writeErr != nil {
		return xerr.NewError(writeErr, "write report file", path)
	}
	if closeErr != nil {
		return xerr.NewError(closeErr, "close report file", path)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
