package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	mpdf "github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
	"github.com/tuumbleweed/xerr"
)

// MarotoRenderer draws the invoice in Go, no external binary needed.
type MarotoRenderer struct {
	opts Options
}

func NewMarotoRenderer(opts Options) *MarotoRenderer {
	return &MarotoRenderer{opts: opts}
}

var gridSizes = []uint{2, 2, 3, 3, 1, 1}

func (r *MarotoRenderer) Render(ctx context.Context, inv Invoice, dir string) (path string, e *xerr.Error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", xerr.NewError(ctxErr, "render invoice", inv.Name)
	}
	logo, e := loadLogo(r.opts.LogoPath)
	if e != nil {
		return "", e
	}
	path, e = prepareOutput(dir, inv)
	if e != nil {
		return "", e
	}

	title := r.opts.Title
	if title == "" {
		title = DefaultTitle
	}

	m := mpdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(10, 10, 10)

	m.RegisterHeader(func() {
		if logo != "" {
			m.Row(20, func() {
				m.Col(4, func() {
					_ = m.Base64Image(logo, consts.Png, props.Rect{Center: false, Percent: 90})
				})
			})
		}
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(title, props.Text{Top: 2, Style: consts.Bold, Size: 16})
			})
		})
		m.Row(6, func() {
			m.Col(12, func() {
				m.Text(fmt.Sprintf("%s, project %s, %s", inv.Name, inv.Project, inv.Date.Format("2006-01-02")),
					props.Text{Size: 10})
			})
		})
	})

	headers := []string{"Date", "Name", "Task", "Comment", "Time", "Cost"}
	rows := make([][]string, 0, len(inv.Items))
	for _, item := range inv.Items {
		rows = append(rows, []string{
			item.Date.Format("2006-01-02"),
			item.Name,
			item.Task,
			item.Comment,
			item.Hours.StringFixed(2),
			item.Cost.StringFixed(2),
		})
	}

	m.TableList(headers, rows, props.TableList{
		HeaderProp: props.TableListContent{
			Size:      9,
			GridSizes: gridSizes,
		},
		ContentProp: props.TableListContent{
			Size:      8,
			GridSizes: gridSizes,
		},
		Align:                consts.Left,
		AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
		HeaderContentSpace:   1,
		Line:                 false,
	})

	m.Row(12, func() {
		m.Col(12, func() {
			m.Text(fmt.Sprintf("Total: %s hours, %s %s", inv.TotalHours().StringFixed(2), inv.Total().StringFixed(2), inv.Currency),
				props.Text{Top: 4, Style: consts.Bold, Align: consts.Right, Size: 11})
		})
	})

	outputErr := m.OutputFileAndClose(path)
	if outputErr != nil {
		return "", xerr.NewError(outputErr, "write pdf", path)
	}
	return path, nil
}
