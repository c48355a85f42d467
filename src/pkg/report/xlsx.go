package report

import (
	"github.com/tuumbleweed/xerr"
	"github.com/xuri/excelize/v2"
)

const (
	SheetReport = "Report"
	SheetRun    = "Run"
)

/*
SaveXLSX writes the same report as a workbook: a Report sheet with the table
(numbers as numbers) and a Run sheet with the header block.
*/
func SaveXLSX(path string, header Header, rows []Row) (e *xerr.Error) {
	f := excelize.NewFile()
	defer f.Close()

	renameErr := f.SetSheetName("Sheet1", SheetReport)
	if renameErr != nil {
		return xerr.NewError(renameErr, "rename sheet", SheetReport)
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetReport, cell, h)
	}
	headerStyle, styleErr := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
	})
	if styleErr != nil {
		return xerr.NewError(styleErr, "create header style", nil)
	}
	f.SetRowStyle(SheetReport, 1, 1, headerStyle)

	for i, row := range rows {
		values := []any{
			string(row.PersonID), row.Name,
			row.Hours.InexactFloat64(), row.Cost.InexactFloat64(), row.Expenses.InexactFloat64(),
			row.Rates,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(SheetReport, cell, value)
		}
	}
	f.SetColWidth(SheetReport, "A", "A", 15)
	f.SetColWidth(SheetReport, "B", "B", 30)
	f.SetColWidth(SheetReport, "C", "E", 12)
	f.SetColWidth(SheetReport, "F", "F", 60)

	if _, sheetErr := f.NewSheet(SheetRun); sheetErr != nil {
		return xerr.NewError(sheetErr, "create sheet", SheetRun)
	}
	runData := [][]any{
		{"Created at", header.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Domain", header.Domain},
		{"Dates from", header.StartDate.Format("20060102")},
		{"Dates to", header.EndDate.Format("20060102")},
		{"Projects", projectList(header.Projects)},
	}
	for i, row := range runData {
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			f.SetCellValue(SheetRun, cell, value)
		}
	}
	f.SetColWidth(SheetRun, "A", "A", 15)
	f.SetColWidth(SheetRun, "B", "B", 60)

	saveErr := f.SaveAs(path)
	if saveErr != nil {
		return xerr.NewError(saveErr, "save workbook", path)
	}
	return nil
}
