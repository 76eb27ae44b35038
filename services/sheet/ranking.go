package sheetsvc

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/marksboard/core/marks"
)

const RankingSheet = "Ranking"

// RankingHeader is the first row of the ranking sheet.
var RankingHeader = []string{"Rank", "Name", "Email", "Term 1", "Term 2", "Term 3", "Total", "Status", "You"}

// WriteRanking writes the dashboard listing as an XLSX workbook, in the given order.
// The row of `currentID` is marked and highlighted.
func WriteRanking(w io.Writer, rows []marks.Row, currentID string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = errors.Wrap(cErr, "closing workbook")
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), RankingSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, len(RankingHeader))
	for i, h := range RankingHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(RankingSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	youStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0EBF5"}},
	})
	if err != nil {
		return errors.Wrap(err, "creating highlight style")
	}
	if err := f.SetRowStyle(RankingSheet, 1, 1, headerStyle); err != nil {
		return errors.Wrap(err, "styling header")
	}

	for i, r := range rows {
		rowNum := i + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return errors.Wrapf(err, "row %d", rowNum)
		}
		values := rankingRow(r, r.StudentID == currentID)
		if err := f.SetSheetRow(RankingSheet, cell, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", rowNum)
		}
		if r.StudentID == currentID {
			if err := f.SetRowStyle(RankingSheet, rowNum, rowNum, youStyle); err != nil {
				return errors.Wrapf(err, "styling row %d", rowNum)
			}
		}
	}

	if err := f.SetColWidth(RankingSheet, "B", "C", 28); err != nil {
		return errors.Wrap(err, "sizing columns")
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func rankingRow(r marks.Row, you bool) []interface{} {
	values := []interface{}{
		optional(r.Rank),
		r.Name,
		r.Email,
		optionalScore(r.TR1),
		optionalScore(r.TR2),
		optionalScore(r.TR3),
		optionalScore(r.Total),
		status(r.Selected),
		"",
	}
	if you {
		values[len(values)-1] = "You"
	}
	return values
}

func optional(i *int) interface{} {
	if i == nil {
		return "-"
	}
	return *i
}

func optionalScore(f *float64) interface{} {
	if f == nil {
		return "-"
	}
	return *f
}

func status(selected *bool) string {
	switch {
	case selected == nil:
		return "-"
	case *selected:
		return "Selected"
	}
	return "Not Selected"
}
