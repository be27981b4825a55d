package caseindex

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const TotalLabel = "總計"

var ErrTotalsMismatch = errors.New("cross tab totals disagree")

// CrossTab intersects two indexes. Rows are the labels of the first index,
// columns the labels of the second.
type CrossTab struct {
	Rows         []string
	Columns      []string
	Cells        [][][]string
	RowTotals    []int
	ColumnTotals []int
	GrandTotal   int
}

// BuildCrossTab computes the intersection of every row and column label.
// Cell case numbers follow the order of the first index. The grand total is
// only set when both indexes hold the same number of entries.
func BuildCrossTab(a, b *Index) (*CrossTab, error) {
	ct := &CrossTab{
		Rows:         a.Labels(),
		Columns:      b.Labels(),
		Cells:        make([][][]string, a.Len()),
		RowTotals:    make([]int, a.Len()),
		ColumnTotals: make([]int, b.Len()),
	}

	members := make([]map[string]struct{}, len(ct.Columns))
	for j, col := range ct.Columns {
		set := make(map[string]struct{}, len(b.Cases(col)))
		for _, c := range b.Cases(col) {
			set[c] = struct{}{}
		}
		members[j] = set
		ct.ColumnTotals[j] = len(b.Cases(col))
	}

	for i, row := range ct.Rows {
		cases := a.Cases(row)
		ct.RowTotals[i] = len(cases)
		ct.Cells[i] = make([][]string, len(ct.Columns))
		for j := range ct.Columns {
			seen := make(map[string]struct{})
			common := []string{}
			for _, c := range cases {
				if _, ok := members[j][c]; !ok {
					continue
				}
				if _, dup := seen[c]; dup {
					continue
				}
				seen[c] = struct{}{}
				common = append(common, c)
			}
			ct.Cells[i][j] = common
		}
	}

	rowSum, colSum := a.Total(), b.Total()
	if rowSum != colSum {
		return ct, fmt.Errorf("%w: rows=%d columns=%d", ErrTotalsMismatch, rowSum, colSum)
	}
	ct.GrandTotal = rowSum
	return ct, nil
}

// Table renders the cross tab as a grid including the header row, the total
// column and the total row.
func (ct *CrossTab) Table() [][]string {
	header := append([]string{""}, ct.Columns...)
	header = append(header, TotalLabel)
	table := [][]string{header}

	for i, row := range ct.Rows {
		line := make([]string, 0, len(ct.Columns)+2)
		line = append(line, row)
		for j := range ct.Columns {
			line = append(line, strings.Join(ct.Cells[i][j], ", "))
		}
		line = append(line, strconv.Itoa(ct.RowTotals[i]))
		table = append(table, line)
	}

	totals := make([]string, 0, len(ct.Columns)+2)
	totals = append(totals, TotalLabel)
	for _, n := range ct.ColumnTotals {
		totals = append(totals, strconv.Itoa(n))
	}
	totals = append(totals, strconv.Itoa(ct.GrandTotal))
	return append(table, totals)
}

// WriteCSV writes the table with a UTF-8 byte order mark so spreadsheet tools
// detect the encoding.
func (ct *CrossTab) WriteCSV(w io.Writer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(ct.Table()); err != nil {
		return err
	}
	return cw.Error()
}

const crossTabSheet = "cross_analysis"

func (ct *CrossTab) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", crossTabSheet); err != nil {
		return err
	}
	for i, row := range ct.Table() {
		cells := make([]any, len(row))
		for j, value := range row {
			cells[j] = value
		}
		// Totals are numeric so spreadsheet formulas can use them.
		if i > 0 {
			if n, err := strconv.Atoi(row[len(row)-1]); err == nil {
				cells[len(row)-1] = n
			}
		}
		if i == len(ct.Rows)+1 {
			for j := 1; j < len(row); j++ {
				if n, err := strconv.Atoi(row[j]); err == nil {
					cells[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(crossTabSheet, cell, &cells); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// OutputName is cross_analysis_<a>_vs_<b>_<YYYYMMDD_HHMMSS>.<ext>.
func OutputName(a, b, ext string, at time.Time) string {
	return fmt.Sprintf("cross_analysis_%s_vs_%s_%s.%s", a, b, at.Format("20060102_150405"), strings.TrimPrefix(ext, "."))
}
