// Package report exports recorded results as an Excel workbook with one sheet per paradigm.
package report

import (
	"fmt"
	"slices"

	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/result"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// Table holds the records of one paradigm by instance size
type Table map[int]result.Record

// Collect loads the records of every paradigm for the given instance sizes.
// Sizes without a result file are left out.
func Collect(recorder *result.Recorder, ns []int) (map[engine.Paradigm]Table, error) {
	tables := make(map[engine.Paradigm]Table, len(engine.Paradigms))
	for _, paradigm := range engine.Paradigms {
		table := Table{}
		for _, n := range ns {
			record, err := recorder.Load(paradigm, n)
			if err != nil {
				return nil, err
			}
			if len(record) > 0 {
				table[n] = record
			}
		}
		tables[paradigm] = table
	}
	return tables, nil
}

// Generate builds the workbook: rows are instance sizes, columns are approaches
func Generate(tables map[engine.Paradigm]Table) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	for _, paradigm := range engine.Paradigms {
		if err := writeSheet(f, string(paradigm), tables[paradigm], headerStyle); err != nil {
			return nil, fmt.Errorf("writing %v sheet: %w", paradigm, err)
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, table Table, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	approaches := lo.Uniq(lo.FlatMap(lo.Values(table), func(record result.Record, _ int) []string {
		return lo.Keys(record)
	}))
	slices.Sort(approaches)

	headers := append([]string{"n"}, approaches...)
	for i, header := range headers {
		if err := f.SetCellValue(sheet, cellRef(i+1, 1), header); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), headerStyle); err != nil {
		return err
	}

	ns := lo.Keys(table)
	slices.Sort(ns)
	for i, n := range ns {
		row := i + 2
		if err := f.SetCellValue(sheet, cellRef(1, row), n); err != nil {
			return err
		}
		for j, approach := range approaches {
			res, ok := table[n][approach]
			if !ok {
				continue
			}
			if err := f.SetCellValue(sheet, cellRef(j+2, row), Describe(res)); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(sheet, "B", colName(len(headers)), 18)
}

// Describe renders one approach result as a short cell text
func Describe(res result.ApproachResult) string {
	switch {
	case len(res.Sol) == 0 && res.Optimal:
		return fmt.Sprintf("unsat %ds", res.Time)
	case len(res.Sol) == 0:
		return "timeout"
	}

	text := fmt.Sprintf("%ds", res.Time)
	if res.Obj != nil {
		text += fmt.Sprintf(" obj=%g", *res.Obj)
	}
	if !res.Optimal {
		text += " (not proven)"
	}
	return text
}

func cellRef(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}

func colName(col int) string {
	name, _ := excelize.ColumnNumberToName(max(col, 2))
	return name
}
