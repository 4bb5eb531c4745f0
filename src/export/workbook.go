// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package export writes a settled submission to an XLSX workbook.
//
// The workbook has a "Summary" sheet followed by one sheet per lookup, named
// after [netintel.Lookup.Title], holding the lookup's status and its
// normalized fields.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/H0llyW00dzZ/netintel/src/netintel"
)

// SummarySheet is the name of the first sheet.
const SummarySheet = "Summary"

// ErrNoTasks is returned when there is nothing to export.
var ErrNoTasks = errors.New("export: no tasks to export")

var fieldHeader = []any{"Section", "Label", "Value"}

// WriteWorkbook renders tasks and summary as an XLSX workbook to w.
func WriteWorkbook(w io.Writer, tasks []netintel.Task, summary netintel.Summary) error {
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	// The default sheet is renamed rather than deleted so the workbook is
	// never without sheets.
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := writeSummary(f, bold, tasks, summary); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	for _, task := range tasks {
		if err := writeTask(f, bold, task); err != nil {
			return fmt.Errorf("export: %s: %w", task.Lookup, err)
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, bold int, tasks []netintel.Task, summary netintel.Summary) error {
	rows := [][]any{
		{"Target", summary.Target.Raw},
		{"Kind", summary.Target.Kind.String()},
		{"Generation", summary.Generation},
		{"Submission ID", summary.ID},
		{"Total", summary.Total},
		{"Failures", summary.Failures},
		{"Warnings", summary.Warnings},
		{"Result", summary.Message()},
		{},
		{"Lookup", "Status", "Endpoint", "Param", "Duration", "Error"},
	}
	if summary.Target.Registrable != "" {
		rows = append([][]any{rows[0], {"Registrable", summary.Target.Registrable}}, rows[1:]...)
	}
	headerRow := len(rows)

	for _, task := range tasks {
		rows = append(rows, []any{
			task.Lookup.Title(),
			task.Status.String(),
			task.Endpoint,
			task.Param,
			duration(task),
			errText(task.Err),
		})
	}

	if err := writeRows(f, SummarySheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "F", 24); err != nil {
		return err
	}
	return boldRow(f, SummarySheet, bold, headerRow, 6)
}

func writeTask(f *excelize.File, bold int, task netintel.Task) error {
	sheet := task.Lookup.Title()
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]any{
		{"Status", task.Status.String()},
		{"Endpoint", task.Endpoint},
		{"Param", task.Param},
		{"Error", errText(task.Err)},
		{},
		fieldHeader,
	}
	if task.Degraded {
		rows = append([][]any{{"Degraded", "yes"}}, rows...)
	}
	if task.Supplementary {
		rows = append([][]any{{"Supplementary", "yes"}}, rows...)
	}
	headerRow := len(rows)

	for _, section := range task.Sections {
		for _, field := range section.Fields {
			rows = append(rows, []any{section.Title, field.Label, field.Value})
		}
	}

	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "B", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "C", 60); err != nil {
		return err
	}
	return boldRow(f, sheet, bold, headerRow, len(fieldHeader))
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, style, row, cols int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func duration(task netintel.Task) string {
	if task.Started.IsZero() || task.Finished.IsZero() {
		return ""
	}
	return task.Finished.Sub(task.Started).Round(time.Millisecond).String()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
