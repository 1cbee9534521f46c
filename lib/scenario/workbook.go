// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// commandSeparator splits command cells. Spreadsheet authors write the
// two characters backslash and n between commands.
const commandSeparator = `\n`

// listSeparator splits every other multi-valued cell.
const listSeparator = ";"

// LoadWorkbook reads the scenario, effects, and logs sheets of an .xlsx
// workbook. Row 1 of each sheet holds the column names, column A holds
// the identifier. A missing sheet is an error.
func LoadWorkbook(path string) (Tables, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer file.Close()

	var tables Tables
	for _, sheet := range []struct {
		name  string
		table *Table
	}{
		{TableScenario, &tables.Scenario},
		{TableEffects, &tables.Effects},
		{TableLogs, &tables.Logs},
	} {
		table, err := readSheet(file, sheet.name)
		if err != nil {
			return Tables{}, err
		}
		*sheet.table = table
	}
	return tables, nil
}

func readSheet(file *excelize.File, sheet string) (Table, error) {
	index, err := file.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if index < 0 {
		return nil, fmt.Errorf("workbook is missing sheet: %s", sheet)
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}

	table := make(Table)
	if len(rows) == 0 {
		return table, nil
	}

	header := make([]string, len(rows[0]))
	for column, name := range rows[0] {
		header[column] = strings.ToLower(strings.TrimSpace(name))
	}

	for _, cells := range rows[1:] {
		if len(cells) == 0 {
			continue
		}
		id := strings.TrimSpace(cells[0])
		if !present(id) {
			continue
		}
		row := make(Row)
		for column := 1; column < len(header); column++ {
			name := header[column]
			if name == "" {
				continue
			}
			cell := ""
			// GetRows trims trailing empty cells.
			if column < len(cells) {
				cell = cells[column]
			}
			row.setValues(name, splitCell(name, cell))
		}
		table[id] = row
	}
	return table, nil
}

// splitCell splits a cell by the convention for its column:
// descriptions are kept whole, command columns split on a literal \n,
// everything else splits on ";" with surrounding space trimmed.
func splitCell(column, cell string) []string {
	switch {
	case column == ColumnDescription:
		return []string{cell}
	case strings.HasSuffix(column, "_command"):
		return strings.Split(cell, commandSeparator)
	default:
		parts := strings.Split(cell, listSeparator)
		for index := range parts {
			parts[index] = strings.TrimSpace(parts[index])
		}
		return parts
	}
}
