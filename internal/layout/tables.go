package layout

import "strings"

// TableConfig tunes DetectTables
type TableConfig struct {
	CellGap   float64 // horizontal gap that separates two cells on a line
	MaxRowGap float64 // vertical gap between consecutive rows of one table
	MinCols   int     // cells a line needs to start or continue a table
	MinRows   int     // rows, header included, a run needs to count as a table
}

// DefaultTableConfig returns the settings used for the application form
func DefaultTableConfig() TableConfig {
	return TableConfig{
		CellGap:   10.0,
		MaxRowGap: 30.0,
		MinCols:   2,
		MinRows:   2,
	}
}

type cell struct {
	x0, x1 float64
	text   string
}

// DetectTables finds ruled-or-not tables in a word list using alignment only.
// Lines are split into cells at gaps wider than CellGap; a table is a run of
// consecutive lines that each have at least MinCols cells and sit no more than
// MaxRowGap apart. The first line of a run is the header and fixes the column
// spans; cells of later lines go to the column whose span contains their x0.
// A line with more cells than the header cannot belong to it and starts a new
// run, so a label line above a table never captures the table's rows.
func DetectTables(words []Word, cfg TableConfig) []Table {
	lines := GroupLines(words)

	var tables []Table
	var header []cell
	var rows Table
	var lastTop float64

	closeRun := func() {
		if len(rows) >= cfg.MinRows {
			tables = append(tables, rows)
		}
		header, rows = nil, nil
	}

	for _, line := range lines {
		cells := splitCells(line, cfg.CellGap)
		top := line[0].Top

		if len(cells) < cfg.MinCols {
			closeRun()
			continue
		}
		if header != nil && (top-lastTop > cfg.MaxRowGap || len(cells) > len(header)) {
			closeRun()
		}

		if header == nil {
			header = cells
			row := make([]string, len(cells))
			for i, c := range cells {
				row[i] = c.text
			}
			rows = Table{row}
		} else {
			rows = append(rows, assignColumns(header, cells))
		}
		lastTop = top
	}
	closeRun()

	return tables
}

func splitCells(line []Word, gap float64) []cell {
	var cells []cell
	for _, w := range line {
		n := len(cells)
		if n > 0 && w.X0-cells[n-1].x1 <= gap {
			cells[n-1].x1 = w.X1
			cells[n-1].text += " " + w.Text
			continue
		}
		cells = append(cells, cell{x0: w.X0, x1: w.X1, text: w.Text})
	}
	return cells
}

// assignColumns places cells under the header column they start in. The
// boundary between columns i-1 and i is the midpoint of the gap between the two
// header cells; the first column extends left and the last right without bound.
func assignColumns(header, cells []cell) []string {
	row := make([]string, len(header))
	for _, c := range cells {
		col := 0
		for i := len(header) - 1; i > 0; i-- {
			boundary := (header[i-1].x1 + header[i].x0) / 2
			if c.x0 >= boundary {
				col = i
				break
			}
		}
		if row[col] == "" {
			row[col] = c.text
		} else {
			row[col] = strings.Join([]string{row[col], c.text}, " ")
		}
	}
	return row
}
