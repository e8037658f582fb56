package extractor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxSpan caps colspan/rowspan values so a malformed attribute cannot blow up
// the grid.
const maxSpan = 1000

// Table is an HTML table flattened into a rectangular-ish grid. Columns holds
// the header names exactly as they appear in the document; Rows holds the
// body cells with colspan and rowspan expanded.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Cell returns the text of column idx in row, or "" when the row is short.
func (t Table) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

type rawCell struct {
	text    string
	header  bool
	colspan int
	rowspan int
}

type rawRow struct {
	cells  []rawCell
	inHead bool
}

// ParseTables returns every <table> in the document in document order.
// Nested tables are returned as tables of their own and do not contribute
// cells to their parent.
func ParseTables(r io.Reader) ([]Table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tables []Table
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, parseTable(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return tables, nil
}

func parseTable(n *html.Node) Table {
	rows := collectRows(n)
	grid := buildGrid(rows)

	headerRows := 0
	for i, row := range rows {
		if row.inHead {
			headerRows = i + 1
		}
	}
	if headerRows == 0 {
		for _, row := range rows {
			if !allHeaderCells(row) {
				break
			}
			headerRows++
		}
	}
	if headerRows == 0 {
		return Table{Rows: grid}
	}

	return Table{
		Columns: grid[headerRows-1],
		Rows:    grid[headerRows:],
	}
}

func allHeaderCells(row rawRow) bool {
	if len(row.cells) == 0 {
		return false
	}
	for _, c := range row.cells {
		if !c.header {
			return false
		}
	}
	return true
}

func collectRows(table *html.Node) []rawRow {
	var rows []rawRow
	var visit func(n *html.Node, inHead bool)
	visit = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead:
				visit(c, true)
			case atom.Tbody, atom.Tfoot:
				visit(c, inHead)
			case atom.Tr:
				rows = append(rows, parseRow(c, inHead))
			}
		}
	}
	visit(table, false)
	return rows
}

func parseRow(tr *html.Node, inHead bool) rawRow {
	row := rawRow{inHead: inHead}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom != atom.Td && c.DataAtom != atom.Th {
			continue
		}
		row.cells = append(row.cells, rawCell{
			text:    cellText(c),
			header:  c.DataAtom == atom.Th,
			colspan: spanAttr(c, "colspan"),
			rowspan: spanAttr(c, "rowspan"),
		})
	}
	return row
}

func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Table, atom.Script, atom.Style:
				return
			case atom.Br:
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func spanAttr(n *html.Node, key string) int {
	for _, attr := range n.Attr {
		if attr.Key != key {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(attr.Val))
		if err != nil || v < 1 {
			return 1
		}
		if v > maxSpan {
			return maxSpan
		}
		return v
	}
	return 1
}

type carry struct {
	text      string
	remaining int
}

// buildGrid expands colspan and rowspan so every logical cell occupies its
// own slot in each row it covers.
func buildGrid(rows []rawRow) [][]string {
	grid := make([][]string, 0, len(rows))
	pending := make(map[int]carry)

	for _, row := range rows {
		var out []string
		col, next := 0, 0
		for {
			if p, ok := pending[col]; ok {
				out = append(out, p.text)
				p.remaining--
				if p.remaining == 0 {
					delete(pending, col)
				} else {
					pending[col] = p
				}
				col++
				continue
			}
			if next < len(row.cells) {
				cell := row.cells[next]
				next++
				for k := 0; k < cell.colspan; k++ {
					out = append(out, cell.text)
					if cell.rowspan > 1 {
						pending[col] = carry{text: cell.text, remaining: cell.rowspan - 1}
					}
					col++
				}
				continue
			}
			if !pendingBeyond(pending, col) {
				break
			}
			out = append(out, "")
			col++
		}
		grid = append(grid, out)
	}
	return grid
}

func pendingBeyond(pending map[int]carry, col int) bool {
	for c := range pending {
		if c > col {
			return true
		}
	}
	return false
}
