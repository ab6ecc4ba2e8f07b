package scraper

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Table is a scraped table: the header row followed by the body rows.
// A row holds the trimmed, non-empty text fragments of its cells.
type Table [][]string

// Equal reports whether t and other have the same rows.
func (t Table) Equal(other Table) bool {
	return cmp.Equal(t, other, cmpopts.EquateEmpty())
}

// CSV renders the table as CSV.
func (t Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadCSV parses a table stored as CSV. Rows may differ in length.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return Table(records), nil
}

// ExtractTable returns the index-th table of doc. The header is the first
// row of its thead and the body is every row of its first tbody.
func ExtractTable(doc *html.Node, index int) (Table, error) {
	tables := findAll(doc, atom.Table)
	if index < 0 || index >= len(tables) {
		return nil, fmt.Errorf("table %d not found, document has %d tables", index, len(tables))
	}
	table := tables[index]

	thead := findFirst(table, atom.Thead)
	if thead == nil {
		return nil, fmt.Errorf("table %d has no thead", index)
	}
	header := childElement(thead, atom.Tr)
	if header == nil {
		return nil, fmt.Errorf("table %d has no header row", index)
	}

	tbody := findFirst(table, atom.Tbody)
	if tbody == nil {
		return nil, fmt.Errorf("table %d has no tbody", index)
	}

	t := Table{texts(header)}
	for _, tr := range findAll(tbody, atom.Tr) {
		t = append(t, texts(tr))
	}
	return t, nil
}

// texts collects the trimmed, non-empty text nodes below n in document order.
func texts(n *html.Node) []string {
	out := []string{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				out = append(out, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == a {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(n)
	return found
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if found := findAll(n, a); len(found) > 0 {
		return found[0]
	}
	return nil
}

func childElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}
