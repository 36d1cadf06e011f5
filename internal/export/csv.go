// Package export turns API records into CSV rows.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/arvarik/anbima-go/anbima"
)

// DebentureKeys is the column set exported for secondary-market quotes.
var DebentureKeys = []string{
	"codigo_ativo",
	"data_vencimento",
	"percentual_taxa",
	"data_referencia",
	"taxa_compra",
	"taxa_venda",
	"taxa_indicativa",
	"duration",
	"emissor",
}

// Keys returns the sorted union of field names across records.
func Keys(records []anbima.Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Project keeps only keys from each record, in order. Missing fields
// become empty cells.
func Project(records []anbima.Record, keys []string) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = formatValue(r[k])
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes a header of keys followed by one row per record.
func WriteCSV(w io.Writer, keys []string, records []anbima.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(keys); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.WriteAll(Project(records, keys)); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
