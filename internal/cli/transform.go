package cli

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/yzaremba/rt/internal/csvio"
	"github.com/yzaremba/rt/internal/extractor"
	"github.com/yzaremba/rt/internal/flatten"
	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/value"
)

func (a *App) jsonMergeCmd() *cobra.Command {
	var (
		mode     string
		uniqueBy string
	)
	cmd := &cobra.Command{
		Use:   "merge <input>...",
		Short: "Merge multiple documents",
		Long:  "Merge multiple documents. Concat expects arrays; shallow and deep expect objects.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]any, 0, len(args))
			for _, input := range args {
				doc, err := a.loadDocument(input, inputFormat(cmd))
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}

			switch mode {
			case "concat":
				var arrays [][]any
				for _, doc := range docs {
					if arr, ok := doc.([]any); ok {
						arrays = append(arrays, arr)
					}
				}
				merged, err := mergeArrays(arrays, uniqueBy)
				if err != nil {
					return err
				}
				return a.writeJSON(merged)
			case "shallow":
				merged := value.NewObject()
				for _, doc := range docs {
					if obj, ok := doc.(*value.Object); ok {
						for k, v := range obj.All() {
							merged.Set(k, v)
						}
					}
				}
				return a.writeJSON(merged)
			case "deep":
				var merged any = value.NewObject()
				for _, doc := range docs {
					if obj, ok := doc.(*value.Object); ok {
						merged = deepMerge(merged, obj)
					}
				}
				return a.writeJSON(merged)
			default:
				return fmt.Errorf("unknown merge mode %q", mode)
			}
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "concat", "merge mode: concat, shallow or deep")
	cmd.Flags().StringVar(&uniqueBy, "unique-by", "", "field path used to deduplicate in concat mode")
	return cmd
}

func mergeArrays(arrays [][]any, uniqueBy string) ([]any, error) {
	combined := []any{}
	for _, arr := range arrays {
		combined = append(combined, arr...)
	}
	if uniqueBy == "" {
		return combined, nil
	}

	expr, err := path.Compile(uniqueBy)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	deduped := make([]any, 0, len(combined))
	for _, item := range combined {
		token := value.Canonical(extractor.First(item, expr, nil))
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		deduped = append(deduped, item)
	}
	return deduped, nil
}

// deepMerge combines two values: objects merge per key, arrays
// concatenate, anything else takes the right side.
func deepMerge(left, right any) any {
	if lo, ok := left.(*value.Object); ok {
		if ro, ok := right.(*value.Object); ok {
			merged := value.NewObject()
			for k, v := range lo.All() {
				merged.Set(k, v)
			}
			for k, v := range ro.All() {
				if existing, ok := merged.Get(k); ok {
					merged.Set(k, deepMerge(existing, v))
					continue
				}
				merged.Set(k, v)
			}
			return merged
		}
	}
	if la, ok := left.([]any); ok {
		if ra, ok := right.([]any); ok {
			out := make([]any, 0, len(la)+len(ra))
			out = append(out, la...)
			return append(out, ra...)
		}
	}
	return right
}

func (a *App) jsonTransformCmd() *cobra.Command {
	var (
		to         string
		fromFormat string
		arrayPath  string
		columnsRaw string
	)
	cmd := &cobra.Command{
		Use:   "transform [input]",
		Short: "Convert between JSON, CSV and JSONL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := inputArg(args)

			if fromFormat == "csv" {
				table, err := csvio.Load(input, csvio.Options{Delimiter: ','})
				if err != nil {
					return err
				}
				return a.writeJSON(tableToRecords(table))
			}

			doc, err := a.loadDocument(input, inputFormat(cmd))
			if err != nil {
				return err
			}
			if arrayPath != "" {
				resolved, err := extractor.ResolveArray(doc, arrayPath)
				if err != nil {
					return err
				}
				if len(resolved) > 0 {
					doc = resolved
				}
			}

			switch to {
			case "csv":
				rows, ok := doc.([]any)
				if !ok {
					rows = []any{doc}
				}
				columns, cells := flattenToCells(rows, splitFields(columnsRaw))
				return csvio.Write(a.stdout, columns, cells, ',')
			case "jsonl":
				rows, ok := doc.([]any)
				if !ok {
					rows = []any{doc}
				}
				for _, row := range rows {
					raw, err := json.Marshal(row)
					if err != nil {
						return fmt.Errorf("encode row: %w", err)
					}
					if _, err := fmt.Fprintf(a.stdout, "%s\n", raw); err != nil {
						return err
					}
				}
				return nil
			case "":
				return a.writeJSON(doc)
			default:
				return fmt.Errorf("unknown target format %q", to)
			}
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "convert the input to csv or jsonl")
	cmd.Flags().StringVar(&fromFormat, "from-format", "", "treat the input as csv and convert it to JSON")
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to the array to convert")
	cmd.Flags().StringVar(&columnsRaw, "columns", "", "comma-separated output columns for csv")
	return cmd
}

func tableToRecords(table *csvio.Table) []any {
	out := make([]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := value.NewObject()
		for _, col := range table.Columns {
			record.Set(col, row[col])
		}
		out = append(out, record)
	}
	return out
}

// flattenToCells flattens every row into dotted-key cells. Columns
// default to the sorted union of flattened keys.
func flattenToCells(rows []any, columns []string) ([]string, []map[string]string) {
	flattened := make([]map[string]any, len(rows))
	for i, row := range rows {
		switch row.(type) {
		case *value.Object, []any:
			flattened[i] = flatten.Flatten(row, ".", flatten.ModeIndex)
		default:
			flattened[i] = map[string]any{"value": row}
		}
	}

	if len(columns) == 0 {
		set := make(map[string]struct{})
		for _, row := range flattened {
			for k := range row {
				set[k] = struct{}{}
			}
		}
		for k := range set {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	cells := make([]map[string]string, len(flattened))
	for i, row := range flattened {
		cell := make(map[string]string, len(row))
		for k, v := range row {
			if v == nil {
				continue
			}
			cell[k] = value.Display(v)
		}
		cells[i] = cell
	}
	return columns, cells
}
