package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yzaremba/rt/internal/aggregate"
	"github.com/yzaremba/rt/internal/csvio"
	"github.com/yzaremba/rt/internal/document"
	"github.com/yzaremba/rt/internal/output"
	"github.com/yzaremba/rt/internal/predicate"
	"github.com/yzaremba/rt/internal/value"
)

func (a *App) csvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Inspect and reshape delimited text files",
	}
	cmd.PersistentFlags().String("delimiter", ",", `field delimiter; use \t or tab for tabs`)
	cmd.PersistentFlags().Bool("no-header", false, "first row is data; columns become col0, col1, ...")
	cmd.PersistentFlags().Int("skip-lines", 0, "skip this many preamble lines; the next line is the header")
	cmd.PersistentFlags().String("comment-char", "", "skip lines starting with this prefix")

	cmd.AddCommand(
		a.csvProbeCmd(),
		a.csvValidateCmd(),
		a.csvExtractCmd(),
		a.csvFilterCmd(),
		a.csvGroupCmd(),
		a.csvSortCmd(),
		a.csvStatsCmd(),
		a.csvSchemaCmd(),
		a.csvDiffCmd(),
		a.csvMergeCmd(),
		a.csvTransformCmd(),
		a.csvReverseCmd(),
	)
	return cmd
}

// csvOptions builds parse options from the shared dialect flags. With
// autoDetect the delimiter is sniffed unless the flag was given.
func csvOptions(cmd *cobra.Command, autoDetect bool) (csvio.Options, error) {
	var opts csvio.Options
	raw, _ := cmd.Flags().GetString("delimiter")
	if autoDetect && !cmd.Flags().Changed("delimiter") {
		opts.Delimiter = 0
	} else {
		delim, err := csvio.ParseDelimiter(raw)
		if err != nil {
			return opts, err
		}
		opts.Delimiter = delim
	}
	opts.NoHeader, _ = cmd.Flags().GetBool("no-header")
	opts.SkipLines, _ = cmd.Flags().GetInt("skip-lines")
	opts.CommentPrefix, _ = cmd.Flags().GetString("comment-char")
	return opts, nil
}

func (a *App) loadTable(cmd *cobra.Command, pathArg string) (*csvio.Table, error) {
	opts, err := csvOptions(cmd, false)
	if err != nil {
		return nil, err
	}
	table, err := csvio.Load(pathArg, opts)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded table",
		zap.String("path", pathArg),
		zap.Int("columns", len(table.Columns)),
		zap.Int("rows", len(table.Rows)))
	return table, nil
}

// writeRows emits rows as CSV or as a JSON array of column-ordered
// objects.
func (a *App) writeRows(columns []string, rows []map[string]string, delimiter rune, format string) error {
	if format == "json" {
		return a.writeJSON(rowObjects(columns, rows))
	}
	return csvio.Write(a.stdout, columns, rows, delimiter)
}

func rowObjects(columns []string, rows []map[string]string) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		obj := value.NewObject()
		for _, col := range columns {
			obj.Set(col, row[col])
		}
		out[i] = obj
	}
	return out
}

// restrictToColumns keeps only the requested names that exist, falling
// back to fallback when none survive.
func restrictToColumns(requested, columns, fallback []string) []string {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}
	var out []string
	for _, c := range requested {
		if _, ok := known[c]; ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (a *App) csvProbeCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "probe [input]",
		Short: "Detect delimiter, header position and columns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := inputArg(args)
			text, err := document.ReadText(input)
			if err != nil {
				return err
			}
			opts, err := csvOptions(cmd, true)
			if err != nil {
				return err
			}
			table, err := csvio.Parse(text, opts)
			if err != nil {
				return err
			}

			sample := value.NewObject()
			if len(table.Rows) > 0 {
				for _, col := range table.Columns {
					sample.Set(col, table.Rows[0][col])
				}
			}
			if format == "table" {
				rows := make([][]string, len(table.Columns))
				for i, col := range table.Columns {
					cell := ""
					if len(table.Rows) > 0 {
						cell = table.Rows[0][col]
					}
					rows[i] = []string{col, cell}
				}
				output.WriteTable(a.stdout, []string{"column", "sample"}, rows)
				return nil
			}
			result := value.NewObject()
			result.Set("valid", true)
			result.Set("delimiter", string(table.Delimiter))
			result.Set("has_header", !opts.NoHeader)
			result.Set("header_row", int64(table.HeaderRow))
			result.Set("record_count", int64(len(table.Rows)))
			result.Set("columns", toAnySlice(table.Columns))
			result.Set("size_bytes", int64(len(text)))
			result.Set("sample_row", sample)
			return a.writeJSON(result)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or table")
	return cmd
}

func (a *App) csvValidateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate [input]",
		Short: "Check column-count consistency",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := inputArg(args)
			text, err := document.ReadText(input)
			if err != nil {
				return err
			}
			opts, err := csvOptions(cmd, false)
			if err != nil {
				return err
			}

			report := csvio.Validate(text, opts)
			result := value.NewObject()
			if report.Empty {
				result.Set("valid", true)
				result.Set("record_count", int64(0))
				result.Set("message", "empty file")
				return a.writeJSON(result)
			}

			valid := report.SkippedRows == 0 || !strict
			result.Set("valid", valid)
			result.Set("record_count", int64(report.RecordCount))
			result.Set("skipped_rows", int64(report.SkippedRows))
			result.Set("expected_columns", int64(report.ExpectedColumns))
			result.Set("size_bytes", int64(len(text)))
			if !valid {
				result.Set("error", fmt.Sprintf(
					"Inconsistent column count: %d row(s) skipped (footer/comment lines).",
					report.SkippedRows))
			}
			return a.writeJSON(result)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on inconsistent column counts")
	return cmd
}

func (a *App) csvExtractCmd() *cobra.Command {
	var (
		fieldsRaw   string
		first, last int
		format      string
	)
	cmd := &cobra.Command{
		Use:   "extract [input]",
		Short: "Extract columns and row ranges",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.loadTable(cmd, inputArg(args))
			if err != nil {
				return err
			}
			columns := restrictToColumns(splitFields(fieldsRaw), table.Columns, table.Columns)

			rows := table.Rows
			if cmd.Flags().Changed("first") {
				rows = firstRows(rows, first)
			}
			if cmd.Flags().Changed("last") {
				rows = lastRows(rows, last)
			}
			return a.writeRows(columns, rows, table.Delimiter, format)
		},
	}
	cmd.Flags().StringVar(&fieldsRaw, "fields", "", "comma-separated columns to output (default: all)")
	cmd.Flags().IntVar(&first, "first", 0, "keep first N data rows")
	cmd.Flags().IntVar(&last, "last", 0, "keep last N data rows")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	return cmd
}

func firstRows(rows []map[string]string, n int) []map[string]string {
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}

func lastRows(rows []map[string]string, n int) []map[string]string {
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[len(rows)-n:]
}

func (a *App) csvFilterCmd() *cobra.Command {
	var (
		where    []string
		inSpec   string
		contains []string
		regexes  []string
		empty    []string
		nonEmpty []string
		useOr    bool
		format   string
	)
	cmd := &cobra.Command{
		Use:   "filter [input]",
		Short: "Filter rows by cell conditions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.loadTable(cmd, inputArg(args))
			if err != nil {
				return err
			}

			var preds []predicate.RowPredicate
			for _, expr := range where {
				p, err := predicate.CellWhere(expr)
				if err != nil {
					return err
				}
				preds = append(preds, p)
			}
			if inSpec != "" {
				p, err := predicate.CellIn(inSpec)
				if err != nil {
					return err
				}
				preds = append(preds, p)
			}
			for _, spec := range contains {
				p, err := predicate.CellContains(spec)
				if err != nil {
					return err
				}
				preds = append(preds, p)
			}
			for _, spec := range regexes {
				p, err := predicate.CellRegex(spec)
				if err != nil {
					return err
				}
				preds = append(preds, p)
			}
			for _, col := range empty {
				preds = append(preds, predicate.CellEmpty(col, false))
			}
			for _, col := range nonEmpty {
				preds = append(preds, predicate.CellEmpty(col, true))
			}

			combined := predicate.CombineRows(preds, useOr)
			filtered := make([]map[string]string, 0, len(table.Rows))
			for _, row := range table.Rows {
				if combined(row) {
					filtered = append(filtered, row)
				}
			}
			return a.writeRows(table.Columns, filtered, table.Delimiter, format)
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, `lexicographic comparison, e.g. "status==active"`)
	cmd.Flags().StringVar(&inSpec, "in", "", "column:v1,v2 keeps rows whose column is in the set")
	cmd.Flags().StringArrayVar(&contains, "contains", nil, "column:substring condition")
	cmd.Flags().StringArrayVar(&regexes, "regex", nil, "column:pattern condition")
	cmd.Flags().StringArrayVar(&empty, "empty", nil, "column must be empty or missing")
	cmd.Flags().StringArrayVar(&nonEmpty, "non-empty", nil, "column must be non-empty")
	cmd.Flags().BoolVar(&useOr, "or", false, "combine conditions with OR instead of AND")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	return cmd
}

func (a *App) csvGroupCmd() *cobra.Command {
	var (
		by       string
		aggsRaw  []string
		sortMode string
		top      int
		format   string
	)
	cmd := &cobra.Command{
		Use:   "group [input]",
		Short: "Group rows by columns with optional aggregations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.loadTable(cmd, inputArg(args))
			if err != nil {
				return err
			}
			byFields := restrictToColumns(splitFields(by), table.Columns, firstColumn(table.Columns))

			specs := make([]aggregate.Spec, 0, len(aggsRaw))
			for _, raw := range aggsRaw {
				spec, err := aggregate.ParseSpec(raw)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}

			result := aggregate.GroupRows(table.Rows, byFields, specs, sortMode)
			groups := result.Groups
			if cmd.Flags().Changed("top") {
				groups = aggregate.Limit(groups, top)
			}

			if format == "table" {
				writeGroupTable(a.stdout, groups)
				return nil
			}
			out := value.NewObject()
			out.Set("total_records", int64(result.TotalRecords))
			out.Set("total_groups", int64(result.TotalGroups))
			out.Set("groups", groupsToAny(groups))
			return a.writeJSON(out)
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "comma-separated columns to group by")
	cmd.Flags().StringArrayVar(&aggsRaw, "agg", nil, "aggregation spec field:func")
	cmd.Flags().StringVar(&sortMode, "sort", "count", "sort groups by count (desc) or key (asc)")
	cmd.Flags().IntVar(&top, "top", 0, "limit output to top N groups")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or table")
	cmd.MarkFlagRequired("by")
	return cmd
}

func firstColumn(columns []string) []string {
	if len(columns) == 0 {
		return nil
	}
	return columns[:1]
}

func writeGroupTable(w io.Writer, groups []*value.Object) {
	if len(groups) == 0 {
		output.WriteTable(w, nil, nil)
		return
	}
	headers := groups[0].Keys()
	rows := make([][]string, len(groups))
	for i, g := range groups {
		row := make([]string, len(headers))
		for j, h := range headers {
			if v, ok := g.Get(h); ok && v != nil {
				row[j] = value.Display(v)
			}
		}
		rows[i] = row
	}
	output.WriteTable(w, headers, rows)
}

func (a *App) csvSortCmd() *cobra.Command {
	var (
		by      string
		desc    bool
		numeric bool
		format  string
	)
	cmd := &cobra.Command{
		Use:   "sort [input]",
		Short: "Sort rows by one or more columns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.loadTable(cmd, inputArg(args))
			if err != nil {
				return err
			}
			byFields := restrictToColumns(splitFields(by), table.Columns, firstColumn(table.Columns))
			sorted := aggregate.SortRows(table.Rows, byFields, numeric, desc)
			return a.writeRows(table.Columns, sorted, table.Delimiter, format)
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "comma-separated sort columns")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&numeric, "numeric", false, "compare cells as numbers")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	cmd.MarkFlagRequired("by")
	return cmd
}

func (a *App) csvStatsCmd() *cobra.Command {
	var (
		fieldsRaw string
		top       int
		format    string
	)
	cmd := &cobra.Command{
		Use:   "stats [input]",
		Short: "Per-column statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.loadTable(cmd, inputArg(args))
			if err != nil {
				return err
			}
			selected := restrictToColumns(splitFields(fieldsRaw), table.Columns, table.Columns)

			fieldStats := value.NewObject()
			for _, col := range selected {
				fieldStats.Set(col, aggregate.ColumnStats(table.Rows, col, top))
			}
			if format == "table" {
				writeStatsTable(a.stdout, selected, fieldStats)
				return nil
			}
			result := value.NewObject()
			result.Set("record_count", int64(len(table.Rows)))
			result.Set("field_count", int64(len(selected)))
			result.Set("fields", fieldStats)
			return a.writeJSON(result)
		},
	}
	cmd.Flags().StringVar(&fieldsRaw, "fields", "", "comma-separated columns to analyze (default: all)")
	cmd.Flags().IntVar(&top, "top", 10, "top N frequent values per column")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or table")
	return cmd
}

func writeStatsTable(w io.Writer, columns []string, fieldStats *value.Object) {
	rows := make([][]string, 0, len(columns))
	for _, col := range columns {
		v, _ := fieldStats.Get(col)
		entry := v.(*value.Object)
		row := []string{col, statCell(entry, "presence"), statCell(entry, "unique_values"), "", "", ""}
		if num, ok := entry.Get("numeric"); ok {
			if numObj, ok := num.(*value.Object); ok {
				row[3] = statCell(numObj, "min")
				row[4] = statCell(numObj, "max")
				row[5] = statCell(numObj, "mean")
			}
		}
		rows = append(rows, row)
	}
	output.WriteTable(w, []string{"column", "presence", "unique", "min", "max", "mean"}, rows)
}

func statCell(obj *value.Object, key string) string {
	v, ok := obj.Get(key)
	if !ok || v == nil {
		return ""
	}
	return value.Display(v)
}

func (a *App) csvSchemaCmd() *cobra.Command {
	var counts bool
	cmd := &cobra.Command{
		Use:   "schema [input]",
		Short: "Infer per-column cell types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.loadTable(cmd, inputArg(args))
			if err != nil {
				return err
			}

			fields := value.NewObject()
			for _, col := range table.Columns {
				typeCounts := make(map[string]int64)
				presence := 0
				for _, row := range table.Rows {
					cell := row[col]
					typeCounts[csvio.CellType(cell)]++
					if strings.TrimSpace(cell) != "" {
						presence++
					}
				}
				types := make([]string, 0, len(typeCounts))
				for t := range typeCounts {
					types = append(types, t)
				}
				sort.Strings(types)

				entry := value.NewObject()
				entry.Set("types", toAnySlice(types))
				if counts {
					entry.Set("presence", fmt.Sprintf("%d/%d", presence, len(table.Rows)))
					countsObj := value.NewObject()
					for _, t := range types {
						countsObj.Set(t, typeCounts[t])
					}
					entry.Set("type_counts", countsObj)
				}
				fields.Set(col, entry)
			}

			result := value.NewObject()
			result.Set("columns", toAnySlice(table.Columns))
			result.Set("record_count", int64(len(table.Rows)))
			result.Set("fields", fields)
			return a.writeJSON(result)
		},
	}
	cmd.Flags().BoolVar(&counts, "counts", false, "include presence and per-type counts")
	return cmd
}

func (a *App) csvDiffCmd() *cobra.Command {
	var (
		keyRaw string
		format string
	)
	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Compare two files row by row or by key columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := a.loadTable(cmd, args[0])
			if err != nil {
				return err
			}
			right, err := a.loadTable(cmd, args[1])
			if err != nil {
				return err
			}

			changes := diffTables(left, right, splitFields(keyRaw))
			if format == "text" {
				return writeRowDiffText(a.stdout, changes)
			}
			result := value.NewObject()
			result.Set("change_count", int64(len(changes)))
			result.Set("changes", rowChangeObjects(changes))
			return a.writeJSON(result)
		},
	}
	cmd.Flags().StringVar(&keyRaw, "key", "", "comma-separated key columns for row identity (default: row order)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or text")
	return cmd
}

func (a *App) csvMergeCmd() *cobra.Command {
	var (
		uniqueBy string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "merge <input>...",
		Short: "Concatenate files with optional deduplication",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := csvOptions(cmd, false)
			if err != nil {
				return err
			}

			var columns []string
			var rows []map[string]string
			for _, input := range args {
				table, err := csvio.Load(input, opts)
				if err != nil {
					return err
				}
				if columns == nil {
					columns = table.Columns
				}
				for _, row := range table.Rows {
					remapped := make(map[string]string, len(columns))
					for _, col := range columns {
						remapped[col] = row[col]
					}
					rows = append(rows, remapped)
				}
			}

			if uniqueBy != "" && containsString(columns, uniqueBy) {
				seen := make(map[string]struct{})
				deduped := rows[:0]
				for _, row := range rows {
					key := strings.TrimSpace(row[uniqueBy])
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
					deduped = append(deduped, row)
				}
				rows = deduped
			}
			return a.writeRows(columns, rows, opts.Delimiter, format)
		},
	}
	cmd.Flags().StringVar(&uniqueBy, "unique-by", "", "deduplicate by this column, keeping the first occurrence")
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	return cmd
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func (a *App) csvTransformCmd() *cobra.Command {
	var (
		fromFormat string
		to         string
	)
	cmd := &cobra.Command{
		Use:   "transform [input]",
		Short: "Convert between CSV, JSON and JSONL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := inputArg(args)
			opts, err := csvOptions(cmd, false)
			if err != nil {
				return err
			}

			inputIsJSON := fromFormat == "json" ||
				(input != "-" && strings.HasSuffix(input, ".json"))

			var columns []string
			var rows []any
			if inputIsJSON {
				doc, err := a.loadDocument(input, "json")
				if err != nil {
					return err
				}
				switch d := doc.(type) {
				case []any:
					rows = d
					if len(rows) > 0 {
						if obj, ok := rows[0].(*value.Object); ok {
							columns = obj.Keys()
						}
					}
				case *value.Object:
					rows = []any{d}
					columns = d.Keys()
				}
			} else {
				table, err := csvio.Load(input, opts)
				if err != nil {
					return err
				}
				columns = table.Columns
				rows = rowObjects(table.Columns, table.Rows)
			}

			target := to
			if target == "" {
				if inputIsJSON {
					target = "json"
				} else {
					target = "csv"
				}
			}

			switch target {
			case "json":
				return a.writeJSON(rows)
			case "jsonl":
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
			case "csv":
				cells := make([]map[string]string, 0, len(rows))
				for _, row := range rows {
					obj, ok := row.(*value.Object)
					if !ok {
						continue
					}
					cell := make(map[string]string, obj.Len())
					for k, v := range obj.All() {
						if v == nil {
							continue
						}
						cell[k] = value.Display(v)
					}
					cells = append(cells, cell)
				}
				return csvio.Write(a.stdout, columns, cells, opts.Delimiter)
			default:
				return fmt.Errorf("unknown target format %q", target)
			}
		},
	}
	cmd.Flags().StringVar(&fromFormat, "from-format", "", "input format: csv or json (default: by extension)")
	cmd.Flags().StringVar(&to, "to", "", "output format: json, jsonl or csv (default: same as input)")
	return cmd
}

func (a *App) csvReverseCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "reverse [input]",
		Short: "Reverse the order of data rows",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.loadTable(cmd, inputArg(args))
			if err != nil {
				return err
			}
			reversed := make([]map[string]string, len(table.Rows))
			for i, row := range table.Rows {
				reversed[len(table.Rows)-1-i] = row
			}
			return a.writeRows(table.Columns, reversed, table.Delimiter, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv or json")
	return cmd
}
