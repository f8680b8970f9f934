package cli

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/theory/jsonpath"
	"go.uber.org/zap"

	"github.com/yzaremba/rt/internal/aggregate"
	"github.com/yzaremba/rt/internal/diff"
	"github.com/yzaremba/rt/internal/document"
	"github.com/yzaremba/rt/internal/extractor"
	"github.com/yzaremba/rt/internal/flatten"
	"github.com/yzaremba/rt/internal/output"
	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/predicate"
	"github.com/yzaremba/rt/internal/schema"
	"github.com/yzaremba/rt/internal/value"
)

func (a *App) jsonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Inspect and reshape JSON or YAML documents",
	}
	cmd.PersistentFlags().String("input-format", "", "force input format: json or yaml (default: by extension)")

	cmd.AddCommand(
		a.jsonProbeCmd(),
		a.jsonValidateCmd(),
		a.jsonExtractCmd(),
		a.jsonFilterCmd(),
		a.jsonGroupCmd(),
		a.jsonSortCmd(),
		a.jsonStatsCmd(),
		a.jsonFlattenCmd(),
		a.jsonSchemaCmd(),
		a.jsonDiffCmd(),
		a.jsonMergeCmd(),
		a.jsonTransformCmd(),
		a.jsonReverseCmd(),
	)
	return cmd
}

func inputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("input-format")
	return format
}

func (a *App) jsonProbeCmd() *cobra.Command {
	var sample int
	cmd := &cobra.Command{
		Use:   "probe [input]",
		Short: "Detect document layout and recommend an array path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := inputArg(args)
			text, err := document.ReadText(input)
			if err != nil {
				return err
			}
			sizeBytes := int64(len(text))

			format := inputFormat(cmd)
			if format == "" {
				format = string(document.DetectFormat(input))
			}
			doc, err := document.Decode(strings.NewReader(text), document.Format(format))
			if err != nil {
				invalid := value.NewObject()
				invalid.Set("valid", false)
				invalid.Set("error", err.Error())
				invalid.Set("size_bytes", sizeBytes)
				return a.writeJSON(invalid)
			}

			layout := detectLayout(doc)
			a.logger.Debug("layout detected",
				zap.String("layout", layout.name),
				zap.Int("records", len(layout.records)))

			result := value.NewObject()
			result.Set("valid", true)
			result.Set("top_level_type", value.TypeName(doc))
			result.Set("layout", layout.name)
			result.Set("record_count", layout.recordCount)
			result.Set("recommended_array_path", layout.recommendedPath)
			result.Set("size_bytes", sizeBytes)
			if layout.sampleKeys != nil {
				result.Set("sample_keys", layout.sampleKeys)
			}
			if layout.topLevelFields != nil {
				result.Set("top_level_fields", layout.topLevelFields)
			}

			fields := recordFields(layout.records, sample)
			result.Set("record_fields", fields)
			if len(fields) > 0 {
				result.Set("field_types", recordFieldTypes(layout.records, fields, sample))
			}
			return a.writeJSON(result)
		},
	}
	cmd.Flags().IntVar(&sample, "sample", 20, "number of records to sample for field discovery")
	return cmd
}

type layoutInfo struct {
	name            string
	recordCount     int64
	recommendedPath any
	records         []any
	sampleKeys      []any
	topLevelFields  []any
}

// detectLayout classifies the document shape: a top-level array, an
// object whose values are mostly records, an object with a prominent
// array child, a plain object, or a scalar.
func detectLayout(doc any) layoutInfo {
	switch d := doc.(type) {
	case []any:
		return layoutInfo{name: "array", recordCount: int64(len(d)), records: d}
	case *value.Object:
		values := d.Values()
		objectCount := 0
		for _, v := range values {
			if _, ok := v.(*value.Object); ok {
				objectCount++
			}
		}
		if len(values) > 0 && float64(objectCount)/float64(len(values)) >= 0.8 {
			keys := d.Keys()
			if len(keys) > 10 {
				keys = keys[:10]
			}
			return layoutInfo{
				name:            "object-of-objects",
				recordCount:     int64(len(values)),
				recommendedPath: ".",
				records:         values,
				sampleKeys:      toAnySlice(keys),
			}
		}

		bestKey, bestArr := "", []any(nil)
		for k, v := range d.All() {
			if arr, ok := v.([]any); ok && len(arr) > len(bestArr) {
				bestKey, bestArr = k, arr
			}
		}
		if bestKey != "" && len(bestArr) > 0 {
			return layoutInfo{
				name:            "nested-array",
				recordCount:     int64(len(bestArr)),
				recommendedPath: bestKey,
				records:         bestArr,
				topLevelFields:  sortedKeys(d),
			}
		}

		return layoutInfo{
			name:           "object",
			recordCount:    1,
			records:        []any{d},
			topLevelFields: sortedKeys(d),
		}
	default:
		return layoutInfo{name: "scalar"}
	}
}

func sortedKeys(obj *value.Object) []any {
	keys := obj.Keys()
	sort.Strings(keys)
	return toAnySlice(keys)
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// recordFields collects field names from up to sample object records,
// most frequent first with first appearance breaking ties.
func recordFields(records []any, sample int) []any {
	index := make(map[string]int)
	type entry struct {
		name  string
		count int
	}
	var entries []entry
	inspected := 0
	for _, record := range records {
		obj, ok := record.(*value.Object)
		if !ok {
			continue
		}
		for _, k := range obj.Keys() {
			if at, ok := index[k]; ok {
				entries[at].count++
				continue
			}
			index[k] = len(entries)
			entries = append(entries, entry{name: k, count: 1})
		}
		inspected++
		if inspected >= sample {
			break
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].count > entries[j].count })
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

func recordFieldTypes(records []any, fields []any, sample int) *value.Object {
	seen := make(map[string]map[string]struct{})
	inspected := 0
	for _, record := range records {
		obj, ok := record.(*value.Object)
		if !ok {
			continue
		}
		for _, f := range fields {
			name := f.(string)
			if v, ok := obj.Get(name); ok {
				if seen[name] == nil {
					seen[name] = make(map[string]struct{})
				}
				seen[name][value.TypeName(v)] = struct{}{}
			}
		}
		inspected++
		if inspected >= sample {
			break
		}
	}

	out := value.NewObject()
	for _, f := range fields {
		name := f.(string)
		types, ok := seen[name]
		if !ok {
			continue
		}
		names := make([]string, 0, len(types))
		for t := range types {
			names = append(names, t)
		}
		sort.Strings(names)
		out.Set(name, toAnySlice(names))
	}
	return out
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

func (a *App) jsonValidateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate [input]",
		Short: "Check syntax and report document diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := inputArg(args)
			text, err := document.ReadText(input)
			if err != nil {
				return err
			}

			warnings := []any{}
			format := inputFormat(cmd)
			if format == "" {
				format = string(document.DetectFormat(input))
			}
			if strict && format == "json" && trailingCommaRe.MatchString(text) {
				warnings = append(warnings, "Possible trailing comma detected.")
			}

			doc, err := document.Decode(strings.NewReader(text), document.Format(format))
			result := value.NewObject()
			if err != nil {
				result.Set("valid", false)
				result.Set("error", err.Error())
				result.Set("warnings", warnings)
				return a.writeJSON(result)
			}

			result.Set("valid", true)
			result.Set("top_level_type", value.TypeName(doc))
			result.Set("size_bytes", int64(len(text)))
			result.Set("warnings", warnings)
			switch d := doc.(type) {
			case []any:
				result.Set("record_count", int64(len(d)))
			case *value.Object:
				result.Set("field_count", int64(d.Len()))
			}
			return a.writeJSON(result)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "enable extra non-fatal checks")
	return cmd
}

func (a *App) jsonExtractCmd() *cobra.Command {
	var (
		arrayPath      string
		fieldsRaw      string
		first, last    int
		includeMissing bool
		jsonPathExpr   string
	)
	cmd := &cobra.Command{
		Use:   "extract [input]",
		Short: "Extract rows and fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(inputArg(args), inputFormat(cmd))
			if err != nil {
				return err
			}

			if jsonPathExpr != "" {
				p, err := jsonpath.Parse(jsonPathExpr)
				if err != nil {
					return fmt.Errorf("invalid jsonpath: %w", err)
				}
				matches := p.Select(value.Plain(doc))
				out := make([]any, len(matches))
				for i, m := range matches {
					out[i] = m
				}
				return a.writeJSON(out)
			}

			rows, err := records(doc, arrayPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("first") {
				rows = firstN(rows, first)
			}
			if cmd.Flags().Changed("last") {
				rows = lastN(rows, last)
			}

			fields := splitFields(fieldsRaw)
			if len(fields) == 0 {
				return a.writeJSON(rows)
			}

			exprs := make([]path.Expression, len(fields))
			for i, f := range fields {
				if exprs[i], err = path.Compile(f); err != nil {
					return err
				}
			}
			out := make([]any, 0, len(rows))
			for _, row := range rows {
				if _, ok := row.(*value.Object); !ok {
					wrapped := value.NewObject()
					wrapped.Set("_value", row)
					out = append(out, wrapped)
					continue
				}
				item := value.NewObject()
				for i, f := range fields {
					values := extractor.Extract(row, exprs[i])
					switch {
					case len(values) > 1:
						item.Set(f, values)
					case len(values) == 1:
						item.Set(f, values[0])
					case includeMissing:
						item.Set(f, nil)
					}
				}
				out = append(out, item)
			}
			return a.writeJSON(out)
		},
	}
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to the array to extract rows from")
	cmd.Flags().StringVar(&fieldsRaw, "fields", "", "comma-separated paths to extract from each row")
	cmd.Flags().IntVar(&first, "first", 0, "keep first N rows")
	cmd.Flags().IntVar(&last, "last", 0, "keep last N rows")
	cmd.Flags().BoolVar(&includeMissing, "include-missing", false, "include missing fields as null")
	cmd.Flags().StringVar(&jsonPathExpr, "jsonpath", "", "select values with a standard JSONPath expression instead")
	return cmd
}

func firstN(rows []any, n int) []any {
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}

func lastN(rows []any, n int) []any {
	if n < 0 {
		n = 0
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[len(rows)-n:]
}

func (a *App) jsonFilterCmd() *cobra.Command {
	var (
		arrayPath string
		where     []string
		exists    []string
		notExists []string
		typeSpecs []string
		contains  []string
		regexes   []string
		useOr     bool
	)
	cmd := &cobra.Command{
		Use:   "filter [input]",
		Short: "Filter records by field conditions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(inputArg(args), inputFormat(cmd))
			if err != nil {
				return err
			}
			rows, err := records(doc, arrayPath)
			if err != nil {
				return err
			}

			var preds []predicate.Predicate
			appendPred := func(p predicate.Predicate, err error) error {
				if err != nil {
					return err
				}
				preds = append(preds, p)
				return nil
			}
			for _, expr := range where {
				if err := appendPred(predicate.Where(expr)); err != nil {
					return err
				}
			}
			for _, p := range exists {
				if err := appendPred(predicate.Exists(p, false)); err != nil {
					return err
				}
			}
			for _, p := range notExists {
				if err := appendPred(predicate.Exists(p, true)); err != nil {
					return err
				}
			}
			for _, spec := range typeSpecs {
				if err := appendPred(predicate.TypeIs(spec)); err != nil {
					return err
				}
			}
			for _, spec := range contains {
				if err := appendPred(predicate.Contains(spec)); err != nil {
					return err
				}
			}
			for _, spec := range regexes {
				if err := appendPred(predicate.Regex(spec)); err != nil {
					return err
				}
			}

			combined := predicate.Combine(preds, useOr)
			filtered := make([]any, 0, len(rows))
			for _, row := range rows {
				if combined(row) {
					filtered = append(filtered, row)
				}
			}
			a.logger.Debug("filtered records",
				zap.Int("in", len(rows)), zap.Int("out", len(filtered)))
			return a.writeJSON(filtered)
		},
	}
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to the array to filter")
	cmd.Flags().StringArrayVar(&where, "where", nil, `comparison expression, e.g. "age>=21"`)
	cmd.Flags().StringArrayVar(&exists, "exists", nil, "keep rows where path exists")
	cmd.Flags().StringArrayVar(&notExists, "not-exists", nil, "keep rows where path does not exist")
	cmd.Flags().StringArrayVar(&typeSpecs, "type", nil, "type condition field=typename")
	cmd.Flags().StringArrayVar(&contains, "contains", nil, "field:substring condition")
	cmd.Flags().StringArrayVar(&regexes, "regex", nil, "field:pattern condition")
	cmd.Flags().BoolVar(&useOr, "or", false, "combine conditions with OR instead of AND")
	return cmd
}

func (a *App) jsonGroupCmd() *cobra.Command {
	var (
		arrayPath string
		by        string
		aggsRaw   []string
		sortMode  string
		top       int
	)
	cmd := &cobra.Command{
		Use:   "group [input]",
		Short: "Group records with optional aggregations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(inputArg(args), inputFormat(cmd))
			if err != nil {
				return err
			}
			rows, err := records(doc, arrayPath)
			if err != nil {
				return err
			}

			specs := make([]aggregate.Spec, 0, len(aggsRaw))
			for _, raw := range aggsRaw {
				spec, err := aggregate.ParseSpec(raw)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}

			result, err := aggregate.GroupRecords(rows, splitFields(by), specs, sortMode)
			if err != nil {
				return err
			}
			groups := result.Groups
			if cmd.Flags().Changed("top") {
				groups = aggregate.Limit(groups, top)
			}

			out := value.NewObject()
			out.Set("total_records", int64(result.TotalRecords))
			out.Set("total_groups", int64(result.TotalGroups))
			out.Set("groups", groupsToAny(groups))
			return a.writeJSON(out)
		},
	}
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to the array to group")
	cmd.Flags().StringVar(&by, "by", "", "comma-separated fields to group by")
	cmd.Flags().StringArrayVar(&aggsRaw, "agg", nil, "aggregation spec: count or field:func")
	cmd.Flags().StringVar(&sortMode, "sort", "count", "sort groups by count (desc) or key (asc)")
	cmd.Flags().IntVar(&top, "top", 0, "limit output to top N groups")
	cmd.MarkFlagRequired("by")
	return cmd
}

func groupsToAny(groups []*value.Object) []any {
	out := make([]any, len(groups))
	for i, g := range groups {
		out[i] = g
	}
	return out
}

func (a *App) jsonSortCmd() *cobra.Command {
	var (
		arrayPath string
		by        string
		desc      bool
		numeric   bool
	)
	cmd := &cobra.Command{
		Use:   "sort [input]",
		Short: "Sort records by one or more fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(inputArg(args), inputFormat(cmd))
			if err != nil {
				return err
			}
			rows, err := records(doc, arrayPath)
			if err != nil {
				return err
			}
			sorted, err := aggregate.SortRecords(rows, splitFields(by), numeric, desc)
			if err != nil {
				return err
			}
			return a.writeJSON(sorted)
		},
	}
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to the array to sort")
	cmd.Flags().StringVar(&by, "by", "", "comma-separated sort fields")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&numeric, "numeric", false, "use numeric sorting semantics")
	cmd.MarkFlagRequired("by")
	return cmd
}

func (a *App) jsonStatsCmd() *cobra.Command {
	var (
		arrayPath string
		fieldsRaw string
		top       int
	)
	cmd := &cobra.Command{
		Use:   "stats [input]",
		Short: "Summarize fields across records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(inputArg(args), inputFormat(cmd))
			if err != nil {
				return err
			}
			rows, err := records(doc, arrayPath)
			if err != nil {
				return err
			}

			fields := splitFields(fieldsRaw)
			if len(fields) == 0 {
				fields = aggregate.DefaultFields(rows)
			}

			fieldStats := value.NewObject()
			for _, field := range fields {
				entry, err := aggregate.FieldStats(rows, field, top)
				if err != nil {
					return err
				}
				fieldStats.Set(field, entry)
			}

			result := value.NewObject()
			result.Set("record_count", int64(len(rows)))
			result.Set("field_count", int64(len(fields)))
			result.Set("fields", fieldStats)
			return a.writeJSON(result)
		},
	}
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to the array to analyze")
	cmd.Flags().StringVar(&fieldsRaw, "fields", "", "comma-separated field paths to analyze")
	cmd.Flags().IntVar(&top, "top", 10, "top N frequent values to include")
	return cmd
}

func (a *App) jsonFlattenCmd() *cobra.Command {
	var (
		arrayPath string
		separator string
		arrayMode string
	)
	cmd := &cobra.Command{
		Use:   "flatten [input]",
		Short: "Flatten nested structures into dotted keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(inputArg(args), inputFormat(cmd))
			if err != nil {
				return err
			}
			mode, err := flatten.ParseArrayMode(arrayMode)
			if err != nil {
				return err
			}

			target := doc
			if arrayPath != "" {
				resolved, err := extractor.ResolveArray(doc, arrayPath)
				if err != nil {
					return err
				}
				if len(resolved) > 0 {
					target = resolved
				}
			}

			if arr, ok := target.([]any); ok {
				out := make([]any, len(arr))
				for i, item := range arr {
					out[i] = flatten.Flatten(item, separator, mode)
				}
				return a.writeJSON(out)
			}
			return a.writeJSON(flatten.Flatten(target, separator, mode))
		},
	}
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to array or value to flatten")
	cmd.Flags().StringVar(&separator, "separator", ".", "separator used in flattened keys")
	cmd.Flags().StringVar(&arrayMode, "array-mode", "index", "array handling: index, ignore or expand")
	return cmd
}

func (a *App) jsonSchemaCmd() *cobra.Command {
	var (
		arrayPath string
		depth     int
		counts    bool
	)
	cmd := &cobra.Command{
		Use:   "schema [input]",
		Short: "Infer a practical schema summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(inputArg(args), inputFormat(cmd))
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
			return a.writeJSON(schema.Infer(doc, depth, counts))
		},
	}
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to an array to summarize")
	cmd.Flags().IntVar(&depth, "depth", 6, "maximum nesting depth to inspect")
	cmd.Flags().BoolVar(&counts, "counts", false, "include field presence and count metadata")
	return cmd
}

func (a *App) jsonDiffCmd() *cobra.Command {
	var (
		ignoreOrder bool
		format      string
	)
	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Compare two documents structurally",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := a.loadDocument(args[0], inputFormat(cmd))
			if err != nil {
				return err
			}
			right, err := a.loadDocument(args[1], inputFormat(cmd))
			if err != nil {
				return err
			}

			changes := diff.Diff(left, right, ignoreOrder)
			if format == "text" {
				return output.WriteDiffText(a.stdout, changes, output.ColorEnabled(a.stdout))
			}

			list := make([]any, len(changes))
			for i := range changes {
				list[i] = changes[i]
			}
			result := value.NewObject()
			result.Set("change_count", int64(len(changes)))
			result.Set("changes", list)
			return a.writeJSON(result)
		},
	}
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "treat arrays as unordered multisets")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or text")
	return cmd
}

func (a *App) jsonReverseCmd() *cobra.Command {
	var arrayPath string
	cmd := &cobra.Command{
		Use:   "reverse [input]",
		Short: "Reverse the order of array entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(inputArg(args), inputFormat(cmd))
			if err != nil {
				return err
			}
			rows, err := records(doc, arrayPath)
			if err != nil {
				return err
			}
			reversed := make([]any, len(rows))
			for i, row := range rows {
				reversed[len(rows)-1-i] = row
			}
			return a.writeJSON(reversed)
		},
	}
	cmd.Flags().StringVar(&arrayPath, "array-path", "", "path to the array to reverse")
	return cmd
}
