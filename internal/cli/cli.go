// Package cli wires the rt command tree: `rt json <tool>` for JSON and
// YAML documents, `rt csv <tool>` for delimited text.
package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yzaremba/rt/internal/aggregate"
	"github.com/yzaremba/rt/internal/csvio"
	"github.com/yzaremba/rt/internal/document"
	"github.com/yzaremba/rt/internal/exit"
	"github.com/yzaremba/rt/internal/extractor"
	"github.com/yzaremba/rt/internal/flatten"
	"github.com/yzaremba/rt/internal/output"
	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/predicate"
)

// App carries the streams and logger shared by every command.
type App struct {
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger

	verbose bool
	compact bool
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	app := &App{stdout: os.Stdout, stderr: os.Stderr, logger: zap.NewNop()}
	root := app.Root()
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		result := exit.Errorf("rt: %v\n", err)
		if isUsageError(err) {
			result = exit.Usage("rt: " + err.Error() + "\n")
		}
		result.Print()
		return result.ExitCode
	}
	return 0
}

// Root builds the command tree.
func (a *App) Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "rt",
		Short:         "Record toolkit for JSON, YAML and CSV data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.initLogger()
		},
	}
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging on stderr")
	root.PersistentFlags().BoolVar(&a.compact, "compact", false, "emit compact JSON output")

	root.AddCommand(a.jsonCommand())
	root.AddCommand(a.csvCommand())
	return root
}

func (a *App) initLogger() {
	if !a.verbose {
		a.logger = zap.NewNop()
		return
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		a.logger = zap.NewNop()
		return
	}
	a.logger = logger
}

func (a *App) writeJSON(v any) error {
	return output.WriteJSON(a.stdout, v, a.compact)
}

// inputArg returns the positional input path, "-" when absent.
func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// loadDocument reads a JSON or YAML document; format "" auto-detects
// from the file extension.
func (a *App) loadDocument(pathArg, format string) (any, error) {
	var f document.Format
	switch format {
	case "yaml":
		f = document.FormatYAML
	case "json":
		f = document.FormatJSON
	default:
		f = document.DetectFormat(pathArg)
	}
	a.logger.Debug("loading document", zap.String("path", pathArg), zap.String("format", string(f)))
	return document.Load(pathArg, f)
}

// records resolves the record set of a document: the array at arrayPath,
// the document itself when it is an array, or the whole document as a
// single record.
func records(doc any, arrayPath string) ([]any, error) {
	rows, err := extractor.ResolveArray(doc, arrayPath)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if arr, ok := doc.([]any); ok {
			return arr, nil
		}
		return []any{doc}, nil
	}
	return rows, nil
}

func isUsageError(err error) bool {
	for _, target := range []error{
		path.ErrInvalidPath,
		predicate.ErrInvalidExpression,
		predicate.ErrInvalidRegex,
		aggregate.ErrInvalidSpec,
		csvio.ErrInvalidDelimiter,
		flatten.ErrInvalidArrayMode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func splitFields(raw string) []string {
	var out []string
	for _, field := range strings.Split(raw, ",") {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}
