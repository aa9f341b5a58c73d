package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crosspost/crosspost/internal/output"
)

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

func outputExtension(format output.Format) string {
	switch format {
	case output.FormatJSON:
		return "json"
	case output.FormatYAML:
		return "yaml"
	case output.FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

var nonFilename = regexp.MustCompile(`[^a-z0-9._-]+`)

func sanitizeFilename(value string) string {
	clean := strings.ToLower(strings.TrimSpace(value))
	clean = nonFilename.ReplaceAllString(clean, "-")
	clean = strings.Trim(clean, "-.")
	if clean == "" {
		return "output"
	}
	return clean
}

// resolveOutputFormat reads --output-format, falling back to CROSSPOST_OUTPUT_FORMAT.
func resolveOutputFormat(cmd *cobra.Command) (output.Format, error) {
	if flag := cmd.Flags().Lookup("output-format"); flag != nil && flag.Changed {
		return output.ParseFormat(flag.Value.String())
	}
	return output.ParseFormat(viper.GetString("output.format"))
}

// addOutFlag registers --out on commands whose result is worth saving.
func addOutFlag(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "Write output to a file or directory (default stdout)")
}

// resolveOutPath turns --out into a file path. A directory (existing, or
// spelled with a trailing separator) receives <name>.<ext>.
func resolveOutPath(cmd *cobra.Command, name string, format output.Format) (string, error) {
	flag := cmd.Flags().Lookup("out")
	if flag == nil {
		return "", nil
	}
	target := strings.TrimSpace(flag.Value.String())
	if target == "" || target == "-" {
		return target, nil
	}

	isDir := strings.HasSuffix(target, string(os.PathSeparator)) || strings.HasSuffix(target, "/")
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		isDir = true
	}
	if !isDir {
		return target, nil
	}
	return filepath.Join(target, fmt.Sprintf("%s.%s", sanitizeFilename(name), outputExtension(format))), nil
}

func openSink(path string) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		return &outputSink{writer: os.Stdout, close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed) // #nosec G304 -- path chosen by the user via --out
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}

// writeResult renders through the command's output format and sink.
func writeResult(cmd *cobra.Command, name string, render func(output.Formatter) (string, error)) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	rendered, err := render(output.NewFormatter(format))
	if err != nil {
		return err
	}
	return emit(cmd, name, format, rendered)
}

// emit writes rendered to stdout or the --out target.
func emit(cmd *cobra.Command, name string, format output.Format, rendered string) error {
	path, err := resolveOutPath(cmd, name, format)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	}

	sink, err := openSink(path)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()
	_, err = fmt.Fprintln(sink.writer, rendered)
	return err
}
