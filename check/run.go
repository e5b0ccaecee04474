// Package check implements "check" command: finds stylesheets and lints them.
package check

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"isolint/archive"
	"isolint/common"
	"isolint/config"
	"isolint/lint"
	"isolint/state"
)

// ErrDiagnostics is returned by Run when at least one error severity
// diagnostic was reported.
var ErrDiagnostics = errors.New("stylesheets have errors")

// Flags returns "check" command flags, when set they take precedence over configuration.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"},
			Usage: "report `TYPE` (supported types: " + strings.Join(common.ReportFormatNames(), ", ") + ")"},
		&cli.IntFlag{Name: "max-z-index", Usage: "largest allowed z-index `VALUE` for z-index-range rule"},
		&cli.IntFlag{Name: "max-descendant-count", Usage: "largest allowed descendant `ESTIMATE` for high-descendant-count rule"},
	}
}

func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Logger().Named("check")

	if cmd.Args().Len() == 0 {
		return errors.New("no input source has been specified")
	}

	conf := &env.Cfg.Lint
	if err := applyOverrides(cmd, conf); err != nil {
		return err
	}

	linter, err := lint.NewLinter(conf.RuleSettings(), env.Logger(), lint.WithParentDisplay(conf.ParentDisplay))
	if err != nil {
		return fmt.Errorf("unable to prepare linter: %w", err)
	}

	log.Info("Processing starting",
		zap.Strings("sources", cmd.Args().Slice()), zap.Stringer("format", conf.Format), zap.Strings("rules", linter.Rules()))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	filter := archive.WithExtensions(conf.Extensions...)

	var sources []lint.Source
	for _, src := range cmd.Args().Slice() {
		found, err := discover(ctx, src, filter, log)
		if err != nil {
			return err
		}
		sources = append(sources, found...)
	}
	if len(sources) == 0 {
		log.Warn("Nothing to check", zap.Strings("sources", cmd.Args().Slice()))
	}

	results, err := linter.LintBatch(ctx, sources, conf.WorkersCount())
	if err != nil {
		return err
	}
	storeResults(env.Rpt, linter, results)

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}
	f := lint.Formatter{Format: conf.Format, RunID: env.RunID.String()}
	if file, ok := out.(*os.File); ok {
		f.Colored = config.EnableColorOutput(file)
	}
	if err := f.Write(out, results); err != nil {
		return fmt.Errorf("unable to write report: %w", err)
	}

	summary := lint.Summarize(results)
	log.Debug("Check summary",
		zap.Int("sources", summary.Sources), zap.Int("failed", summary.Failed),
		zap.Int("errors", summary.Errors), zap.Int("warnings", summary.Warnings))

	if summary.Errors > 0 {
		return ErrDiagnostics
	}
	return nil
}

// applyOverrides puts command line flags on top of loaded configuration.
func applyOverrides(cmd *cli.Command, conf *config.LintConfig) error {
	if cmd.IsSet("format") {
		format, err := common.ParseReportFormat(cmd.String("format"))
		if err != nil {
			return err
		}
		conf.Format = format
	}
	if cmd.IsSet("max-z-index") {
		if err := conf.SetRuleOption(lint.ZIndexRangeID, "maxZIndex", cmd.Int("max-z-index")); err != nil {
			return err
		}
	}
	if cmd.IsSet("max-descendant-count") {
		if err := conf.SetRuleOption(lint.HighDescendantCountID, "maxDescendantCount", cmd.Int("max-descendant-count")); err != nil {
			return err
		}
	}
	return nil
}

// discover determines input type (directory, archive with optional path
// inside, or single file) and returns stylesheets it refers to. Paths inside
// of every input are in natural order.
func discover(ctx context.Context, src string, filter archive.Filter, log *zap.Logger) ([]lint.Source, error) {
	var head, tail string
	for head = filepath.Clean(src); len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))
		if len(head) == 0 {
			break
		}

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return discoverDir(ctx, head, filter, log)
		}

		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			return nil, fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			inner := strings.TrimPrefix(strings.TrimPrefix(filepath.Clean(src), head), string(filepath.Separator))
			found, err := discoverArchive(ctx, head, filepath.ToSlash(inner), filter, log)
			if err != nil {
				return nil, fmt.Errorf("unable to process archive: %w", err)
			}
			return found, nil
		}

		if len(tail) != 0 {
			return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}
		// explicitly named files are checked regardless of extension
		return []lint.Source{fileSource(head)}, nil
	}
	return nil, fmt.Errorf("input source was not found (%s)", src)
}

// discoverDir walks directory tree finding stylesheets, symbolic links are not followed.
func discoverDir(ctx context.Context, dir string, filter archive.Filter, log *zap.Logger) ([]lint.Source, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !filter(path) {
			log.Debug("Skipping file, extension does not match", zap.String("file", path))
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		log.Debug("Nothing to check", zap.String("dir", dir))
	}

	sort.Sort(natural.StringSlice(paths))
	sources := make([]lint.Source, 0, len(paths))
	for _, path := range paths {
		sources = append(sources, fileSource(path))
	}
	return sources, nil
}

// discoverArchive finds stylesheets under "pathIn" inside of archive. Archive
// is closed when walk ends so content is read right away.
func discoverArchive(ctx context.Context, path, pathIn string, filter archive.Filter, log *zap.Logger) ([]lint.Source, error) {
	var sources []lint.Source
	err := archive.Walk(path, pathIn, filter, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := filepath.Join(arc, filepath.FromSlash(f.Name))
		data, err := readArchiveFile(f)
		if err != nil {
			log.Error("Unable to read file in archive, skipping",
				zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			sources = append(sources, lint.Source{Name: name, Open: func() (io.ReadCloser, error) { return nil, err }})
			return nil
		}
		sources = append(sources, lint.Source{Name: name, Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		log.Debug("Nothing to check", zap.String("archive", path), zap.String("path", pathIn))
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return natural.Less(sources[i].Name, sources[j].Name)
	})
	return sources, nil
}

func readArchiveFile(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func fileSource(path string) lint.Source {
	return lint.Source{Name: path, Open: func() (io.ReadCloser, error) { return os.Open(path) }}
}

// isArchiveFile looks at the file header only.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, 262)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(header[:n], "zip"), nil
}

// storeResults puts parsed trees and collected property maps into debug report.
func storeResults(rpt *config.Report, linter *lint.Linter, results []*lint.Result) {
	if rpt == nil {
		return
	}
	for i, res := range results {
		if res == nil || res.Sheet == nil {
			continue
		}
		dir := fmt.Sprintf("sources/%03d-%s", i+1, slug.Make(res.Source))
		rpt.StoreData(dir+"/tree.txt", []byte(res.Sheet.String()))
		rpt.StoreData(dir+"/maps.txt", []byte(linter.Collect(res.Sheet).Dump()))
	}
}
