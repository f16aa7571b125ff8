package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/application/reporting"
	"github.com/turtacn/LegisGraph/internal/bootstrap"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/intelligence/jurisdiction"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// batchSummary is what the batch commands print.
type batchSummary struct {
	RunID       string                   `json:"run_id"`
	Output      string                   `json:"output"`
	Total       int                      `json:"total"`
	Analyzed    int                      `json:"analyzed"`
	Empty       int                      `json:"empty"`
	FailedParse int                      `json:"failed_parse"`
	Skipped     int                      `json:"skipped"`
	Failed      int                      `json:"failed"`
	Errors      []pipeline.DocumentError `json:"errors,omitempty"`
}

func newBatchSummary(r *pipeline.BatchReport, out string) batchSummary {
	return batchSummary{
		RunID:       r.RunID,
		Output:      out,
		Total:       r.Total,
		Analyzed:    r.Analyzed,
		Empty:       r.Empty,
		FailedParse: r.FailedParse,
		Skipped:     r.Skipped,
		Failed:      r.Failed,
		Errors:      r.Errors,
	}
}

func (s batchSummary) TableHeaders() []string {
	return []string{"RUN", "TOTAL", "ANALYZED", "EMPTY", "FAILED_PARSE", "SKIPPED", "FAILED", "OUTPUT"}
}

func (s batchSummary) TableRows() [][]string {
	return [][]string{{
		s.RunID, strconv.Itoa(s.Total), strconv.Itoa(s.Analyzed), strconv.Itoa(s.Empty),
		strconv.Itoa(s.FailedParse), strconv.Itoa(s.Skipped), strconv.Itoa(s.Failed), s.Output,
	}}
}

// batchFlags are shared by the annual and consolidated commands.
type batchFlags struct {
	inputDir string
	out      string
}

func (f *batchFlags) register(cmd *cobra.Command, defaultName string) {
	cmd.Flags().StringVar(&f.inputDir, "input-dir", "", "directory of input documents (default: pipeline.input_dir)")
	cmd.Flags().StringVar(&f.out, "out", "", "output file; .csv or .xlsx (default: pipeline.output_dir/"+defaultName+".<pipeline.output_format>)")
}

func (f *batchFlags) resolve(cliCtx *CLIContext, defaultName string) (string, string) {
	in, out := f.inputDir, f.out
	if in == "" {
		in = cliCtx.Config.Pipeline.InputDir
	}
	if out == "" {
		out = filepath.Join(cliCtx.Config.Pipeline.OutputDir, defaultName+"."+cliCtx.Config.Pipeline.OutputFormat)
	}
	return in, out
}

// ─────────────────────────────────────────────────────────────────────────────
// annual
// ─────────────────────────────────────────────────────────────────────────────

// readAnnualDir decodes every JSON document in dir in name order.  Files
// whose names mark them as resolutions are left out.
func readAnnualDir(dir string) ([]*legislation.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "read input directory").WithDetail(dir)
	}
	var docs []*legislation.Document
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || strings.Contains(name, "resolution") {
			continue
		}
		doc, err := readDocument(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if doc.ID == "" {
			doc.ID = strings.TrimSuffix(name, ".json")
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// NewAnnualCmd runs the annual pipeline over a directory of documents and
// exports the results.
func NewAnnualCmd() *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "annual",
		Short: "Analyze a directory of session laws and export their statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			inputDir, out := flags.resolve(cliCtx, "out_annual")
			docs, err := readAnnualDir(inputDir)
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			cfg, log := cliCtx.Config, cliCtx.Logger
			infra, err := bootstrap.NewInfrastructure(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			defer infra.Close()

			analyzer, err := bootstrap.NewAnalyzer(cfg, log, nil)
			if err != nil {
				return err
			}
			defer analyzer.Close()

			svc, err := bootstrap.NewAnnualService(cfg, analyzer, infra, log, nil)
			if err != nil {
				return err
			}
			report, err := svc.RunBatch(ctx, docs)
			if err != nil {
				return err
			}
			rows := reporting.Analyzed(report.Results)
			if err := reporting.ExportFile(out, reporting.LayoutAnnual, rows); err != nil {
				return err
			}
			log.Info("annual export written", logging.String("path", out), logging.Int("rows", len(rows)))
			return PrintResult(cmd, newBatchSummary(report, out))
		},
	}
	flags.register(cmd, "out_annual")
	return cmd
}

// ─────────────────────────────────────────────────────────────────────────────
// consolidated
// ─────────────────────────────────────────────────────────────────────────────

// readConsolidatedDir reads <dir>/<title>/<chapter>_<year>.json files.
// Files whose names carry no chapter and year are ignored.
func readConsolidatedDir(dir string) ([]pipeline.ChapterVersion, error) {
	titles, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "read input directory").WithDetail(dir)
	}
	var versions []pipeline.ChapterVersion
	for _, t := range titles {
		if !t.IsDir() {
			continue
		}
		titleDir := filepath.Join(dir, t.Name())
		files, err := os.ReadDir(titleDir)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "read title directory").WithDetail(titleDir)
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
				continue
			}
			chapter, year, ok := pipeline.ParseChapterFile(f.Name())
			if !ok {
				continue
			}
			doc, err := readDocument(filepath.Join(titleDir, f.Name()))
			if err != nil {
				return nil, err
			}
			if doc.Title == "" {
				doc.Title = t.Name()
			}
			versions = append(versions, pipeline.ChapterVersion{Title: t.Name(), Chapter: chapter, Year: year, Doc: doc})
		}
	}
	return versions, nil
}

// NewConsolidatedCmd runs the consolidated-code pipeline over a directory of
// title folders and exports the results.
func NewConsolidatedCmd() *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "consolidated",
		Short: "Analyze chapter-year versions of a consolidated code and export their statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			inputDir, out := flags.resolve(cliCtx, "out_consolidated")
			versions, err := readConsolidatedDir(inputDir)
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.commandContext(cmd)
			defer cancel()

			cfg, log := cliCtx.Config, cliCtx.Logger
			if cfg.Pipeline.Jurisdiction != string(jurisdiction.KindUSConsolidated) {
				log.Debug("overriding jurisdiction for consolidated run", logging.String("configured", cfg.Pipeline.Jurisdiction))
				c := *cfg
				c.Pipeline.Jurisdiction = string(jurisdiction.KindUSConsolidated)
				cfg = &c
			}
			infra, err := bootstrap.NewInfrastructure(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			defer infra.Close()

			analyzer, err := bootstrap.NewAnalyzer(cfg, log, nil)
			if err != nil {
				return err
			}
			defer analyzer.Close()

			report, err := bootstrap.NewConsolidatedService(analyzer, infra, log, nil).Run(ctx, versions)
			if err != nil {
				return err
			}
			if err := reporting.ExportFile(out, reporting.LayoutConsolidated, report.Results); err != nil {
				return err
			}
			log.Info("consolidated export written", logging.String("path", out), logging.Int("rows", len(report.Results)))
			return PrintResult(cmd, newBatchSummary(report, out))
		},
	}
	flags.register(cmd, "out_consolidated")
	return cmd
}

//Personal.AI order the ending
