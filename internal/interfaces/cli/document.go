package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/LegisGraph/internal/application/pipeline"
	"github.com/turtacn/LegisGraph/internal/bootstrap"
	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

// readDocument decodes one document record from path.
func readDocument(path string) (*legislation.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "read document").WithDetail(path)
	}
	var doc legislation.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode document").WithDetail(path)
	}
	return &doc, nil
}

// withAnalyzer loads the document at path and runs fn with the configured
// analyzer.
func withAnalyzer(cmd *cobra.Command, path string, fn func(ctx context.Context, a *bootstrap.Analyzer, doc *legislation.Document) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	a, err := bootstrap.NewAnalyzer(cliCtx.Config, cliCtx.Logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := cliCtx.commandContext(cmd)
	defer cancel()
	return fn(ctx, a, doc)
}

// ─────────────────────────────────────────────────────────────────────────────
// parse
// ─────────────────────────────────────────────────────────────────────────────

// rowTable renders parsed rows.
type rowTable []legislation.Row

func (t rowTable) TableHeaders() []string {
	return []string{"LEVEL", "LABEL", "NUMBER", "FIELD", "TEXT"}
}

func (t rowTable) TableRows() [][]string {
	out := make([][]string, len(t))
	for i, r := range t {
		out[i] = []string{strconv.Itoa(r.Level), r.Label, r.SectionNumber, string(r.FieldType), truncate(r.Text, 60)}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// NewParseCmd prints the header hierarchy of one document.
func NewParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <doc.json>",
		Short: "Parse a document into its section hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAnalyzer(cmd, args[0], func(ctx context.Context, a *bootstrap.Analyzer, doc *legislation.Document) error {
				rows, err := a.Parse(doc)
				if err != nil {
					return err
				}
				return PrintResult(cmd, rowTable(rows))
			})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// extract
// ─────────────────────────────────────────────────────────────────────────────

// extractOutput is the result of the extract command.
type extractOutput struct {
	DocumentID string     `json:"document_id"`
	Chunks     [][]string `json:"chunks"`
	Entities   []string   `json:"entities"`
}

func (o extractOutput) TableHeaders() []string { return []string{"CHUNK", "ENTITIES"} }

func (o extractOutput) TableRows() [][]string {
	var out [][]string
	for i, chunk := range o.Chunks {
		if len(chunk) == 0 {
			continue
		}
		out = append(out, []string{strconv.Itoa(i), fmt.Sprint(chunk)})
	}
	return out
}

// NewExtractCmd prints the entities found in each chunk of one document.
func NewExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <doc.json>",
		Short: "Extract the institutional entities of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAnalyzer(cmd, args[0], func(ctx context.Context, a *bootstrap.Analyzer, doc *legislation.Document) error {
				an, err := a.Analyze(ctx, doc)
				if err != nil {
					return err
				}
				out := extractOutput{DocumentID: doc.ID, Chunks: an.Extraction.Chunks, Entities: an.Extraction.All}
				return PrintResult(cmd, out)
			})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// centrality
// ─────────────────────────────────────────────────────────────────────────────

type centralityTable struct{ *pipeline.CentralityReport }

func (t centralityTable) TableHeaders() []string { return []string{"RANK", "ENTITY", "CENTRALITY"} }

func (t centralityTable) TableRows() [][]string {
	out := make([][]string, len(t.Ranking))
	for i, c := range t.Ranking {
		out[i] = []string{strconv.Itoa(i + 1), c.Entity, strconv.FormatFloat(c.Score, 'f', 4, 64)}
	}
	return out
}

// NewCentralityCmd ranks the entities of one document.
func NewCentralityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "centrality <doc.json>",
		Short: "Rank a document's entities by eigenvector centrality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAnalyzer(cmd, args[0], func(ctx context.Context, a *bootstrap.Analyzer, doc *legislation.Document) error {
				report, err := a.CentralityReport(ctx, doc)
				if err != nil {
					return err
				}
				return PrintResult(cmd, centralityTable{report})
			})
		},
	}
}

//Personal.AI order the ending
