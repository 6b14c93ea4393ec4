package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"oc-checklist-service/internal/domain"
	"oc-checklist-service/internal/report"
	"oc-checklist-service/internal/scoring"
)

// NewScoreCmd scores an answers file offline and prints the report.
func NewScoreCmd() *cobra.Command {
	var file, formFile, answersFile, format string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answers file against a checklist and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			checklist, err := readChecklistSource(file, formFile)
			if err != nil {
				return err
			}
			answers, err := readAnswers(answersFile)
			if err != nil {
				return err
			}
			return writeScore(cmd.OutOrStdout(), cmd.ErrOrStderr(), checklist, answers, format)
		},
	}
	cmd.Flags().StringVar(&file, "checklist", "", "checklist taxonomy JSON file (default: built-in)")
	cmd.Flags().StringVar(&formFile, "form", "", "QSC form JSON file")
	cmd.Flags().StringVar(&answersFile, "answers", "", `answers JSON file, e.g. {"Q1.1":"yes"}`)
	cmd.Flags().StringVar(&format, "format", "table", "output format: table, csv or json")
	cmd.MarkFlagsMutuallyExclusive("checklist", "form")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func readAnswers(path string) (domain.Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers %s: %w", path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	answers := make(domain.Answers, len(raw))
	for itemID, value := range raw {
		answer, err := domain.ParseAnswer(value)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", itemID, err)
		}
		answers[itemID] = answer
	}
	return answers, nil
}

func writeScore(out, errOut io.Writer, checklist domain.Checklist, answers domain.Answers, format string) error {
	rep := scoring.Overall(checklist.Categories, answers)
	rep.ChecklistID = checklist.ID

	progress := scoring.ComputeProgress(checklist.Categories, answers)
	fmt.Fprintf(errOut, "%s: %d/%d answered (%d%%)\n", checklist.ID, progress.AnsweredCount, progress.TotalQuestions, progress.ProgressPercent)
	if first, ok := scoring.FirstUnanswered(checklist.Categories, answers); ok {
		fmt.Fprintf(errOut, "first unanswered: %s (%s)\n", first.ItemID, checklist.Categories[first.CategoryIndex].Title)
	}

	switch format {
	case "table":
		return report.WriteTable(out, rep)
	case "csv":
		return report.WriteCSV(out, rep)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
