package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/fields"
)

var (
	ocrText   string
	candidate string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Resolve fields from OCR text and an LLM candidate",
	Example: `  ticketctl normalize --text "2023년 7월 9일 오후 7시" --candidate '{"venue":"올림픽공원"}'
  ticketctl normalize --text @ocr.txt --candidate - --mode direct < llm.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := extractMode()
		if err != nil {
			return err
		}
		text, err := readArg(ocrText, cmd.InOrStdin())
		if err != nil {
			return err
		}
		cand, err := readArg(candidate, cmd.InOrStdin())
		if err != nil {
			return err
		}

		allowed := constants.DefaultFields()
		if fieldList != "" {
			allowed = constants.ParseFieldList(fieldList)
		}
		ex := fields.NewExtractor(allowed, fields.WithLogger(logger()))
		out := ex.ExtractMode(text, cand, m)
		if m == constants.ModeDirect {
			out = fields.Complete(out, ex.Allowed())
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&ocrText, "text", "", "OCR text, @file, or - for stdin")
	normalizeCmd.Flags().StringVar(&candidate, "candidate", "", "LLM JSON candidate, @file, or - for stdin")
}
