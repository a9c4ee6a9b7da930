package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ticket-record/internal/app"
	"github.com/joseph-ayodele/ticket-record/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract <image|txt>",
	Short: "OCR a ticket, ask the LLM, and print the resolved fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := extractMode()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		proc := app.NewProcessor(cfg, nil, nil, logger())
		rec, err := proc.ProcessFile(cmd.Context(), args[0], pipeline.Request{Mode: m})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"file":       rec.FileName,
			"confidence": rec.Confidence,
			"fields":     rec.Fields,
		})
	},
}

var (
	summarize bool
	questions bool
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio>",
	Short: "Transcribe a post-show voice memo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		proc := app.NewProcessor(cfg, nil, nil, logger())
		tr, err := proc.TranscribeAudio(cmd.Context(), f, pipeline.Request{FileName: filepath.Base(args[0])}, pipeline.TranscribeOptions{
			Summarize: summarize,
			Questions: questions,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"text":      tr.Text,
			"summary":   tr.Summary,
			"questions": tr.Questions,
		})
	},
}

func init() {
	transcribeCmd.Flags().BoolVar(&summarize, "summarize", false, "also ask the LLM for a short summary")
	transcribeCmd.Flags().BoolVar(&questions, "questions", false, "also ask the LLM for follow-up questions")
}
