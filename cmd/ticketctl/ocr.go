package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ticket-record/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <image>",
	Short: "Run OCR over a ticket image and print the text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ex := ocr.NewExtractor(ocr.Config{
			Tesseract:           cfg.OCR.Tesseract,
			TesseractLang:       cfg.OCR.Lang,
			TessdataDir:         cfg.OCR.TessdataDir,
			PSM:                 cfg.OCR.PSM,
			EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
		}, logger())
		res, err := ex.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"text":        res.Text,
			"method":      res.Method,
			"confidence":  res.Confidence,
			"duration_ms": res.Duration.Milliseconds(),
		})
	},
}
