package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/ticket-record/constants"
	"github.com/joseph-ayodele/ticket-record/internal/app"
	"github.com/joseph-ayodele/ticket-record/internal/common"
)

var (
	cfgFile   string
	verbose   bool
	fieldList string
	mode      string
)

var rootCmd = &cobra.Command{
	Use:   "ticketctl",
	Short: "Extract structured fields from performance ticket images and text",
	Long: `ticketctl runs the ticket pipeline locally without a database.

Commands:
  - normalize: resolve fields from OCR text and an LLM JSON candidate
  - ocr: run tesseract over an image
  - extract: OCR, ask the LLM, and resolve fields
  - transcribe: turn a voice memo into text`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&fieldList, "fields", "", "comma separated allow-list (default: configured fields)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", string(constants.ModeCompact), "COMPACT or DIRECT")

	rootCmd.AddCommand(normalizeCmd, ocrCmd, extractCmd, transcribeCmd)
}

func logger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return app.NewLogger(os.Stderr, true)
}

func loadConfig() (*common.Config, error) {
	cfg, err := common.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if fieldList != "" {
		cfg.Fields.Allowed = constants.ParseFieldList(fieldList)
	}
	return cfg, nil
}

func extractMode() (constants.ExtractMode, error) {
	m := constants.ExtractMode(strings.ToUpper(strings.TrimSpace(mode)))
	switch m {
	case constants.ModeCompact, constants.ModeDirect:
		return m, nil
	}
	return "", fmt.Errorf("--mode must be %s or %s", constants.ModeCompact, constants.ModeDirect)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readArg returns the flag value, or the file's content for "@path", or stdin for "-".
func readArg(v string, stdin io.Reader) (string, error) {
	switch {
	case v == "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	case strings.HasPrefix(v, "@"):
		b, err := os.ReadFile(strings.TrimPrefix(v, "@"))
		return string(b), err
	}
	return v, nil
}
