package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// tesseract keeps running briefly after its context is cancelled while
	// stdout drains; cap how long Wait lingers.
	tesseractWaitDelay = 2 * time.Second
	maxWarnings        = 5
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// tesseractRunner executes the tesseract binary. OpenMP is pinned to one
// thread because queue workers already run images in parallel.
type tesseractRunner struct {
	logger *slog.Logger
}

func (r tesseractRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "OMP_THREAD_LIMIT=1")
	cmd.WaitDelay = tesseractWaitDelay
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	log := r.logger.With(
		"cmd", name,
		"image", imageArg(args),
		"mode", outputMode(args),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		log.Error("ocr.tesseract.failed",
			"error", err,
			"ctx_err", ctx.Err(),
			"stderr", stderrWarnings(errb.Bytes()),
		)
	} else {
		log.Debug("ocr.tesseract.ok",
			"stdout_bytes", out.Len(),
			"warnings", len(stderrWarnings(errb.Bytes())),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

// imageArg is the input path; tesseract takes it first.
func imageArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func outputMode(args []string) string {
	if len(args) > 0 && args[len(args)-1] == "tsv" {
		return "tsv"
	}
	return "text"
}

// stderrWarnings turns tesseract's diagnostic output into at most maxWarnings
// short lines. Progress chatter such as "Estimating resolution" is dropped.
func stderrWarnings(stderr []byte) []string {
	var out []string
	for _, line := range strings.Split(string(stderr), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Estimating resolution") {
			continue
		}
		if len(out) == maxWarnings {
			out = append(out, "...(truncated)")
			break
		}
		out = append(out, truncate(line, 200))
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
