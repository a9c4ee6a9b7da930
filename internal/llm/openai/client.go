package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/joseph-ayodele/ticket-record/internal/llm"
)

var (
	_ llm.Completer   = (*Client)(nil)
	_ llm.Transcriber = (*Client)(nil)
)

// Complete implements llm.Completer using chat/completions.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(req.User),
		"json_object", req.JSONObject,
	)

	var messages []oai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, oai.SystemMessage(req.System))
	}
	messages = append(messages, oai.UserMessage(req.User))

	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.cfg.Model),
		Messages:    messages,
		Temperature: param.NewOpt(c.cfg.Temperature),
	}
	if req.JSONObject {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	content, err := retry.DoWithData(
		func() (string, error) {
			resp, err := c.api.Chat.Completions.New(ctx, params)
			if err != nil {
				return "", err
			}
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("no choices in openai response")
			}
			return resp.Choices[0].Message.Content, nil
		},
		c.retryOptions(ctx, rid, "llm.complete.retry")...,
	)
	if err != nil {
		c.logger.Error("llm.complete.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// Transcribe implements llm.Transcriber using the audio transcription endpoint.
// The clip is buffered so it can be re-sent on retry.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty audio")
	}
	name := filepath.Base(filename)
	if name == "" || name == "." {
		name = "audio.webm"
	}

	c.logger.Info("llm.transcribe.start",
		"req_id", rid,
		"model", c.cfg.TranscribeModel,
		"file", name,
		"bytes", len(data),
	)

	text, err := retry.DoWithData(
		func() (string, error) {
			params := oai.AudioTranscriptionNewParams{
				File:  oai.File(bytes.NewReader(data), name, audioContentType(name)),
				Model: oai.AudioModel(c.cfg.TranscribeModel),
			}
			if c.cfg.Language != "" {
				params.Language = oai.String(c.cfg.Language)
			}
			resp, err := c.api.Audio.Transcriptions.New(ctx, params)
			if err != nil {
				return "", err
			}
			return resp.Text, nil
		},
		c.retryOptions(ctx, rid, "llm.transcribe.retry")...,
	)
	if err != nil {
		c.logger.Error("llm.transcribe.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	c.logger.Info("llm.transcribe.ok",
		"req_id", rid,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(text), nil
}

func (c *Client) retryOptions(ctx context.Context, rid, event string) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn(event, "req_id", rid, "attempt", n+1, "error", err)
		}),
	}
}

// retryable reports whether err is worth another attempt: transport errors,
// rate limits and server errors are; other API errors are not.
func retryable(err error) bool {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func audioContentType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "mp3":
		return "audio/mpeg"
	case "m4a":
		return "audio/mp4"
	case "wav":
		return "audio/wav"
	case "ogg":
		return "audio/ogg"
	default:
		return "audio/webm"
	}
}
