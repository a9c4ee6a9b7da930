package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		fieldList, mode, ocrText, candidate = "", "COMPACT", "", ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	out, err := run(t, `{"artist":"null","venue":"올림픽공원"}`,
		"normalize", "--text", "2023년 7월 9일 오후 7시", "--candidate", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"venue":"올림픽공원","date":"2023-07-09","time":"19:00"}`, out)
	assert.Less(t, strings.Index(out, "venue"), strings.Index(out, "date"))
}

func TestNormalizeCommand_DirectWithFields(t *testing.T) {
	out, err := run(t, "", "normalize", "--text", "2022.10.15", "--mode", "direct", "--fields", "title,date")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"","date":"2022-10-15"}`, out)
}

func TestNormalizeCommand_BadMode(t *testing.T) {
	_, err := run(t, "", "normalize", "--mode", "loose")
	assert.Error(t, err)
}
