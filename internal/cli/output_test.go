package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/config"
	"github.com/roach88/ledger/internal/store"
	"github.com/roach88/ledger/internal/template"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(CodeNotFound, "failed to delete item", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Equal(t, "failed to delete item", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("All good")
	require.NoError(t, err)
	assert.Equal(t, "All good\n", buf.String())
}

func TestOutputFormatter_TextSuccessUsesWriteText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Success(suggestionList{Kind: "names", Values: []string{"Acme", "Beta"}})
	require.NoError(t, err)
	assert.Equal(t, "Acme\nBeta\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"key": "2024-01-01_x"}
	err := formatter.Error(CodeNotFound, "failed to delete item", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E_NOT_FOUND]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("saved %s", "2024-01-01_x")

			assert.Empty(t, out.String(), "diagnostics never go to the payload stream")
			if tt.wantLog {
				assert.Contains(t, diag.String(), "saved 2024-01-01_x")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	notFound := &store.Error{Code: store.CodeRecordNotFound, Op: "delete accounting item", Key: "k"}

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"not found", notFound, CodeNotFound, ExitFailure},
		{"wrapped not found", fmt.Errorf("outer: %w", notFound), CodeNotFound, ExitFailure},
		{"storage", &store.Error{Code: store.CodeStorageUnavailable, Op: "open store"}, CodeStorage, ExitCommandError},
		{"transaction", &store.Error{Code: store.CodeTransactionFailure, Op: "x"}, CodeTransaction, ExitFailure},
		{"corrupt", &store.Error{Code: store.CodeCorruptRecord, Op: "x"}, CodeTransaction, ExitFailure},
		{"template", &template.Error{Field: "items", Message: "incomplete"}, CodeTemplate, ExitFailure},
		{"no data dir", config.ErrDataDirNotSet, CodeConfig, ExitCommandError},
		{"other", errors.New("bad flag"), CodeInvalidInput, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "json", Writer: buf}

			err := f.Fail("operation failed", tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.True(t, Reported(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "operation failed", resp.Error.Message)
			assert.Equal(t, tt.err.Error(), resp.Error.Details)
		})
	}
}

func TestOutputFormatter_FailText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	_ = f.Fail("failed to open store", config.ErrDataDirNotSet)
	assert.Equal(t, "Error [E_CONFIG]: failed to open store: "+config.ErrDataDirNotSet.Error()+"\n", buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")
	err := WrapExitError(ExitFailure, "failed", cause)

	assert.Equal(t, "failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, Reported(err))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
}
