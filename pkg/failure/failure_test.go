package failure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-finance-cache/provider"
)

func TestSourceUnavailable(t *testing.T) {
	err := SourceUnavailable("newsapi", context.DeadlineExceeded)

	assert.True(t, Is(err, TextCodeSourceUnavailable))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryExternal))
	assert.Equal(t, goerrors.SeverityWarning, err.Severity)
	assert.Equal(t, "newsapi", err.Metadata["source"])
}

func TestSourceUnavailable_TemporaryMetadata(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  any
	}{
		{name: "rate limited", cause: fmt.Errorf("get host: %w", &provider.HTTPError{StatusCode: http.StatusTooManyRequests}), want: true},
		{name: "not found", cause: &provider.HTTPError{StatusCode: http.StatusNotFound}, want: false},
		{name: "plain error", cause: errors.New("bad payload"), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SourceUnavailable("gold-api", tt.cause)
			assert.Equal(t, tt.want, err.Metadata["temporary"])
		})
	}
}

func TestSourceUnavailable_NilCause(t *testing.T) {
	err := SourceUnavailable("feed", nil)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "no records")
}

func TestRecordInvalid_FromOzzo(t *testing.T) {
	type record struct {
		Title string `json:"title"`
	}
	r := record{Title: "abc"}
	verr := validation.ValidateStruct(&r, validation.Field(&r.Title, validation.Required, validation.RuneLength(5, 0)))
	require.Error(t, verr)

	err := RecordInvalid(verr, "article rejected")
	require.NotNil(t, err)
	assert.True(t, Is(err, TextCodeRecordInvalid))
	assert.True(t, goerrors.IsValidation(err))
	assert.Contains(t, err.ValidationMap(), "title")
}

func TestRecordInvalid_Nil(t *testing.T) {
	assert.Nil(t, RecordInvalid(nil, "unused"))
}

func TestChainExhausted(t *testing.T) {
	err := ChainExhausted("news::all", 3)

	assert.True(t, errors.Is(err, ErrChainExhausted))
	assert.True(t, Is(err, TextCodeChainExhausted))
	assert.Equal(t, 3, err.Metadata["attempts"])
}

func TestHardFailure_KeepsExhaustionCause(t *testing.T) {
	err := HardFailure("metals::gold", ChainExhausted("metals::gold", 2))

	assert.True(t, Is(err, TextCodeHardFailure))
	assert.True(t, errors.Is(err, ErrChainExhausted))
	assert.Equal(t, goerrors.SeverityCritical, err.Severity)
	assert.Equal(t, "metals::gold", err.Metadata["key"])
}

func TestIs_PlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), TextCodeHardFailure))
	assert.False(t, Is(nil, TextCodeHardFailure))
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Log(logger, SourceUnavailable("feed", errors.New("boom")))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "text_code=SOURCE_UNAVAILABLE")

	buf.Reset()
	Log(logger, errors.New("plain failure"))
	assert.Contains(t, buf.String(), "level=ERROR")

	buf.Reset()
	Log(nil, errors.New("ignored"))
	Log(logger, nil)
	assert.Empty(t, buf.String())
}
