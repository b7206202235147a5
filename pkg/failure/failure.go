// Package failure defines the error taxonomy shared by sources, chains and
// the aggregation facade. Every error is a *goerrors.Error carrying one of
// the text codes below so callers can classify without string matching.
package failure

import (
	"errors"
	"log/slog"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeSourceUnavailable marks a single source fetch that failed.
	// The chain recovers by moving to the next source.
	TextCodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	// TextCodeRecordInvalid marks a single record dropped by a normalizer.
	TextCodeRecordInvalid = "RECORD_INVALID"
	// TextCodeChainExhausted marks a chain where no source produced records.
	TextCodeChainExhausted = "CHAIN_EXHAUSTED"
	// TextCodeHardFailure is the only error allowed to reach facade callers.
	TextCodeHardFailure = "HARD_FAILURE"
)

// ErrChainExhausted is the sentinel wrapped by every exhaustion error.
var ErrChainExhausted = errors.New("all sources exhausted")

// temporary is implemented by provider.HTTPError and net errors.
type temporary interface {
	Temporary() bool
}

// SourceUnavailable wraps a fetch, transport or payload error for one source.
// When the cause says whether the upstream may recover, that lands in the
// "temporary" metadata key.
func SourceUnavailable(source string, cause error) *goerrors.Error {
	if cause == nil {
		cause = errors.New("no records")
	}
	meta := map[string]any{"source": source}
	var t temporary
	if errors.As(cause, &t) {
		meta["temporary"] = t.Temporary()
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, "source "+source+" unavailable").
		WithTextCode(TextCodeSourceUnavailable).
		WithSeverity(goerrors.SeverityWarning).
		WithMetadata(meta)
}

// RecordInvalid converts a validation error into a dropped-record error.
func RecordInvalid(err error, message string) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if !errors.As(err, &rich) {
		rich = goerrors.FromOzzoValidation(err, message)
	} else {
		rich = rich.Clone()
		rich.Message = message
	}
	return rich.WithTextCode(TextCodeRecordInvalid).WithSeverity(goerrors.SeverityDebug)
}

// ChainExhausted reports that every source of chain failed or came back empty.
func ChainExhausted(chain string, attempts int) *goerrors.Error {
	return goerrors.Wrap(ErrChainExhausted, goerrors.CategoryExternal, "chain "+chain).
		WithTextCode(TextCodeChainExhausted).
		WithSeverity(goerrors.SeverityWarning).
		WithMetadata(map[string]any{"chain": chain, "attempts": attempts})
}

// HardFailure reports that no data, live or cached, exists for key.
func HardFailure(key string, cause error) *goerrors.Error {
	if cause == nil {
		cause = ErrChainExhausted
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, "no data available for "+key).
		WithTextCode(TextCodeHardFailure).
		WithSeverity(goerrors.SeverityCritical).
		WithMetadata(map[string]any{"key": key})
}

// Is reports whether err, or any error it wraps, carries textCode.
func Is(err error, textCode string) bool {
	for err != nil {
		var rich *goerrors.Error
		if !errors.As(err, &rich) {
			return false
		}
		if rich.TextCode == textCode {
			return true
		}
		err = rich.Source
	}
	return false
}

// Log writes err through go-errors' severity aware slog glue.
// Errors that are not *goerrors.Error are logged at error level.
func Log(logger *slog.Logger, err error) {
	if logger == nil || err == nil {
		return
	}
	var rich *goerrors.Error
	if errors.As(err, &rich) {
		goerrors.LogBySeverity(logger, rich)
		return
	}
	logger.Error(err.Error())
}
