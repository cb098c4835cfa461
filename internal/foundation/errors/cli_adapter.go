package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes returned by the releaser CLI.
const (
	ExitOK           = 0
	ExitNoChange     = 1
	ExitUsage        = 2
	ExitConditions   = 3
	ExitVetoed       = 4
	ExitVersion      = 5
	ExitHistory      = 6
	ExitConfig       = 7
	ExitPublish      = 8
	ExitVerify       = 9
	ExitMarker       = 10
	ExitInternal     = 70
	ExitCanceled     = 130
	exitUnclassified = 1
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose       bool
	allowNoChange bool
	logger        *slog.Logger
	out           io.Writer
	exit          func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// AllowNoChange makes ENOCHANGE exit successfully.
func (a *CLIErrorAdapter) AllowNoChange(allow bool) *CLIErrorAdapter {
	a.allowNoChange = allow
	return a
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if classified, ok := AsClassified(err); ok {
		return a.exitCodeFromClassified(classified)
	}
	return exitUnclassified
}

func (a *CLIErrorAdapter) exitCodeFromClassified(err *ClassifiedError) int {
	switch err.Kind() {
	case KindNoChange:
		if a.allowNoChange {
			return ExitOK
		}
		return ExitNoChange
	case KindVerifyConditions:
		return ExitConditions
	case KindVerifyRelease:
		return ExitVetoed
	case KindInvalidVersion:
		return ExitVersion
	case KindNoHead, KindNotInHistory:
		return ExitHistory
	case KindMissingPlugin, KindPluginConfig:
		return ExitConfig
	case KindPublish:
		return ExitPublish
	case KindVerifyArtifact:
		return ExitVerify
	case KindMarker:
		return ExitMarker
	case KindCanceled:
		return ExitCanceled
	case KindInternal:
		return ExitInternal
	default:
		return exitUnclassified
	}
}

// FormatError formats an error for user-facing display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	msg := string(classified.Kind()) + " " + classified.Message()
	if classified.Plugin() != "" {
		msg += fmt.Sprintf(" (plugin %s)", classified.Plugin())
	}
	if a.verbose && classified.Cause() != nil {
		msg += fmt.Sprintf(": %v", classified.Cause())
	}
	if classified.PartialMutation() {
		msg += "\nSome release side effects were already applied; manual remediation may be required."
	}
	return msg
}

// HandleError logs err, prints it and exits with the mapped code.
// A nil error or an allowed ENOCHANGE returns without exiting.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	code := a.ExitCodeFor(err)
	if a.shouldLog(err) {
		a.logError(err)
	}
	if code == ExitOK {
		return
	}
	fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(code)
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() != SeverityWarning
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("kind", string(classified.Kind()))}
	if classified.Plugin() != "" {
		attrs = append(attrs, slog.String("plugin", classified.Plugin()))
	}
	if classified.PartialMutation() {
		attrs = append(attrs, slog.Bool("partial_mutation", true))
	}
	if classified.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	if classified.Cause() != nil {
		attrs = append(attrs, slog.String("cause", classified.Cause().Error()))
	}
	a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
