// Package verify confirms that a published artifact carries the intended
// version and is bound to the intended commit.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/logfields"
	"git.home.luguber.info/inful/releaser/internal/release"
	"git.home.luguber.info/inful/releaser/internal/retry"
)

// Reader reads back the latest record of a published artifact.
type Reader interface {
	Read(ctx context.Context, name string) (release.Record, error)
}

// Verifier polls a Reader until the expected record is visible.
type Verifier struct {
	reader Reader
	policy retry.Policy
	sleep  func(time.Duration)
	logger *slog.Logger
	report func(attempts int)
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithSleep replaces time.Sleep between attempts.
func WithSleep(sleep func(time.Duration)) Option {
	return func(v *Verifier) { v.sleep = sleep }
}

// WithLogger sets the logger used for per-attempt diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

// WithAttemptReport registers fn to receive the number of reads each
// Verify call used.
func WithAttemptReport(fn func(attempts int)) Option {
	return func(v *Verifier) { v.report = fn }
}

// New returns a Verifier reading from r with the given retry policy.
func New(r Reader, policy retry.Policy, opts ...Option) *Verifier {
	v := &Verifier{reader: r, policy: policy, sleep: time.Sleep, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Expectation is what the store must report after publish.
type Expectation struct {
	Name        string
	Version     string
	BoundCommit string
}

// Verify reads back the artifact until it matches want or the retry budget
// is spent. Read errors and mismatches are both retried. Exhaustion yields
// EVERIFYARTIFACT with partial mutation set, since publish already happened.
// The read-back is not interrupted by ctx cancellation.
func (v *Verifier) Verify(ctx context.Context, want Expectation) error {
	ctx = context.WithoutCancel(ctx)

	var last release.Record
	var lastReadErr error
	used := 0
	err := v.policy.Do(v.sleep, func(attempt int) error {
		used = attempt
		rec, err := v.reader.Read(ctx, want.Name)
		if err != nil {
			lastReadErr = err
			v.logger.Debug("Artifact read-back failed", logfields.Package(want.Name), logfields.Attempt(attempt), logfields.Error(err))
			return err
		}
		lastReadErr = nil
		last = rec
		if rec.Version != want.Version || rec.BoundCommit != want.BoundCommit {
			v.logger.Debug("Artifact not yet consistent",
				logfields.Package(want.Name),
				logfields.Attempt(attempt),
				slog.String("got_version", rec.Version),
				slog.String("got_commit", rec.BoundCommit))
			return fmt.Errorf("got %s@%s", rec.Version, rec.BoundCommit)
		}
		return nil
	})
	if v.report != nil {
		v.report(used)
	}
	if err == nil {
		return nil
	}

	b := ferrors.NewError(ferrors.KindVerifyArtifact,
		fmt.Sprintf("published artifact %s does not match version %s bound to commit %s after %d attempts",
			want.Name, want.Version, want.BoundCommit, v.policy.Attempts())).
		WithContext("want_version", want.Version).
		WithContext("want_commit", want.BoundCommit).
		WithContext("attempts", v.policy.Attempts()).
		PartialMutation(true)
	if lastReadErr != nil {
		b = b.WithCause(lastReadErr)
	} else {
		b = b.WithContext("got_version", last.Version).WithContext("got_commit", last.BoundCommit)
	}
	return b.Build()
}
