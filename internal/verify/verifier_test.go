package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/release"
	"git.home.luguber.info/inful/releaser/internal/retry"
)

// scriptedReader returns its responses in order, repeating the last one.
type scriptedReader struct {
	records []release.Record
	errs    []error
	calls   int
}

func (s *scriptedReader) Read(ctx context.Context, name string) (release.Record, error) {
	i := s.calls
	s.calls++
	if i >= len(s.records) {
		i = len(s.records) - 1
	}
	return s.records[i], s.errs[i]
}

func noSleep(time.Duration) {}

func TestVerifyImmediateMatch(t *testing.T) {
	r := &scriptedReader{records: []release.Record{{Version: "1.0.0", BoundCommit: "abc"}}, errs: []error{nil}}
	v := New(r, retry.DefaultPolicy(), WithSleep(noSleep))
	require.NoError(t, v.Verify(context.Background(), Expectation{Name: "demo", Version: "1.0.0", BoundCommit: "abc"}))
	assert.Equal(t, 1, r.calls)
}

func TestVerifyEventualConsistency(t *testing.T) {
	r := &scriptedReader{
		records: []release.Record{{}, {Version: "0.9.0", BoundCommit: "old"}, {Version: "1.0.0", BoundCommit: "abc"}},
		errs:    []error{errors.New("not found"), nil, nil},
	}
	var slept []time.Duration
	v := New(r, retry.DefaultPolicy(), WithSleep(func(d time.Duration) { slept = append(slept, d) }))
	require.NoError(t, v.Verify(context.Background(), Expectation{Name: "demo", Version: "1.0.0", BoundCommit: "abc"}))
	assert.Equal(t, 3, r.calls)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, slept)
}

func TestVerifyMismatchExhausts(t *testing.T) {
	r := &scriptedReader{records: []release.Record{{Version: "1.0.0", BoundCommit: "other"}}, errs: []error{nil}}
	v := New(r, retry.DefaultPolicy(), WithSleep(noSleep))
	err := v.Verify(context.Background(), Expectation{Name: "demo", Version: "1.0.0", BoundCommit: "abc"})

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.KindVerifyArtifact, ce.Kind())
	assert.True(t, ce.PartialMutation())
	got, _ := ce.Context().GetString("got_commit")
	assert.Equal(t, "other", got)
	assert.Equal(t, 5, r.calls)
}

func TestVerifyReadErrorsExhaust(t *testing.T) {
	boom := errors.New("connection refused")
	r := &scriptedReader{records: []release.Record{{}}, errs: []error{boom}}
	v := New(r, retry.NewPolicy("", time.Millisecond, time.Millisecond, 1), WithSleep(noSleep))
	err := v.Verify(context.Background(), Expectation{Name: "demo", Version: "1.0.0", BoundCommit: "abc"})

	assert.Equal(t, ferrors.KindVerifyArtifact, ferrors.KindOf(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, r.calls)
}

func TestVerifyIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &scriptedReader{records: []release.Record{{Version: "1.0.0", BoundCommit: "abc"}}, errs: []error{nil}}
	require.NoError(t, New(r, retry.DefaultPolicy()).Verify(ctx, Expectation{Name: "demo", Version: "1.0.0", BoundCommit: "abc"}))
}

func TestVerifyReportsAttempts(t *testing.T) {
	r := &scriptedReader{
		records: []release.Record{{}, {Version: "1.0.0", BoundCommit: "abc"}},
		errs:    []error{errors.New("not yet"), nil},
	}
	var reported int
	v := New(r, retry.DefaultPolicy(), WithSleep(noSleep), WithAttemptReport(func(n int) { reported = n }))
	require.NoError(t, v.Verify(context.Background(), Expectation{Name: "demo", Version: "1.0.0", BoundCommit: "abc"}))
	assert.Equal(t, 2, reported)
}
