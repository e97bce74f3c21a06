package reporting_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/sauce-e2e/internal/reporting"
)

type recordingReporter struct {
	results  []reporting.ScenarioResult
	writeErr error
	closed   bool
}

func (r *recordingReporter) Write(res reporting.ScenarioResult) error {
	r.results = append(r.results, res)
	return r.writeErr
}

func (r *recordingReporter) Close() error {
	r.closed = true
	return nil
}

func TestAsyncForwardsInOrder(t *testing.T) {
	dst := &recordingReporter{}
	a := reporting.NewAsync(dst, 1)

	var g errgroup.Group
	g.Go(a.Drain)
	for _, res := range sampleResults() {
		require.NoError(t, a.Write(res))
	}
	require.NoError(t, a.Close())
	require.NoError(t, g.Wait())

	assert.Equal(t, sampleResults(), dst.results)
	assert.True(t, dst.closed)
}

func TestAsyncWriteAfterClose(t *testing.T) {
	a := reporting.NewAsync(&recordingReporter{}, 1)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Write(sampleResults()[0]), reporting.ErrClosed)
	assert.NoError(t, a.Drain())
}

func TestAsyncDrainReportsFirstError(t *testing.T) {
	full := errors.New("disk full")
	dst := &recordingReporter{writeErr: full}
	a := reporting.NewAsync(dst, 4)
	require.NoError(t, a.Write(sampleResults()[0]))
	require.NoError(t, a.Write(sampleResults()[1]))
	require.NoError(t, a.Close())

	assert.ErrorIs(t, a.Drain(), full)
	assert.Len(t, dst.results, 2, "keeps draining after an error")
	assert.True(t, dst.closed)
}
