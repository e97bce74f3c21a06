package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
	"github.com/xkilldash9x/sauce-e2e/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockLauncher struct {
	mock.Mock
}

func (m *mockLauncher) NewSession(ctx context.Context) (browser.Session, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(browser.Session)
	return s, args.Error(1)
}

func (m *mockLauncher) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubSession struct {
	closed   int
	closeErr error
}

func (s *stubSession) ID() string         { return "sess-1" }
func (s *stubSession) Page() browser.Page { return nil }
func (s *stubSession) Close(ctx context.Context) error {
	s.closed++
	return s.closeErr
}

func testConfig(keepOpen bool) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Browser.KeepOpen = keepOpen
	cfg.Suite.SessionsPerSecond = 1000
	cfg.Suite.BaseURL = "https://example.test/"
	return cfg
}

func TestOpenAndClose(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &mockLauncher{}
	sess := &stubSession{}
	l.On("NewSession", mock.Anything).Return(sess, nil).Once()

	h := New(l, testConfig(false), zap.New(core))
	w, err := h.Open(context.Background(), "login ok")
	require.NoError(t, err)
	require.NotNil(t, w.Actions)
	require.NotNil(t, w.Login)
	assert.Same(t, sess, w.Session)

	require.NoError(t, h.Close(context.Background(), w))
	assert.Equal(t, 1, sess.closed)

	opened := logs.FilterMessage("Session opened.").All()
	require.Len(t, opened, 1)
	assert.Equal(t, "sess-1", opened[0].ContextMap()["session_id"])
	assert.Equal(t, "login ok", opened[0].ContextMap()["test"])
	l.AssertExpectations(t)
}

func TestOpenFailure(t *testing.T) {
	l := &mockLauncher{}
	l.On("NewSession", mock.Anything).Return(nil, errors.New("no browser"))

	w, err := New(l, testConfig(false), nil).Open(context.Background(), "case")
	assert.Nil(t, w)
	assert.EqualError(t, err, `failed to open session for "case": no browser`)
}

func TestOpenCanceled(t *testing.T) {
	l := &mockLauncher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(l, testConfig(false), nil).Open(ctx, "case")
	assert.Error(t, err)
	l.AssertNotCalled(t, "NewSession", mock.Anything)
}

func TestKeepOpen(t *testing.T) {
	l := &mockLauncher{}
	sess := &stubSession{}
	l.On("NewSession", mock.Anything).Return(sess, nil)

	h := New(l, testConfig(true), nil)
	w, err := h.Open(context.Background(), "case")
	require.NoError(t, err)

	require.NoError(t, h.Close(context.Background(), w))
	require.NoError(t, h.Shutdown(context.Background()))
	assert.Zero(t, sess.closed)
	l.AssertNotCalled(t, "Shutdown", mock.Anything)
}

func TestCloseAndShutdownErrors(t *testing.T) {
	l := &mockLauncher{}
	gone := errors.New("target closed")
	l.On("NewSession", mock.Anything).Return(&stubSession{closeErr: gone}, nil)
	l.On("Shutdown", mock.Anything).Return(nil)

	h := New(l, testConfig(false), nil)
	w, err := h.Open(context.Background(), "case")
	require.NoError(t, err)

	assert.ErrorIs(t, h.Close(context.Background(), w), gone)
	assert.NoError(t, h.Close(context.Background(), nil))
	assert.NoError(t, h.Shutdown(context.Background()))
	l.AssertCalled(t, "Shutdown", mock.Anything)
}
