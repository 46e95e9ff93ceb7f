package automation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
	"github.com/GriffinCanCode/deskdriver/internal/providers/virtual"
	"github.com/GriffinCanCode/deskdriver/internal/shared/id"
)

// MockShellRunner is a testify mock of automation.ShellRunner.
type MockShellRunner struct {
	mock.Mock
}

func (m *MockShellRunner) Run(ctx context.Context, cmd automation.ShellCommand) (automation.ShellResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(automation.ShellResult), args.Error(1)
}

// blockingShell returns a runner whose single Run blocks until release is
// closed. started is closed once Run has been entered.
func blockingShell() (runner *MockShellRunner, started, release chan struct{}) {
	started = make(chan struct{})
	release = make(chan struct{})
	runner = &MockShellRunner{}
	runner.On("Run", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(automation.ShellResult{Stdout: "done"}, nil).
		Once()
	return runner, started, release
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type env struct {
	provider *virtual.Provider
	scripts  *automation.Dispatcher
	registry *automation.Registry
	clock    *fakeClock
}

type envOption func(*envConfig)

type envConfig struct {
	registry   automation.RegistryConfig
	dispatcher automation.DispatcherConfig
	runner     automation.ShellRunner
}

func withHandleLimit(n int) envOption {
	return func(c *envConfig) { c.registry.MaxElementHandles = n }
}

func withShell(runner automation.ShellRunner, dir string) envOption {
	return func(c *envConfig) {
		c.runner = runner
		c.dispatcher.AllowShell = true
		c.dispatcher.TempDir = dir
	}
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	var cfg envConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	fixture, err := virtual.DefaultFixture()
	require.NoError(t, err)
	provider, err := virtual.New(fixture)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	logger := zap.NewNop()
	scripts := automation.NewDispatcher(provider, cfg.runner, cfg.dispatcher, logger)
	registry := automation.NewRegistry(provider, scripts, cfg.registry, logger).WithClock(clock.Now)

	return &env{provider: provider, scripts: scripts, registry: registry, clock: clock}
}

func (e *env) session(t *testing.T, caps automation.Capabilities) *automation.Session {
	t.Helper()
	s, err := e.registry.Create(caps)
	require.NoError(t, err)
	return s
}

func (e *env) find(t *testing.T, s *automation.Session, using, value string) id.ElementID {
	t.Helper()
	loc, err := automation.ParseLocator(using, value)
	require.NoError(t, err)
	eid, err := s.FindElement("", loc)
	require.NoError(t, err)
	return eid
}
