package shutdown

import (
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"

	"github.com/flanksource/commons/logger"
)

// Hooks with a lower priority run first.
const (
	PriorityIngress  = 100
	PrioritySessions = 500
	PriorityCritical = 1000
)

type hook struct {
	label    string
	priority int
	fn       func()
}

var (
	mu    sync.Mutex
	hooks []hook
	once  sync.Once
)

// Shutdown runs every registered hook once, ordered by priority.
func Shutdown() {
	once.Do(func() {
		mu.Lock()
		pending := slices.Clone(hooks)
		hooks = nil
		mu.Unlock()

		if len(pending) == 0 {
			return
		}
		slices.SortStableFunc(pending, func(a, b hook) int { return a.priority - b.priority })

		logger.Infof("Shutting down")
		for _, h := range pending {
			logger.V(2).Infof("shutdown: %s", h.label)
			h.fn()
		}
	})
}

func ShutdownAndExit(code int, msg string) {
	Shutdown()
	logger.StandardLogger().WithSkipReportLevel(1).Errorf("%s", msg)
	os.Exit(code)
}

func AddHook(fn func()) {
	AddHookWithPriority("", PriorityCritical, fn)
}

func AddHookWithPriority(label string, priority int, fn func()) {
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, hook{label: label, priority: priority, fn: fn})
}

// WaitForSignal runs Shutdown on SIGINT or SIGTERM and closes the returned
// channel once the hooks are done.
func WaitForSignal() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Infof("Caught signal")
		Shutdown()
		close(done)
	}()
	return done
}
