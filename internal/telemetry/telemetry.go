// Package telemetry is the structured, machine-parseable counterpart to
// internal/logging's free-text category files. It emits zap events under
// the memory.promotion.*, memory.store.*, and memory.adapter.* namespaces,
// the way cmd/nerd wires zap for CLI output: one process-wide *zap.Logger,
// built once, level set from verbosity.
package telemetry

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger = zap.NewNop()
)

// Init builds the process-wide telemetry logger. verbose raises the level to
// debug; otherwise info. Safe to call multiple times (e.g. in tests).
func Init(verbose bool) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// Sync flushes the underlying logger. Call on shutdown.
func Sync() {
	mu.RLock()
	l := logger
	mu.RUnlock()
	_ = l.Sync()
}

func get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// PromotionEvaluated records one promotion pass's candidate count.
func PromotionEvaluated(sessionID string, evaluated, promoted int, threshold float64) {
	get().Info("memory.promotion.evaluated",
		zap.String("session_id", sessionID),
		zap.Int("evaluated", evaluated),
		zap.Int("promoted", promoted),
		zap.Float64("threshold", threshold),
	)
}

// PromotionFailed records a single item's promotion failure.
func PromotionFailed(sessionID, itemID string, err error) {
	get().Warn("memory.promotion.failed",
		zap.String("session_id", sessionID),
		zap.String("pending_id", itemID),
		zap.Error(err),
	)
}

// StoreOpened records a session store open, including ontology load size.
func StoreOpened(sessionID string, documentsLoaded, triplesSeeded int) {
	get().Info("memory.store.opened",
		zap.String("session_id", sessionID),
		zap.Int("documents_loaded", documentsLoaded),
		zap.Int("triples_seeded", triplesSeeded),
	)
}

// StoreClosed records a session store close (eviction or explicit).
func StoreClosed(sessionID string, reason string) {
	get().Info("memory.store.closed",
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
	)
}

// AdapterError records an adapter-level error by its taxonomy code.
func AdapterError(sessionID, op, code string) {
	get().Warn("memory.adapter.error",
		zap.String("session_id", sessionID),
		zap.String("op", op),
		zap.String("code", code),
	)
}
