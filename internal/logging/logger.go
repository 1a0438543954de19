// Package logging provides config-driven categorized file-based logging for the
// coordination core. Logs are written to <workspace>/.coord/logs/ with separate
// files per category. Logging is controlled by logging.debug_mode in
// <workspace>/.coord/config.json (read by this package itself, not the YAML
// config loaded by internal/config) — when false, no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot       Category = "boot"       // Process startup, config load
	CategoryEscalation Category = "escalation" // Tier selection, budget accounting (C9)
	CategoryRouting    Category = "routing"    // Pre-routing classification (C10)
	CategoryDebate     Category = "debate"     // Debate state machine, consensus (C11-C13)
	CategoryMemory     Category = "memory"     // Memory store and compaction (C4-C6)
	CategoryCapability Category = "capability" // Capability matrix, tool bundles (C7-C8)
	CategoryVerifier   Category = "verifier"   // Verifier report normalization (C1-C2)
	CategoryCheckpoint Category = "checkpoint" // Checkpoint serialize/restore (C14)
	CategoryPerf       Category = "perf"       // Perf guard, fallback chain (C15)
)

// loggingConfig mirrors the relevant parts of config.LoggingConfig to avoid a
// circular import between the logging and config packages.
type loggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories"`
	Level      string          `json:"level"`
	JSONFormat bool            `json:"json_format"`
}

// StructuredLogEntry is a JSON log record, one per line, suitable for offline
// ingestion by metrics tooling.
type StructuredLogEntry struct {
	Timestamp int64                  `json:"ts"`
	Category  string                 `json:"cat"`
	Level     string                 `json:"lvl"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	workspace string
	cfg       loggingConfig
	configMu  sync.RWMutex
	logLevel  int

	// structured is the zap-backed sink exposed through Structured() for
	// machine-readable records, independent of the human-readable category
	// logs above. No package in this module writes to it.
	structured   *zap.SugaredLogger
	structuredMu sync.RWMutex
)

const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize sets up the logging directory and loads config. Call once at
// startup with the workspace path.
func Initialize(ws string) error {
	if ws == "" {
		return fmt.Errorf("workspace path required")
	}

	workspace = ws
	logsDir = filepath.Join(workspace, ".coord", "logs")

	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not load config: %v\n", err)
		cfg.DebugMode = false
	}

	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	structuredMu.Lock()
	structured = z.Sugar()
	structuredMu.Unlock()

	if !cfg.DebugMode {
		return nil // silent no-op in production mode
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== coordination core logging initialized ===")
	boot.Info("workspace: %s", workspace)
	boot.Info("debug mode: %v level: %s", cfg.DebugMode, cfg.Level)
	return nil
}

// loadConfig reads the logging config from <workspace>/.coord/config.json.
func loadConfig() error {
	configMu.Lock()
	defer configMu.Unlock()

	configPath := filepath.Join(workspace, ".coord", "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.DebugMode = false
			return nil
		}
		return err
	}

	var cf struct {
		Logging loggingConfig `json:"logging"`
	}
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	cfg = cf.Logging

	switch cfg.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	return nil
}

// ReloadConfig reloads the config from disk. Call after a config hot-reload
// (see config.Watcher) so new category/level settings take effect.
func ReloadConfig() error {
	return loadConfig()
}

// IsDebugMode reports whether debug logging is enabled.
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled reports whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !cfg.DebugMode {
		return false
	}
	if cfg.Categories == nil {
		return true
	}
	enabled, exists := cfg.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category. Returns a no-op
// logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", date, category)
	logPath := filepath.Join(logsDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Structured returns the zap-backed structured sink. The compaction Observer
// and the tool-health tracker keep their own in-memory records and do not
// write to it. Safe to call before Initialize; returns a no-op sugared
// logger in that case.
func Structured() *zap.SugaredLogger {
	structuredMu.RLock()
	defer structuredMu.RUnlock()
	if structured == nil {
		return zap.NewNop().Sugar()
	}
	return structured
}

func (l *Logger) logJSON(level, msg string) {
	entry := StructuredLogEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf("[%s] %s", level, msg)
		return
	}
	l.logger.Printf("%s", data)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if cfg.JSONFormat {
		l.logJSON("debug", msg)
	} else {
		l.logger.Printf("[DEBUG] %s", msg)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if cfg.JSONFormat {
		l.logJSON("info", msg)
	} else {
		l.logger.Printf("[INFO] %s", msg)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if cfg.JSONFormat {
		l.logJSON("warn", msg)
	} else {
		l.logger.Printf("[WARN] %s", msg)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if cfg.JSONFormat {
		l.logJSON("error", msg)
	} else {
		l.logger.Printf("[ERROR] %s", msg)
	}
}

// StructuredLog writes a fully structured record with custom fields to the
// category's file log (not the zap sink — see Structured for that).
func (l *Logger) StructuredLog(level, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	entry := StructuredLogEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	if cfg.JSONFormat {
		if data, err := json.Marshal(entry); err == nil {
			l.logger.Printf("%s", data)
			return
		}
	}
	l.logger.Printf("[%s] %s | fields=%v", level, msg, fields)
}

// CloseAll closes all open log files. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
	structuredMu.Lock()
	if structured != nil {
		_ = structured.Sync()
	}
	structuredMu.Unlock()
}

// Timer helps measure operation duration for a category.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}

// Convenience per-category helpers, matching the teacher's Boot/BootDebug style.

func Escalation(format string, args ...interface{})      { Get(CategoryEscalation).Info(format, args...) }
func EscalationDebug(format string, args ...interface{}) { Get(CategoryEscalation).Debug(format, args...) }
func EscalationWarn(format string, args ...interface{})  { Get(CategoryEscalation).Warn(format, args...) }

func Routing(format string, args ...interface{})      { Get(CategoryRouting).Info(format, args...) }
func RoutingDebug(format string, args ...interface{}) { Get(CategoryRouting).Debug(format, args...) }

func Debate(format string, args ...interface{})      { Get(CategoryDebate).Info(format, args...) }
func DebateDebug(format string, args ...interface{}) { Get(CategoryDebate).Debug(format, args...) }
func DebateWarn(format string, args ...interface{})  { Get(CategoryDebate).Warn(format, args...) }

func Memory(format string, args ...interface{})      { Get(CategoryMemory).Info(format, args...) }
func MemoryDebug(format string, args ...interface{}) { Get(CategoryMemory).Debug(format, args...) }
func MemoryWarn(format string, args ...interface{})  { Get(CategoryMemory).Warn(format, args...) }

func Capability(format string, args ...interface{})      { Get(CategoryCapability).Info(format, args...) }
func CapabilityDebug(format string, args ...interface{}) { Get(CategoryCapability).Debug(format, args...) }

func Verifier(format string, args ...interface{})      { Get(CategoryVerifier).Info(format, args...) }
func VerifierDebug(format string, args ...interface{}) { Get(CategoryVerifier).Debug(format, args...) }

func Checkpoint(format string, args ...interface{})      { Get(CategoryCheckpoint).Info(format, args...) }
func CheckpointDebug(format string, args ...interface{}) { Get(CategoryCheckpoint).Debug(format, args...) }
func CheckpointWarn(format string, args ...interface{})  { Get(CategoryCheckpoint).Warn(format, args...) }

func Perf(format string, args ...interface{})      { Get(CategoryPerf).Info(format, args...) }
func PerfDebug(format string, args ...interface{}) { Get(CategoryPerf).Debug(format, args...) }
func PerfWarn(format string, args ...interface{})  { Get(CategoryPerf).Warn(format, args...) }

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
