package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config provides logging configuration for the harness binaries
type Config struct {
	// Performance settings
	DisableCaller     bool // Disable caller information for performance
	DisableStacktrace bool // Disable stacktraces for performance
	SamplingEnabled   bool // Enable sampling to reduce log volume

	// Sampling configuration
	SamplingInitial    int // Initial sampling rate
	SamplingThereafter int // Subsequent sampling rate

	// Output settings
	OutputPaths      []string // Output file paths
	ErrorOutputPaths []string // Error output file paths

	// Level settings
	Level zapcore.Level // Minimum log level
}

// NewLogger creates a zap logger from the given configuration
func NewLogger(config Config) (*zap.Logger, error) {
	// Set defaults
	if config.SamplingInitial == 0 {
		config.SamplingInitial = 100
	}
	if config.SamplingThereafter == 0 {
		config.SamplingThereafter = 100
	}
	if len(config.OutputPaths) == 0 {
		config.OutputPaths = []string{"stderr"}
	}
	if len(config.ErrorOutputPaths) == 0 {
		config.ErrorOutputPaths = []string{"stderr"}
	}

	zapConfig := zap.NewProductionConfig()

	zapConfig.EncoderConfig.TimeKey = "ts"
	zapConfig.EncoderConfig.LevelKey = "level"
	zapConfig.EncoderConfig.MessageKey = "msg"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	// Disable expensive features if requested
	if config.DisableCaller {
		zapConfig.EncoderConfig.CallerKey = ""
	}
	if config.DisableStacktrace {
		zapConfig.EncoderConfig.StacktraceKey = ""
	}

	// Configure sampling
	if config.SamplingEnabled {
		zapConfig.Sampling = &zap.SamplingConfig{
			Initial:    config.SamplingInitial,
			Thereafter: config.SamplingThereafter,
		}
	} else {
		zapConfig.Sampling = nil
	}

	zapConfig.Level = zap.NewAtomicLevelAt(config.Level)
	zapConfig.OutputPaths = config.OutputPaths
	zapConfig.ErrorOutputPaths = config.ErrorOutputPaths

	zapLog, err := zapConfig.Build(
		zap.AddStacktrace(zapcore.DPanicLevel), // Only stacktrace for critical errors
	)
	if err != nil {
		return nil, err
	}

	return zapLog, nil
}

// GetRunnerConfig returns a configuration for the runner and report CLIs.
// The CLIs print their own progress to stdout, so structured logs go to stderr
// and stay out of the way unless something goes wrong.
func GetRunnerConfig() Config {
	return Config{
		DisableCaller:     true,
		DisableStacktrace: true,
		SamplingEnabled:   false,
		Level:             zapcore.InfoLevel,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// GetServerConfig returns a configuration for the long-running report server
func GetServerConfig() Config {
	return Config{
		DisableCaller:      false,
		DisableStacktrace:  true,
		SamplingEnabled:    true,
		SamplingInitial:    100,
		SamplingThereafter: 100,
		Level:              zapcore.InfoLevel,
		OutputPaths:        []string{"stdout"},
		ErrorOutputPaths:   []string{"stderr"},
	}
}

// GetDebugConfig returns a configuration for development/debugging
func GetDebugConfig() Config {
	return Config{
		DisableCaller:     false,
		DisableStacktrace: false,
		SamplingEnabled:   false,
		Level:             zapcore.DebugLevel,
	}
}

// ParseLevel maps a configured level string onto a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
