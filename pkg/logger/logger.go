package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Formatos de salida admitidos.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config opciones para el logger.
type Config struct {
	Service string    // se agrega como campo service en cada evento
	Env     string    // development, staging, production
	Level   string    // trace, debug, info, warn, error (vacío = info)
	Format  string    // json o console; vacío = console en development, json en el resto
	Output  io.Writer // nil = stdout
}

// Logger wrapper sobre zerolog para inyección y consistencia.
type Logger struct {
	zl zerolog.Logger
}

// New crea un logger estructurado con timestamps UTC y los campos service y env.
// Un nivel o formato desconocido cae en info/json; config.Load los valida antes.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if resolveFormat(cfg) == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	if cfg.Env != "" {
		ctx = ctx.Str("env", cfg.Env)
	}
	zl := ctx.Logger()

	// Redirigir el logger global de zerolog para librerías que lo usen
	log.Logger = zl

	return &Logger{zl: zl}
}

// ParseLevel traduce LOG_LEVEL. Vacío equivale a info.
func ParseLevel(s string) (zerolog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return zerolog.InfoLevel, nil
	case "trace", "debug", "info", "warn", "error":
		return zerolog.ParseLevel(name)
	}
	return zerolog.NoLevel, fmt.Errorf("logger: nivel %q no soportado", s)
}

// ValidateFormat acepta json, console o vacío.
func ValidateFormat(s string) error {
	switch s {
	case "", FormatJSON, FormatConsole:
		return nil
	}
	return fmt.Errorf("logger: formato %q no soportado", s)
}

func resolveFormat(cfg Config) string {
	switch cfg.Format {
	case FormatJSON, FormatConsole:
		return cfg.Format
	}
	if cfg.Format == "" && cfg.Env == "development" {
		return FormatConsole
	}
	return FormatJSON
}

// Trace, Debug, Info, Warn, Error delegados a zerolog.
func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With crea un sublogger con campos fijos.
func (l *Logger) With() zerolog.Context {
	return l.zl.With()
}

// Component deriva un sublogger etiquetado con component=<name>.
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

// Nop logger descartable para tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}
