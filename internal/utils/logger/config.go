// internal/utils/logger/config.go
package logger

import "go.uber.org/zap/zapcore"

type Config struct {
	LogFile    string
	MaxSize    int  // мегабайты
	MaxAge     int  // дни
	MaxBackups int  // количество файлов
	Compress   bool // сжимать ротированные файлы
	Debug      bool

	// Console overrides the stdout core, e.g. a TUI log buffer.
	// nil keeps the pretty stdout encoder.
	Console zapcore.Core
	// NoConsole disables console output entirely.
	NoConsole bool
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		LogFile:    "logs/openpump.log",
		MaxSize:    100,  // 100 MB
		MaxAge:     7,    // 7 дней
		MaxBackups: 3,    // 3 файла
		Compress:   true, // сжимать старые логи
	}
}
