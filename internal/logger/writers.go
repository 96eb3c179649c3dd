package logger

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// flushLoop calls flush every interval until done is closed.
func flushLoop(interval time.Duration, done <-chan struct{}, flush func() error, logger *zap.Logger, path string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := flush(); err != nil {
				logger.Error("Periodic flush failed", zap.String("file", path), zap.Error(err))
			}
		case <-done:
			return
		}
	}
}

func openAppend(filePath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// SafeFileWriter is a buffered line writer safe for concurrent use.
// Buffered data reaches disk on Flush, on Close and every flushInterval.
type SafeFileWriter struct {
	mu       sync.Mutex
	writer   *bufio.Writer
	file     *os.File
	done     chan struct{}
	once     sync.Once
	logger   *zap.Logger
	filePath string

	writtenLines uint64
	flushCount   uint64
}

// NewSafeFileWriter opens filePath for appending.
func NewSafeFileWriter(filePath string, flushInterval time.Duration, logger *zap.Logger) (*SafeFileWriter, error) {
	file, err := openAppend(filePath)
	if err != nil {
		return nil, err
	}
	sfw := &SafeFileWriter{
		writer:   bufio.NewWriter(file),
		file:     file,
		done:     make(chan struct{}),
		logger:   logger,
		filePath: filePath,
	}
	go flushLoop(flushInterval, sfw.done, sfw.Flush, logger, filePath)
	return sfw, nil
}

// WriteLine writes line followed by a newline.
func (sfw *SafeFileWriter) WriteLine(line []byte) error {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()

	if _, err := sfw.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	if err := sfw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	sfw.writtenLines++
	return nil
}

// Flush forces a write of any buffered data
func (sfw *SafeFileWriter) Flush() error {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()

	if err := sfw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	if err := sfw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	sfw.flushCount++
	return nil
}

// Close stops the flush loop, flushes and closes the file. Safe to call twice.
func (sfw *SafeFileWriter) Close() error {
	var err error
	sfw.once.Do(func() {
		close(sfw.done)

		sfw.mu.Lock()
		defer sfw.mu.Unlock()
		if ferr := sfw.writer.Flush(); ferr != nil {
			err = fmt.Errorf("failed to flush on close: %w", ferr)
			sfw.file.Close()
			return
		}
		if cerr := sfw.file.Close(); cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
			return
		}
		sfw.logger.Debug("Safe file writer closed",
			zap.String("file", sfw.filePath),
			zap.Uint64("writtenLines", sfw.writtenLines),
			zap.Uint64("flushCount", sfw.flushCount))
	})
	return err
}

// GetStats returns writer statistics
func (sfw *SafeFileWriter) GetStats() (lines, flushes uint64) {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()
	return sfw.writtenLines, sfw.flushCount
}

// SafeCSVWriter provides thread-safe CSV writing
type SafeCSVWriter struct {
	mu       sync.Mutex
	writer   *csv.Writer
	file     *os.File
	done     chan struct{}
	once     sync.Once
	logger   *zap.Logger
	filePath string

	writtenRecords uint64
	flushCount     uint64
}

// NewSafeCSVWriter opens filePath for appending and writes header when the
// file is empty.
func NewSafeCSVWriter(filePath string, header []string, flushInterval time.Duration, logger *zap.Logger) (*SafeCSVWriter, error) {
	file, err := openAppend(filePath)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	scw := &SafeCSVWriter{
		writer:   csv.NewWriter(file),
		file:     file,
		done:     make(chan struct{}),
		logger:   logger,
		filePath: filePath,
	}

	if stat.Size() == 0 && len(header) > 0 {
		// Заголовок не учитывается в writtenRecords
		if err := scw.writer.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		scw.writer.Flush()
	}

	go flushLoop(flushInterval, scw.done, scw.Flush, logger, filePath)
	return scw, nil
}

// WriteRecord writes a CSV record in a thread-safe manner
func (scw *SafeCSVWriter) WriteRecord(record []string) error {
	scw.mu.Lock()
	defer scw.mu.Unlock()

	if err := scw.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	scw.writtenRecords++
	return nil
}

// Flush forces a write of any buffered data
func (scw *SafeCSVWriter) Flush() error {
	scw.mu.Lock()
	defer scw.mu.Unlock()

	scw.writer.Flush()
	if err := scw.writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	if err := scw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	scw.flushCount++
	return nil
}

// Close stops the flush loop, flushes and closes the file. Safe to call twice.
func (scw *SafeCSVWriter) Close() error {
	var err error
	scw.once.Do(func() {
		close(scw.done)

		scw.mu.Lock()
		defer scw.mu.Unlock()
		scw.writer.Flush()
		if werr := scw.writer.Error(); werr != nil {
			err = fmt.Errorf("CSV writer error on close: %w", werr)
			scw.file.Close()
			return
		}
		if cerr := scw.file.Close(); cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
			return
		}
		scw.logger.Debug("Safe CSV writer closed",
			zap.String("file", scw.filePath),
			zap.Uint64("writtenRecords", scw.writtenRecords),
			zap.Uint64("flushCount", scw.flushCount))
	})
	return err
}

// GetStats returns CSV writer statistics
func (scw *SafeCSVWriter) GetStats() (records, flushes uint64) {
	scw.mu.Lock()
	defer scw.mu.Unlock()
	return scw.writtenRecords, scw.flushCount
}
