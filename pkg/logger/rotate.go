package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/natefinch/lumberjack.v2"
)

const dateLayout = "2006-01-02"

// RotateConfig describes one date-keyed log destination, e.g. logs/error-2026-10-18.log.
type RotateConfig struct {
	Dir        string
	Prefix     string
	MaxSizeMB  int
	MaxAgeDays int
	Compress   bool
}

// DailyFile is an io.WriteCloser that opens a new file every calendar day.
// Within a day lumberjack caps the file size; when the day changes the previous
// file is gzipped and files past the retention window are removed.
type DailyFile struct {
	cfg RotateConfig
	now func() time.Time

	mu      sync.Mutex
	day     string
	current *lumberjack.Logger
}

func NewDailyFile(cfg RotateConfig) *DailyFile {
	return &DailyFile{cfg: cfg, now: time.Now}
}

// Filename returns the path written to on the given day.
func (d *DailyFile) Filename(day time.Time) string {
	return filepath.Join(d.cfg.Dir, d.cfg.Prefix+"-"+day.Format(dateLayout)+".log")
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if day := now.Format(dateLayout); d.current == nil || day != d.day {
		d.rollover(now)
	}
	return d.current.Write(p)
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return nil
	}
	err := d.current.Close()
	d.current = nil
	return err
}

func (d *DailyFile) rollover(now time.Time) {
	if prev := d.current; prev != nil {
		_ = prev.Close()
		if d.cfg.Compress {
			_ = compressFile(prev.Filename)
		}
	} else if d.cfg.Compress {
		d.compressLeftovers(now)
	}

	d.day = now.Format(dateLayout)
	d.current = &lumberjack.Logger{
		Filename:  d.Filename(now),
		MaxSize:   d.cfg.MaxSizeMB,
		MaxAge:    d.cfg.MaxAgeDays,
		Compress:  d.cfg.Compress,
		LocalTime: true,
	}
	d.prune(now)
}

// compressLeftovers gzips plain files from earlier days left behind by a
// previous process that stopped before its day rolled over.
func (d *DailyFile) compressLeftovers(now time.Time) {
	matches, err := filepath.Glob(filepath.Join(d.cfg.Dir, d.cfg.Prefix+"-*.log"))
	if err != nil {
		return
	}
	today := now.Format(dateLayout)
	for _, path := range matches {
		day := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), d.cfg.Prefix+"-"), ".log")
		if _, err := time.ParseInLocation(dateLayout, day, now.Location()); err != nil {
			continue
		}
		if day < today {
			_ = compressFile(path)
		}
	}
}

// prune removes this destination's files older than MaxAgeDays.
func (d *DailyFile) prune(now time.Time) {
	if d.cfg.MaxAgeDays <= 0 {
		return
	}
	matches, err := filepath.Glob(filepath.Join(d.cfg.Dir, d.cfg.Prefix+"-*.log*"))
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -d.cfg.MaxAgeDays)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(path)
		}
	}
}

func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	dst, err := os.OpenFile(path+".gz", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(dst)
	if _, err := io.Copy(zw, src); err != nil {
		_ = zw.Close()
		_ = dst.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	// Keep the original age so retention counts from the day the lines were written.
	_ = os.Chtimes(path+".gz", info.ModTime(), info.ModTime())
	return os.Remove(path)
}
