package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const maxLineBytes = 1024 * 1024

// TailOptions selects which lines Tail returns. A negative Offset reads the
// last Limit lines; otherwise lines after Offset are returned.
type TailOptions struct {
	Offset int64
	Limit  int
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads path according to opts. A missing file yields no lines and a
// zero offset, since run logs only appear once a run starts.
func Tail(path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{}, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Offset < 0 {
		return readLast(path, opts.Limit)
	}
	offset := opts.Offset
	if offset > info.Size() {
		// Truncated or rotated; start over.
		offset = 0
	}
	return readFrom(path, offset)
}

// Follow polls path every interval and hands appended lines to fn until ctx
// ends or fn fails. It returns nil when ctx is cancelled.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, fn func([]string) error) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		result, err := Tail(path, TailOptions{Offset: offset})
		if err != nil {
			return err
		}
		offset = result.Offset
		if len(result.Lines) > 0 {
			if err := fn(result.Lines); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readLast(path string, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return TailResult{}, fmt.Errorf("seek log file: %w", err)
		}
		return TailResult{Offset: end}, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	end, err := scanLines(file, func(line string) {
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return TailResult{}, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range lines {
			lines[i] = ring[(next+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

func readFrom(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	end, err := scanLines(file, func(line string) { lines = append(lines, line) })
	if err != nil {
		return TailResult{Offset: offset}, err
	}
	return TailResult{Lines: lines, Offset: offset + end}, nil
}

// scanLines feeds every complete line to fn and returns the number of bytes
// consumed. A trailing partial line is left for the next read.
func scanLines(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		fn(trimNewline(line))
	}
}

func trimNewline(line string) string {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
