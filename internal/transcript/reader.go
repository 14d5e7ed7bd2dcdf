// Package transcript reads newly appended bytes from a Claude Code JSONL
// transcript and extracts usage figures from them.
package transcript

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoTranscript is returned by ReadNew when the transcript file is absent.
var ErrNoTranscript = errors.New("transcript not found")

// Batch is the byte range appended since the previous read.
type Batch struct {
	// Lines holds the new range split on '\n'. Empty when nothing was appended.
	Lines []string
	// Offset is where the read started.
	Offset int64
	// Size is the file size observed at read time. Callers store it as the
	// next offset whether or not any line was useful.
	Size int64
	// Truncated reports that the file was smaller than the recorded offset.
	Truncated bool
}

// Empty reports whether the batch carries no new bytes.
func (b Batch) Empty() bool {
	return len(b.Lines) == 0
}

// ReadNew returns the bytes of path from lastOffset to the current size.
//
// If the file shrank below lastOffset the returned batch is empty with
// Truncated set and Size holding the new size; deciding whether to re-read
// from zero is left to the caller.
func ReadNew(path string, lastOffset int64) (batch Batch, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Batch{Offset: lastOffset, Size: lastOffset}, ErrNoTranscript
		}
		return Batch{Offset: lastOffset, Size: lastOffset}, fmt.Errorf("open transcript: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return Batch{Offset: lastOffset, Size: lastOffset}, fmt.Errorf("stat transcript: %w", err)
	}
	size := info.Size()

	switch {
	case size < lastOffset:
		return Batch{Offset: lastOffset, Size: size, Truncated: true}, nil
	case size == lastOffset:
		return Batch{Offset: lastOffset, Size: size}, nil
	}

	// Read exactly the range observed by Stat; bytes appended after that
	// belong to the next invocation.
	buf := make([]byte, size-lastOffset)
	if _, err := f.ReadAt(buf, lastOffset); err != nil && !errors.Is(err, io.EOF) {
		return Batch{Offset: lastOffset, Size: lastOffset}, fmt.Errorf("read transcript: %w", err)
	}

	return Batch{
		Lines:  splitLines(buf),
		Offset: lastOffset,
		Size:   size,
	}, nil
}

func splitLines(buf []byte) []string {
	parts := bytes.Split(buf, []byte{'\n'})
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, string(p))
	}
	// A trailing newline leaves one empty element behind.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
