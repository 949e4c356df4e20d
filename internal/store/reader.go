package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/model"
)

// maxLineBytes bounds a single JSONL line; a run-away description or
// metadata blob beyond this is a parse error rather than an OOM.
const maxLineBytes = 64 * 1024 * 1024

// ReadAll streams every record out of an open reader, line by line, so the
// whole file never needs to sit in memory during the scan itself (the
// returned slice still does, but peak usage is bounded by one line at a
// time during the read).
func ReadAll(r io.Reader) ([]model.Record, error) {
	var records []model.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec model.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errs.ParseErr(lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.Io, err, "scanning jsonl stream")
	}
	return records, nil
}

// ReadFile opens path and streams its records through ReadAll. A missing
// file is reported as zero records, not an error: a brand new repo has no
// active store until the first create.
func ReadFile(path string) ([]model.Record, error) {
	// #nosec G304 -- path is the caller-configured active/archive store path
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.Io, err, "opening %s", path)
	}
	defer f.Close()

	records, err := ReadAll(f)
	if err != nil {
		if perr, ok := err.(*errs.Error); ok {
			perr.Message = fmt.Sprintf("%s: %s", path, perr.Message)
		}
		return nil, err
	}
	return records, nil
}
