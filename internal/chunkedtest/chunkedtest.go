// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chunkedtest runs testdata scripts that carry their own error
// expectations.
//
// A script consists of chunks of Kaleidoscope source separated by
// "---" lines; each chunk is fed to a fresh session. A "###" marker on
// a line declares that evaluating the chunk must produce an error on
// that line; the text after the marker is a Go string literal holding
// a regular expression the error message must match. "#" starts a
// comment in Kaleidoscope, so the markers are invisible to the
// scanner.
//
// Example:
//
//	def f(x) x + y ### "unknown variable name"
//	---
//	def twice(x) x * 2
//	twice(21)
package chunkedtest // import "github.com/LiarPrincess/Kaleidoscope/internal/chunkedtest"

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// A Chunk is one section of a script, with the errors it expects.
type Chunk struct {
	Source   string // chunk text, padded so line numbers match the file
	filename string
	report   Reporter
	wantErrs map[int]*regexp.Regexp
}

// Reporter is implemented by *testing.T.
type Reporter interface {
	Errorf(format string, args ...interface{})
}

// Read parses a chunked script and returns its chunks.
// It reports malformed expectations using the reporter.
func Read(filename string, report Reporter) (chunks []Chunk) {
	data, err := os.ReadFile(filename)
	if err != nil {
		report.Errorf("%s", err)
		return
	}

	linenum := 1
	for _, chunk := range strings.Split(string(data), "\n---\n") {
		// Pad with newlines so positions match the original file.
		src := strings.Repeat("\n", linenum-1) + chunk

		wantErrs := make(map[int]*regexp.Regexp)
		for _, line := range strings.Split(chunk, "\n") {
			if i := strings.Index(line, "###"); i >= 0 {
				quoted := strings.TrimSpace(line[i+len("###"):])
				pattern, err := strconv.Unquote(quoted)
				if err != nil {
					report.Errorf("\n%s:%d: not a quoted regexp: %s", filename, linenum, quoted)
				} else if rx, err := regexp.Compile(pattern); err != nil {
					report.Errorf("\n%s:%d: %v", filename, linenum, err)
				} else {
					wantErrs[linenum] = rx
				}
			}
			linenum++
		}
		linenum++ // the --- separator line

		chunks = append(chunks, Chunk{src, filename, report, wantErrs})
	}
	return chunks
}

// GotError is called by the client for each error the chunk actually
// produced. Unexpected errors are reported to the chunk's reporter.
func (chunk *Chunk) GotError(linenum int, msg string) {
	if rx, ok := chunk.wantErrs[linenum]; ok {
		delete(chunk.wantErrs, linenum)
		if !rx.MatchString(msg) {
			chunk.report.Errorf("\n%s:%d: error %q does not match pattern %q", chunk.filename, linenum, msg, rx)
		}
	} else {
		chunk.report.Errorf("\n%s:%d: unexpected error: %v", chunk.filename, linenum, msg)
	}
}

// Done is called by the client once the chunk has run; expected errors
// that never occurred are reported.
func (chunk *Chunk) Done() {
	for linenum, rx := range chunk.wantErrs {
		chunk.report.Errorf("\n%s:%d: expected error matching %q", chunk.filename, linenum, rx)
	}
}
