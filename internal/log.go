// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Process-wide log writer. Writes to stdout, and optionally to a file.
// Does not add prefixes, or force newlines.

// The optional additional file to log into
var logFile *bufio.Writer
var logFileOS *os.File

// Destination of console output, replaced in tests
var stdout io.Writer = os.Stdout

type teeWriter struct{}

func (teeWriter) Write(p []byte) (n int, err error) {
	n, err = stdout.Write(p)
	if err != nil || logFile == nil {
		return n, err
	}
	return logFile.Write(p)
}

// Log writer for components which take an io.Writer, e.g. the preview context
var Log io.Writer = teeWriter{}

// Enables logging to file in addition to stdout. Replaces any previous log file
func LogAlsoToFile(fileName string) (err error) {
	if err = logClose(); err != nil {
		return err
	}
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFileOS, logFile = f, bufio.NewWriter(f)
	return nil
}

func logClose() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Flush()
	if cerr := logFileOS.Close(); err == nil {
		err = cerr
	}
	logFile, logFileOS = nil, nil
	return err
}

func LogPrintf(format string, args ...interface{}) (n int, err error) {
	return fmt.Fprintf(Log, format, args...)
}

func LogPrintln(args ...interface{}) (n int, err error) {
	return fmt.Fprintln(Log, args...)
}

func LogFatalf(format string, args ...interface{}) {
	fmt.Fprintf(Log, format, args...)
	logClose()
	os.Exit(1)
}

// Flushes the log file, if any, to disk
func LogSync() error {
	if logFile == nil {
		return nil
	}
	if err := logFile.Flush(); err != nil {
		return err
	}
	return logFileOS.Sync()
}
