// Copyright 2025 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/EngFlow/gazelle_glsl/internal/collections"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/parser"
	"github.com/EngFlow/gazelle_glsl/internal/glsl/preprocessor"
)

// diagnostic is an error reported for an input. Line is 0 when the error has no position.
type diagnostic struct {
	file         string
	line, column int
	message      string
}

func diagnose(input string, err error) diagnostic {
	var errorDirective *preprocessor.ErrorDirective
	var includeErr *preprocessor.IncludeError
	var parseErr *preprocessor.ParseError
	var syntaxErr *parser.SyntaxError
	switch {
	case errors.As(err, &errorDirective):
		return diagnostic{
			file:    errorDirective.File,
			line:    errorDirective.Location.Line,
			column:  errorDirective.Location.Column,
			message: "#error " + errorDirective.Message,
		}
	case errors.As(err, &includeErr):
		return diagnostic{
			file:    includeErr.File,
			line:    includeErr.Location.Line,
			column:  includeErr.Location.Column,
			message: fmt.Sprintf("#include %q: %v", includeErr.Path, includeErr.Err),
		}
	case errors.As(err, &parseErr) && errors.As(parseErr.Err, &syntaxErr):
		return diagnostic{
			file:    parseErr.File,
			line:    syntaxErr.Location.Line,
			column:  syntaxErr.Location.Column,
			message: fmt.Sprintf("syntax error: unexpected %v", syntaxErr.Found),
		}
	}
	return diagnostic{file: input, message: err.Error()}
}

func compareDiagnostics(a, b diagnostic) int {
	return cmp.Or(
		cmp.Compare(a.file, b.file),
		cmp.Compare(a.line, b.line),
		cmp.Compare(a.column, b.column),
		cmp.Compare(a.message, b.message),
	)
}

// Collects diagnostics from concurrent workers and reports them ordered by position.
type diagnostics struct {
	queue *collections.PriorityQueue[diagnostic]
}

func newDiagnostics() *diagnostics {
	return &diagnostics{queue: collections.NewPriorityQueue(func(a, b diagnostic) bool { return compareDiagnostics(a, b) < 0 })}
}

func (d *diagnostics) add(input string, err error) {
	d.queue.Push(diagnose(input, err))
}

func (d *diagnostics) len() int { return d.queue.Len() }

const (
	colorRed   = "\x1b[1;31m"
	colorBold  = "\x1b[1m"
	colorReset = "\x1b[0m"
)

func (d *diagnostics) write(w io.Writer, color bool) {
	for _, diag := range d.queue.Drain() {
		position := diag.file
		if diag.line > 0 {
			position = fmt.Sprintf("%s:%d:%d", diag.file, diag.line, diag.column)
		}
		if color {
			fmt.Fprintf(w, "%s%s:%s %serror:%s %s\n", colorBold, position, colorReset, colorRed, colorReset, diag.message)
		} else {
			fmt.Fprintf(w, "%s: error: %s\n", position, diag.message)
		}
	}
}

// Resolves the -color flag: auto colors only when w is a terminal.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
