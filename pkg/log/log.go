// Copyright 2025 walteh LLC
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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent = 4  // spaces to indent file entries
	nameWidth  = 45 // Base width for file path
	langWidth  = 12 // Width for language tag
)

// 🎯 FileRender represents one rendered file for logging
type FileRender struct {
	Path     string // Relative file path
	Language string // Language tag used on the code block
	Remote   bool   // Whether content came from a remote URL
	Failed   bool   // Whether a placeholder was substituted
}

// 📦 SourceOperation represents a source fetch for logging
type SourceOperation struct {
	Repo   string // owner/repo
	Ref    string // Branch, empty when the default branch is used
	Mode   string // repository, directory or file
	Target string // In-repo path, empty in repository mode
}

// 🎯 Logger pairs structured zerolog output with an aligned console display
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	mu        sync.Mutex
	currentOp *SourceOperation
	rendered  []FileRender
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileRender formats a rendered file for display
func (l *Logger) formatFileRender(fr FileRender) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case fr.Failed:
		symbol = '✗'
		symbolColor = color.FgRed
	case fr.Remote:
		symbol = '↓'
		symbolColor = color.FgBlue
	default:
		symbol = '✓'
		symbolColor = color.FgGreen
	}

	lang := fr.Language
	if lang == "" {
		lang = "plain"
	}

	return fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, fr.Path),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", langWidth, lang)))
}

// 📝 LogFileRender logs one rendered file
func (l *Logger) LogFileRender(ctx context.Context, fr FileRender) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rendered = append(l.rendered, fr)

	fmt.Fprintln(l.console, l.formatFileRender(fr))

	l.zlog.Info().
		Str("file", fr.Path).
		Str("language", fr.Language).
		Bool("remote", fr.Remote).
		Bool("failed", fr.Failed).
		Msg("rendered file")
}

// 📝 StartSourceOperation starts a new source fetch operation
func (l *Logger) StartSourceOperation(ctx context.Context, op SourceOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.rendered = nil

	ref := op.Ref
	if ref == "" {
		ref = "default branch"
	}

	fmt.Fprintf(l.console, "[fetching %s]\n",
		color.New(color.FgCyan).Sprint(op.Mode))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Repo),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(ref))

	l.zlog.Info().
		Str("repo", op.Repo).
		Str("ref", op.Ref).
		Str("mode", op.Mode).
		Str("target", op.Target).
		Msg("starting source operation")
}

// 📝 EndSourceOperation ends the current source operation
func (l *Logger) EndSourceOperation(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	l.zlog.Info().
		Str("repo", l.currentOp.Repo).
		Int("files", len(l.rendered)).
		Msg("source operation complete")

	l.currentOp = nil
	l.rendered = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	nameText := color.New(color.Bold, color.FgCyan).Sprint("repomd")
	fmt.Fprintf(l.console, "\n%s %s\n\n", nameText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}
