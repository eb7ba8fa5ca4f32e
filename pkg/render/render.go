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

package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/walteh/repomd/pkg/fetcher"
	"github.com/walteh/repomd/pkg/language"
)

// 📣 FileEvent describes one rendered entry for observers
type FileEvent struct {
	Path     string // Relative path of the entry
	Language string // Language tag used on the fence
	Remote   bool   // Whether content came from a remote URL
	Failed   bool   // Whether a placeholder was substituted
}

// 🔧 Options configures a Renderer
type Options struct {
	Languages  *language.Table // Tag lookup, Default() when nil
	BasePath   string          // Optional prefix joined into each entry's display directory
	HTTPClient *http.Client    // Client for remote content, DefaultClient when nil
	Observer   func(FileEvent) // Optional per-file callback
}

// 🎯 Renderer turns fetched entries into one Markdown document.
// Content-read failures become inline placeholders, never errors.
type Renderer struct {
	langs      *language.Table
	basePath   string
	httpClient *http.Client
	observer   func(FileEvent)
}

// 🏭 New creates a new Renderer
func New(opts Options) *Renderer {
	langs := opts.Languages
	if langs == nil {
		langs = language.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Renderer{
		langs:      langs,
		basePath:   opts.BasePath,
		httpClient: httpClient,
		observer:   opts.Observer,
	}
}

// 📝 Render emits a heading, a path line and a fenced code block per entry,
// in input order
func (r *Renderer) Render(ctx context.Context, entries []fetcher.Entry) string {
	logger := zerolog.Ctx(ctx)

	var doc strings.Builder
	for _, entry := range entries {
		name := path.Base(entry.RelativePath)
		dir := path.Dir(entry.RelativePath)
		if dir == "." {
			dir = ""
		}
		display := path.Join(r.basePath, dir)

		content, failed := r.readContent(ctx, entry)
		logger.Debug().Str("path", entry.RelativePath).Int("bytes", len(content)).Bool("failed", failed).Msg("rendered file")

		tag := r.langs.TagFor(name)
		if r.observer != nil {
			r.observer(FileEvent{
				Path:     entry.RelativePath,
				Language: tag,
				Remote:   entry.IsRemote(),
				Failed:   failed,
			})
		}

		fmt.Fprintf(&doc, "### %s\n", name)
		fmt.Fprintf(&doc, "**Path**: `%s`\n\n", display)
		fmt.Fprintf(&doc, "```%s\n", tag)
		doc.WriteString(content)
		doc.WriteString("\n```\n\n")
	}

	return doc.String()
}

// 📥 readContent fetches or reads an entry's content, substituting a
// placeholder on any failure
func (r *Renderer) readContent(ctx context.Context, entry fetcher.Entry) (string, bool) {
	if entry.IsRemote() {
		return r.readRemote(ctx, entry.RemoteURL)
	}
	return readLocal(entry.LocalPath)
}

// 🌐 readRemote performs a synchronous fetch of a raw content URL
func (r *Renderer) readRemote(ctx context.Context, url string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Sprintf("[failed to download content: %v]", err), true
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("[failed to download content: %v]", err), true
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("[failed to download content: status %d]", resp.StatusCode), true
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("[failed to download content: %v]", err), true
	}

	return decodeText(data), false
}

// 📄 readLocal reads a file from the extracted archive
func readLocal(localPath string) (string, bool) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Sprintf("[failed to read file: %v]", err), true
	}
	return decodeText(data), false
}

// 🔤 decodeText interprets bytes as UTF-8, falling back to Latin-1 when the
// bytes are not valid UTF-8
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
