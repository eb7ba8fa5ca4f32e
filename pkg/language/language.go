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

package language

import (
	"path/filepath"
	"strings"
)

// 🗺️ Table maps lowercase file extensions (with leading dot) to the
// language tag used on fenced code blocks. Read-only after construction.
type Table struct {
	tags map[string]string
}

// 🏭 Default returns the built-in extension table
func Default() *Table {
	return &Table{tags: map[string]string{
		".py":    "python",
		".c":     "c",
		".cpp":   "cpp",
		".h":     "c",
		".hpp":   "cpp",
		".java":  "java",
		".js":    "javascript",
		".ts":    "typescript",
		".rb":    "ruby",
		".go":    "go",
		".cs":    "csharp",
		".swift": "swift",
		".kt":    "kotlin",
		".php":   "php",
		".rs":    "rust",
		".html":  "html",
		".css":   "css",
		".md":    "markdown",
		".sh":    "bash",
		".yaml":  "yaml",
		".yml":   "yaml",
		".json":  "json",
		".toml":  "toml",
	}}
}

// 🔧 Merge returns a copy of the table with the given overrides applied.
// Keys are normalized to lowercase with a leading dot.
func (t *Table) Merge(overrides map[string]string) *Table {
	merged := make(map[string]string, len(t.tags)+len(overrides))
	for ext, tag := range t.tags {
		merged[ext] = tag
	}
	for ext, tag := range overrides {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		merged[ext] = tag
	}
	return &Table{tags: merged}
}

// 🔍 Lookup returns the language tag for an extension
func (t *Table) Lookup(ext string) (string, bool) {
	tag, ok := t.tags[strings.ToLower(ext)]
	return tag, ok
}

// 🔍 Supports reports whether the file name has a mapped extension
func (t *Table) Supports(name string) bool {
	_, ok := t.Lookup(filepath.Ext(name))
	return ok
}

// 🏷️ TagFor returns the language tag for a file name, empty if unmapped
func (t *Table) TagFor(name string) string {
	tag, _ := t.Lookup(filepath.Ext(name))
	return tag
}
