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

// Package repomd turns a GitHub URL into a single Markdown document of
// syntax-highlighted code blocks. The pipeline is strictly sequential:
// resolve the URL, fetch the entries, render the document.
package repomd

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repomd/pkg/fetcher"
	"github.com/walteh/repomd/pkg/language"
	"github.com/walteh/repomd/pkg/render"
	"github.com/walteh/repomd/pkg/resolver"
)

// 🚫 Pipeline sentinel errors
var (
	// ErrNoMatchingFiles means the fetch succeeded but produced zero entries
	ErrNoMatchingFiles = errors.Base("no matching code files found")

	// ErrUnsupportedExtension means a single-file request's extension is
	// not in the language table
	ErrUnsupportedExtension = errors.Base("unsupported file extension")
)

// 🔧 Options configures one generation run
type Options struct {
	Client         fetcher.API            // Repository API client, required
	Languages      *language.Table        // Extension table, Default() when nil
	IgnorePatterns []string               // Doublestar globs to skip
	ShowProgress   bool                   // Progress bar during archive downloads
	HTTPClient     *http.Client           // Client for raw content and archives
	Observer       func(render.FileEvent) // Optional per-file render callback
}

// 🏃 Generate resolves the URL, fetches the matching files and renders the
// Markdown document. Resolution and fetch failures abort with no partial
// output; per-file content failures become inline placeholders.
func Generate(ctx context.Context, rawURL string, opts Options) (string, error) {
	logger := zerolog.Ctx(ctx)

	ref, err := resolver.Parse(rawURL)
	if err != nil {
		return "", err
	}

	logger.Debug().
		Str("owner", ref.Owner).
		Str("repo", ref.Repo).
		Stringer("mode", ref.Mode).
		Str("branch", ref.Branch).
		Str("path", ref.Path).
		Msg("resolved URL")

	langs := opts.Languages
	if langs == nil {
		langs = language.Default()
	}

	f := fetcher.New(opts.Client, fetcher.Options{
		Languages:      langs,
		IgnorePatterns: opts.IgnorePatterns,
		ShowProgress:   opts.ShowProgress,
		HTTPClient:     opts.HTTPClient,
	})

	entries, cleanup, err := f.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}
	defer cleanup()

	if len(entries) == 0 {
		if ref.Mode == resolver.ModeFile {
			return "", errors.Errorf("%q: %w", ref.Path, ErrUnsupportedExtension)
		}
		return "", ErrNoMatchingFiles
	}

	r := render.New(render.Options{
		Languages:  langs,
		BasePath:   displayBase(ref),
		HTTPClient: opts.HTTPClient,
		Observer:   opts.Observer,
	})

	return r.Render(ctx, entries), nil
}

// 📝 FetchMarkdown is the single-string surface: it returns either the
// Markdown document or a short human-readable failure message.
func FetchMarkdown(ctx context.Context, rawURL string, opts Options) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			out = fmt.Sprintf("Error: %v", rec)
		}
	}()

	doc, err := Generate(ctx, rawURL, opts)
	if err != nil {
		return FailureMessage(err)
	}

	return doc
}

// 📝 FailureMessage maps a pipeline error to the short human-readable
// message used as the output string
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoMatchingFiles):
		return "No matching code files found."
	case errors.Is(err, ErrUnsupportedExtension):
		return "No matching file: unsupported file extension."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// 📐 displayBase returns the prefix joined into each entry's display
// directory: the requested directory, or the file's directory in file mode
func displayBase(ref *resolver.RepoRef) string {
	switch ref.Mode {
	case resolver.ModeDirectory:
		return ref.Path
	case resolver.ModeFile:
		dir := path.Dir(ref.Path)
		if dir == "." {
			return ""
		}
		return dir
	default:
		return ""
	}
}
