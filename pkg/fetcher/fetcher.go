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

package fetcher

import (
	"context"
	"net/http"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repomd/pkg/github"
	"github.com/walteh/repomd/pkg/language"
	"github.com/walteh/repomd/pkg/resolver"
)

// 🚫 ErrNotAFile is returned when a file-mode path resolves to a directory
var ErrNotAFile = errors.Base("path does not resolve to a file")

// 📄 Entry is one code file produced by a fetch. Exactly one of LocalPath
// and RemoteURL is set.
type Entry struct {
	RelativePath string // Path relative to the requested root
	LocalPath    string // Absolute path on disk, repository mode only
	RemoteURL    string // Raw content location, directory and file modes
}

// 🔍 IsRemote reports whether the entry's content lives behind a URL
func (e Entry) IsRemote() bool {
	return e.RemoteURL != ""
}

// 🔌 API is the slice of the GitHub client the fetcher needs
type API interface {
	// 🌿 DefaultBranch resolves the repository's default branch
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)

	// 📂 ListContents lists a path via the repository-contents API
	ListContents(ctx context.Context, owner, repo, path, ref string) (*github.Content, []github.Content, error)

	// 📦 ArchiveURL returns the zip archive URL for a branch
	ArchiveURL(ctx context.Context, owner, repo, branch string) (string, error)
}

// 🔧 Options configures a Fetcher
type Options struct {
	Languages      *language.Table // Extension filter, Default() when nil
	IgnorePatterns []string        // Doublestar globs matched against relative paths
	ShowProgress   bool            // Show a progress bar during archive downloads
	HTTPClient     *http.Client    // Client for archive downloads, DefaultClient when nil
}

// 🎯 Fetcher collects code file entries for a resolved repository reference
type Fetcher struct {
	api        API
	langs      *language.Table
	ignores    []string
	progress   bool
	httpClient *http.Client
}

// 🏭 New creates a new Fetcher
func New(api API, opts Options) *Fetcher {
	langs := opts.Languages
	if langs == nil {
		langs = language.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		api:        api,
		langs:      langs,
		ignores:    opts.IgnorePatterns,
		progress:   opts.ShowProgress,
		httpClient: httpClient,
	}
}

// 🏃 Fetch collects entries for the reference. The cleanup function must be
// called once the entries have been consumed; it removes the temporary
// extraction directory used in repository mode and is a no-op otherwise.
func (f *Fetcher) Fetch(ctx context.Context, ref *resolver.RepoRef) ([]Entry, func(), error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("owner", ref.Owner).
		Str("repo", ref.Repo).
		Stringer("mode", ref.Mode).
		Msg("fetching repository contents")

	switch ref.Mode {
	case resolver.ModeRepository:
		return f.fetchRepository(ctx, ref)
	case resolver.ModeDirectory:
		entries, err := f.fetchDirectory(ctx, ref, ref.Path)
		return entries, func() {}, err
	case resolver.ModeFile:
		entries, err := f.fetchFile(ctx, ref)
		return entries, func() {}, err
	default:
		return nil, func() {}, errors.Errorf("unknown fetch mode %d", ref.Mode)
	}
}

// 📂 fetchDirectory walks the repository-contents API recursively, one
// subdirectory after another. The first API failure aborts the traversal.
func (f *Fetcher) fetchDirectory(ctx context.Context, ref *resolver.RepoRef, dir string) ([]Entry, error) {
	file, listing, err := f.api.ListContents(ctx, ref.Owner, ref.Repo, dir, ref.Branch)
	if err != nil {
		return nil, err
	}

	// A single-file response means the requested path is not a directory.
	if file != nil {
		return nil, nil
	}

	var entries []Entry
	for _, item := range listing {
		switch item.Type {
		case github.ContentTypeFile:
			rel := relativeTo(ref.Path, item.Path)
			if !f.langs.Supports(item.Name) || f.ignored(rel) {
				continue
			}
			entries = append(entries, Entry{
				RelativePath: rel,
				RemoteURL:    item.DownloadURL,
			})
		case github.ContentTypeDir:
			sub, err := f.fetchDirectory(ctx, ref, item.Path)
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
		}
	}

	return entries, nil
}

// 📄 fetchFile resolves a single file via the repository-contents API
func (f *Fetcher) fetchFile(ctx context.Context, ref *resolver.RepoRef) ([]Entry, error) {
	file, _, err := f.api.ListContents(ctx, ref.Owner, ref.Repo, ref.Path, ref.Branch)
	if err != nil {
		return nil, err
	}

	if file == nil || file.Type != github.ContentTypeFile {
		return nil, errors.Errorf("%q: %w", ref.Path, ErrNotAFile)
	}

	// Unsupported extensions yield an empty result, not an error. The
	// caller reports that no file matched.
	if !f.langs.Supports(file.Name) || f.ignored(file.Name) {
		return nil, nil
	}

	return []Entry{{
		RelativePath: file.Name,
		RemoteURL:    file.DownloadURL,
	}}, nil
}

// 🙈 ignored checks the relative path against the ignore patterns
func (f *Fetcher) ignored(rel string) bool {
	for _, pattern := range f.ignores {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// 📐 relativeTo strips the requested base directory from a full in-repo path
func relativeTo(base, full string) string {
	if base == "" {
		return full
	}
	return strings.TrimPrefix(full, strings.TrimSuffix(base, "/")+"/")
}
