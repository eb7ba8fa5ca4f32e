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
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repomd/pkg/github"
	"github.com/walteh/repomd/pkg/resolver"
)

// 📦 fetchRepository downloads the branch archive, unpacks it and walks the
// tree. The returned cleanup removes the whole temporary directory.
func (f *Fetcher) fetchRepository(ctx context.Context, ref *resolver.RepoRef) ([]Entry, func(), error) {
	noop := func() {}

	branch := ref.Branch
	if branch == "" {
		resolved, err := f.api.DefaultBranch(ctx, ref.Owner, ref.Repo)
		if err != nil {
			return nil, noop, errors.Errorf("resolving default branch: %w", err)
		}
		branch = resolved
	}

	archiveURL, err := f.api.ArchiveURL(ctx, ref.Owner, ref.Repo, branch)
	if err != nil {
		return nil, noop, errors.Errorf("getting archive link: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "repomd-*")
	if err != nil {
		return nil, noop, errors.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	zipPath := filepath.Join(tmpDir, ref.Repo+".zip")
	if err := f.downloadArchive(ctx, archiveURL, zipPath); err != nil {
		cleanup()
		return nil, noop, err
	}

	root, err := extractArchive(zipPath, filepath.Join(tmpDir, "src"))
	if err != nil {
		cleanup()
		return nil, noop, errors.Errorf("extracting archive: %w", err)
	}

	entries, err := f.collectFiles(root)
	if err != nil {
		cleanup()
		return nil, noop, errors.Errorf("walking extracted tree: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("branch", branch).
		Int("files", len(entries)).
		Msg("collected files from archive")

	return entries, cleanup, nil
}

// 📥 downloadArchive fetches the zip archive to dest, showing a progress bar
// when enabled
func (f *Fetcher) downloadArchive(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return &github.APIError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &github.APIError{StatusCode: resp.StatusCode, URL: url}
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.Errorf("creating archive file: %w", err)
	}
	defer out.Close()

	var body io.Reader = resp.Body
	if f.progress && resp.ContentLength > 0 {
		bar := pb.Full.Start64(resp.ContentLength)
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	if _, err := io.Copy(out, body); err != nil {
		return errors.Errorf("writing archive file: %w", err)
	}

	return nil
}

// 📤 extractArchive unpacks the zip into dir and returns the unpack root,
// the single top-level directory GitHub archives carry
func extractArchive(zipPath, dir string) (string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", errors.Errorf("opening archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := extractFile(file, dir); err != nil {
			return "", err
		}
	}

	// GitHub archives have a single <repo>-<ref>/ root directory.
	listing, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Errorf("reading extracted dir: %w", err)
	}
	if len(listing) == 1 && listing[0].IsDir() {
		return filepath.Join(dir, listing[0].Name()), nil
	}
	return dir, nil
}

// 📄 extractFile writes one archive member under dir, rejecting paths that
// escape it
func extractFile(file *zip.File, dir string) error {
	dest := filepath.Join(dir, filepath.FromSlash(file.Name))
	if !strings.HasPrefix(dest, filepath.Clean(dir)+string(os.PathSeparator)) {
		return errors.Errorf("archive member %q escapes extraction dir", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Errorf("creating member dir: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return errors.Errorf("opening archive member: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Errorf("creating member file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return errors.Errorf("writing member file: %w", err)
	}

	return nil
}

// 🚶 collectFiles walks the unpacked tree and keeps files with supported
// extensions, relative paths computed against the unpack root
func (f *Fetcher) collectFiles(root string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !f.langs.Supports(d.Name()) || f.ignored(rel) {
			return nil
		}

		entries = append(entries, Entry{
			RelativePath: rel,
			LocalPath:    path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deterministic output order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelativePath < entries[j].RelativePath
	})

	return entries, nil
}
