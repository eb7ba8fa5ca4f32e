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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repomd/pkg/github"
	"github.com/walteh/repomd/pkg/resolver"
)

// 🧪 fakeListing is one canned repository-contents response
type fakeListing struct {
	file *github.Content
	dir  []github.Content
}

// 🧪 fakeAPI is a canned API implementation keyed by path
type fakeAPI struct {
	defaultBranch string
	archiveURL    string
	listings      map[string]fakeListing
	failOn        map[string]error
	visited       []string
}

func (f *fakeAPI) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if err := f.failOn["__meta__"]; err != nil {
		return "", err
	}
	return f.defaultBranch, nil
}

func (f *fakeAPI) ListContents(ctx context.Context, owner, repo, path, ref string) (*github.Content, []github.Content, error) {
	f.visited = append(f.visited, path)
	if err := f.failOn[path]; err != nil {
		return nil, nil, err
	}
	listing, ok := f.listings[path]
	if !ok {
		return nil, nil, &github.APIError{StatusCode: 404, URL: path}
	}
	return listing.file, listing.dir, nil
}

func (f *fakeAPI) ArchiveURL(ctx context.Context, owner, repo, branch string) (string, error) {
	if err := f.failOn["__archive__"]; err != nil {
		return "", err
	}
	return f.archiveURL, nil
}

func file(name, path string) github.Content {
	return github.Content{
		Name:        name,
		Path:        path,
		Type:        github.ContentTypeFile,
		DownloadURL: "https://raw.example.com/" + path,
	}
}

func dir(name, path string) github.Content {
	return github.Content{Name: name, Path: path, Type: github.ContentTypeDir}
}

func TestFetchDirectory(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]fakeListing{
			"src": {dir: []github.Content{
				file("a.py", "src/a.py"),
				file("notes.txt", "src/notes.txt"), // unsupported extension
				dir("util", "src/util"),
			}},
			"src/util": {dir: []github.Content{
				file("b.go", "src/util/b.go"),
				dir("deep", "src/util/deep"),
			}},
			"src/util/deep": {dir: []github.Content{
				file("c.rs", "src/util/deep/c.rs"),
			}},
		},
	}

	f := New(api, Options{})
	ref := &resolver.RepoRef{Owner: "acme", Repo: "widgets", Mode: resolver.ModeDirectory, Branch: "main", Path: "src"}

	entries, cleanup, err := f.Fetch(context.Background(), ref)
	defer cleanup()
	require.NoError(t, err, "Fetch should succeed")

	var paths []string
	for _, entry := range entries {
		paths = append(paths, entry.RelativePath)
		assert.True(t, entry.IsRemote(), "directory-mode entries should be remote")
	}
	assert.Equal(t, []string{"a.py", "util/b.go", "util/deep/c.rs"}, paths, "paths should be relative to the requested directory")
	assert.Equal(t, []string{"src", "src/util", "src/util/deep"}, api.visited, "every nested directory should be visited exactly once")
}

func TestFetchDirectory_SingleFileResponse(t *testing.T) {
	f := &github.Content{Name: "a.py", Path: "src/a.py", Type: github.ContentTypeFile, DownloadURL: "https://raw.example.com/src/a.py"}
	api := &fakeAPI{
		listings: map[string]fakeListing{
			"src/a.py": {file: f},
		},
	}

	ref := &resolver.RepoRef{Owner: "acme", Repo: "widgets", Mode: resolver.ModeDirectory, Branch: "main", Path: "src/a.py"}
	entries, cleanup, err := New(api, Options{}).Fetch(context.Background(), ref)
	defer cleanup()

	require.NoError(t, err, "Fetch should succeed")
	assert.Empty(t, entries, "a single-file response should yield an empty result")
}

func TestFetchDirectory_ErrorAbortsTraversal(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]fakeListing{
			"src": {dir: []github.Content{
				dir("broken", "src/broken"),
				dir("after", "src/after"),
			}},
		},
		failOn: map[string]error{
			"src/broken": &github.APIError{StatusCode: 500, URL: "src/broken"},
		},
	}

	ref := &resolver.RepoRef{Owner: "acme", Repo: "widgets", Mode: resolver.ModeDirectory, Branch: "main", Path: "src"}
	_, cleanup, err := New(api, Options{}).Fetch(context.Background(), ref)
	defer cleanup()

	require.Error(t, err, "Fetch should fail")
	var apiErr *github.APIError
	require.True(t, errors.As(err, &apiErr), "error should be an APIError")
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.NotContains(t, api.visited, "src/after", "traversal should abort on the first failure")
}

func TestFetchDirectory_IgnorePatterns(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]fakeListing{
			"": {dir: []github.Content{
				file("a.py", "a.py"),
				file("a_test.py", "a_test.py"),
			}},
		},
	}

	ref := &resolver.RepoRef{Owner: "acme", Repo: "widgets", Mode: resolver.ModeDirectory, Branch: "main", Path: ""}
	entries, cleanup, err := New(api, Options{IgnorePatterns: []string{"*_test.py"}}).Fetch(context.Background(), ref)
	defer cleanup()

	require.NoError(t, err, "Fetch should succeed")
	require.Len(t, entries, 1, "ignored files should be skipped")
	assert.Equal(t, "a.py", entries[0].RelativePath)
}

func TestFetchFile(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]fakeListing{
			"src/a.rs": {file: &github.Content{
				Name:        "a.rs",
				Path:        "src/a.rs",
				Type:        github.ContentTypeFile,
				DownloadURL: "https://raw.example.com/src/a.rs",
			}},
		},
	}

	ref := &resolver.RepoRef{Owner: "acme", Repo: "widgets", Mode: resolver.ModeFile, Branch: "main", Path: "src/a.rs"}
	entries, cleanup, err := New(api, Options{}).Fetch(context.Background(), ref)
	defer cleanup()

	require.NoError(t, err, "Fetch should succeed")
	require.Len(t, entries, 1, "one entry expected")
	assert.Equal(t, "a.rs", entries[0].RelativePath, "relative path should be the file name")
	assert.Equal(t, "https://raw.example.com/src/a.rs", entries[0].RemoteURL)
}

func TestFetchFile_NotAFile(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]fakeListing{
			"src": {dir: []github.Content{file("a.py", "src/a.py")}},
		},
	}

	ref := &resolver.RepoRef{Owner: "acme", Repo: "widgets", Mode: resolver.ModeFile, Branch: "main", Path: "src"}
	_, cleanup, err := New(api, Options{}).Fetch(context.Background(), ref)
	defer cleanup()

	require.Error(t, err, "Fetch should fail")
	assert.True(t, errors.Is(err, ErrNotAFile), "error should be ErrNotAFile, got %v", err)
}

func TestFetchFile_UnsupportedExtension(t *testing.T) {
	api := &fakeAPI{
		listings: map[string]fakeListing{
			"bin/tool.exe": {file: &github.Content{
				Name:        "tool.exe",
				Path:        "bin/tool.exe",
				Type:        github.ContentTypeFile,
				DownloadURL: "https://raw.example.com/bin/tool.exe",
			}},
		},
	}

	ref := &resolver.RepoRef{Owner: "acme", Repo: "widgets", Mode: resolver.ModeFile, Branch: "main", Path: "bin/tool.exe"}
	entries, cleanup, err := New(api, Options{}).Fetch(context.Background(), ref)
	defer cleanup()

	require.NoError(t, err, "an unsupported extension is not an error")
	assert.Empty(t, entries, "an unsupported extension should yield an empty result")
}

func TestFetchFile_APIError(t *testing.T) {
	api := &fakeAPI{listings: map[string]fakeListing{}}

	ref := &resolver.RepoRef{Owner: "acme", Repo: "widgets", Mode: resolver.ModeFile, Branch: "main", Path: "gone.py"}
	_, cleanup, err := New(api, Options{}).Fetch(context.Background(), ref)
	defer cleanup()

	require.Error(t, err, "Fetch should fail")
	var apiErr *github.APIError
	require.True(t, errors.As(err, &apiErr), "error should be an APIError")
	assert.Equal(t, 404, apiErr.StatusCode)
}
