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

package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

// 📄 Content types reported by the repository-contents API
const (
	ContentTypeFile = "file"
	ContentTypeDir  = "dir"
)

// 🚨 APIError is a non-success response from the GitHub API or an
// archive download
type APIError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("GitHub API request failed with status %d: %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("GitHub API request failed: %s: %v", e.URL, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// 📄 Content is one entry returned by the repository-contents API
type Content struct {
	Name        string // Base name of the entry
	Path        string // Full in-repo path
	Type        string // "file" or "dir"
	DownloadURL string // Raw content location, empty for directories
}

// 🔧 Options configures the client
type Options struct {
	Token   string // Optional bearer token, unauthenticated when empty
	BaseURL string // Optional API base URL override, used in tests
}

// 🎯 Client wraps the go-github client with the three lookups the
// fetcher needs
type Client struct {
	gh     *github.Client
	logger zerolog.Logger
}

// 🏭 New creates a new GitHub client
func New(ctx context.Context, opts Options) (*Client, error) {
	logger := zerolog.Ctx(ctx)

	client := github.NewClient(nil)
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	}
	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, errors.Errorf("parsing base URL: %w", err)
		}
		client.BaseURL = base
	}

	return &Client{
		gh:     client,
		logger: *logger,
	}, nil
}

// 🌿 DefaultBranch resolves the repository's default branch via the
// repository-metadata endpoint
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	meta, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", apiError(resp, fmt.Sprintf("repos/%s/%s", owner, repo), err)
	}

	branch := meta.GetDefaultBranch()
	if branch == "" {
		branch = "master"
	}

	c.logger.Debug().Str("owner", owner).Str("repo", repo).Str("branch", branch).Msg("resolved default branch")
	return branch, nil
}

// 📂 ListContents calls the repository-contents API at the given path and
// ref. Exactly one of the file or directory results is non-nil.
func (c *Client) ListContents(ctx context.Context, owner, repo, path, ref string) (*Content, []Content, error) {
	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		return nil, nil, apiError(resp, fmt.Sprintf("repos/%s/%s/contents/%s", owner, repo, path), err)
	}

	if file != nil {
		return &Content{
			Name:        file.GetName(),
			Path:        file.GetPath(),
			Type:        file.GetType(),
			DownloadURL: file.GetDownloadURL(),
		}, nil, nil
	}

	entries := make([]Content, 0, len(dir))
	for _, entry := range dir {
		entries = append(entries, Content{
			Name:        entry.GetName(),
			Path:        entry.GetPath(),
			Type:        entry.GetType(),
			DownloadURL: entry.GetDownloadURL(),
		})
	}
	return nil, entries, nil
}

// 📦 ArchiveURL returns the URL to download the branch as a zip archive
func (c *Client) ArchiveURL(ctx context.Context, owner, repo, branch string) (string, error) {
	link, resp, err := c.gh.Repositories.GetArchiveLink(ctx, owner, repo, github.Zipball, &github.RepositoryContentGetOptions{
		Ref: branch,
	}, 1)
	if err != nil {
		return "", apiError(resp, fmt.Sprintf("repos/%s/%s/zipball/%s", owner, repo, branch), err)
	}

	return link.String(), nil
}

// 🔄 apiError converts a go-github failure into an APIError
func apiError(resp *github.Response, endpoint string, err error) error {
	apiErr := &APIError{URL: endpoint, Err: err}
	if resp != nil {
		apiErr.StatusCode = resp.StatusCode
	}
	return apiErr
}
