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

package resolver

import (
	"net/url"
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🚫 ErrInvalidURL is returned for anything that is not a GitHub repo URL
var ErrInvalidURL = errors.Base("invalid GitHub repository URL")

// 🎯 Mode describes what a URL points at
type Mode int

const (
	// ModeRepository is a whole-repository URL (owner/repo, no ref)
	ModeRepository Mode = iota
	// ModeDirectory is a /tree/<branch>/<path> URL
	ModeDirectory
	// ModeFile is a /blob/<branch>/<path> URL
	ModeFile
)

// 📝 String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeRepository:
		return "repository"
	case ModeDirectory:
		return "directory"
	case ModeFile:
		return "file"
	default:
		return "unknown"
	}
}

// 📦 RepoRef identifies a repository, ref and in-repo path.
// It is constructed once by Parse and never mutated afterwards.
type RepoRef struct {
	Owner  string // Repository owner
	Repo   string // Repository name, .git suffix stripped
	Mode   Mode   // What the URL points at
	Branch string // Branch name, empty in repository mode
	Path   string // In-repo path, empty in repository mode
}

var (
	// git@github.com:owner/repo or git@github.com:owner/repo.git
	sshRegex = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
	// /owner/repo/tree/branch/path - directory URL (path may be empty)
	treeRegex = regexp.MustCompile(`^/([^/]+)/([^/]+)/tree/([^/]+)/?(.*)$`)
	// /owner/repo/blob/branch/path - single file URL
	blobRegex = regexp.MustCompile(`^/([^/]+)/([^/]+)/blob/([^/]+)/(.+)$`)
	// /owner/repo - whole repository URL
	repoRegex = regexp.MustCompile(`^/([^/]+)/([^/]+?)/?$`)
)

// 🔍 Parse classifies a GitHub URL and extracts owner, repo, branch and path
func Parse(raw string) (*RepoRef, error) {
	if match := sshRegex.FindStringSubmatch(strings.TrimSpace(raw)); match != nil {
		return &RepoRef{
			Owner: match[1],
			Repo:  match[2],
			Mode:  ModeRepository,
		}, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Errorf("parsing URL: %w: %w", err, ErrInvalidURL)
	}

	if strings.ToLower(parsed.Host) != "github.com" {
		return nil, errors.Errorf("unsupported host %q: %w", parsed.Host, ErrInvalidURL)
	}

	// Match against the escaped form so each segment is decoded exactly once.
	escaped := parsed.EscapedPath()

	if match := blobRegex.FindStringSubmatch(escaped); match != nil {
		return &RepoRef{
			Owner:  decodeSegment(match[1]),
			Repo:   stripGitSuffix(decodeSegment(match[2])),
			Mode:   ModeFile,
			Branch: decodeSegment(match[3]),
			Path:   decodePath(match[4]),
		}, nil
	}

	if match := treeRegex.FindStringSubmatch(escaped); match != nil {
		return &RepoRef{
			Owner:  decodeSegment(match[1]),
			Repo:   stripGitSuffix(decodeSegment(match[2])),
			Mode:   ModeDirectory,
			Branch: decodeSegment(match[3]),
			Path:   decodePath(match[4]),
		}, nil
	}

	if match := repoRegex.FindStringSubmatch(escaped); match != nil {
		return &RepoRef{
			Owner: decodeSegment(match[1]),
			Repo:  stripGitSuffix(decodeSegment(match[2])),
			Mode:  ModeRepository,
		}, nil
	}

	return nil, errors.Errorf("unrecognized path %q: %w", escaped, ErrInvalidURL)
}

// ✂️ stripGitSuffix removes a literal trailing .git from a repository name
func stripGitSuffix(repo string) string {
	return strings.TrimSuffix(repo, ".git")
}

// 🔓 decodeSegment percent-decodes a single path segment
func decodeSegment(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// 🔓 decodePath percent-decodes every segment of an in-repo path
func decodePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = decodeSegment(part)
	}
	return strings.Join(parts, "/")
}
