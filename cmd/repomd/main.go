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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// 🏭 newRootCmd builds the root command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repomd [url]",
		Short: "Render a GitHub repository, directory or file as Markdown",
		Long: `repomd fetches source files from a GitHub URL and renders them into a
single Markdown document with syntax-highlighted code blocks.

Supported URL forms:
  https://github.com/owner/repo                          whole repository
  https://github.com/owner/repo/tree/<branch>/<path>     directory subtree
  https://github.com/owner/repo/blob/<branch>/<path>     single file
  git@github.com:owner/repo.git                          whole repository`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	addRootFlags(cmd)
	return cmd
}
