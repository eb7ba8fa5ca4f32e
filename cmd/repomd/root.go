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
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/repomd/pkg/config"
	"github.com/walteh/repomd/pkg/github"
	"github.com/walteh/repomd/pkg/language"
	"github.com/walteh/repomd/pkg/log"
	"github.com/walteh/repomd/pkg/render"
	"github.com/walteh/repomd/pkg/repomd"
	"github.com/walteh/repomd/pkg/resolver"
)

var (
	// Flags
	configFile string
	outputFile string
	token      string
	debug      bool
	progress   bool
)

// 🔧 addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default probes .repomd{,.yaml,.yml,.json,.hcl})")
	cmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write the Markdown to a file instead of stdout")
	cmd.PersistentFlags().StringVarP(&token, "token", "t", "", "GitHub token (overrides config and GITHUB_TOKEN)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&progress, "progress", false, "show a progress bar during archive downloads")
}

// 🏃 run executes the fetch-and-render pipeline for the given URL
func run(cmd *cobra.Command, args []string) error {
	logLevel := zerolog.InfoLevel
	if debug {
		logLevel = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(logLevel).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	client, err := github.New(ctx, github.Options{
		Token: resolveToken(cfg),
	})
	if err != nil {
		return errors.Errorf("creating GitHub client: %w", err)
	}

	rawURL := args[0]
	ref, err := resolver.Parse(rawURL)
	if err != nil {
		// Invalid URLs surface as the output string, not an exit failure.
		return writeOutput(cfg, repomd.FailureMessage(err))
	}

	consoleLogger := log.New(os.Stderr, logLevel)
	consoleLogger.StartSourceOperation(ctx, log.SourceOperation{
		Repo:   ref.Owner + "/" + ref.Repo,
		Ref:    ref.Branch,
		Mode:   ref.Mode.String(),
		Target: ref.Path,
	})
	defer consoleLogger.EndSourceOperation(ctx)

	doc, err := repomd.Generate(ctx, rawURL, repomd.Options{
		Client:         client,
		Languages:      language.Default().Merge(cfg.Languages),
		IgnorePatterns: cfg.IgnorePatterns,
		ShowProgress:   progress || cfg.Progress,
		Observer: func(ev render.FileEvent) {
			consoleLogger.LogFileRender(ctx, log.FileRender{
				Path:     ev.Path,
				Language: ev.Language,
				Remote:   ev.Remote,
				Failed:   ev.Failed,
			})
		},
	})
	if err != nil {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "✗"}).Println(err.Error())
		return writeOutput(cfg, repomd.FailureMessage(err))
	}

	if err := writeOutput(cfg, doc); err != nil {
		return err
	}

	pterm.Success.WithPrefix(pterm.Prefix{Text: "✓"}).Println("rendered Markdown document")
	return nil
}

// 🔑 resolveToken picks the token from flag, config or environment
func resolveToken(cfg *config.Config) string {
	if token != "" {
		return token
	}
	if cfg.Token != "" {
		return cfg.Token
	}
	return os.Getenv("GITHUB_TOKEN")
}

// 📤 writeOutput writes the document to --output, the config output path,
// or stdout
func writeOutput(cfg *config.Config, doc string) error {
	dest := outputFile
	if dest == "" {
		dest = cfg.Output
	}
	if dest == "" {
		_, err := os.Stdout.WriteString(doc)
		return err
	}

	if err := os.WriteFile(dest, []byte(doc), 0o644); err != nil {
		return errors.Errorf("writing output file: %w", err)
	}
	return nil
}
