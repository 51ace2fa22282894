package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"webpeel/internal/config"
	"webpeel/internal/model"
	"webpeel/internal/pipeline"
)

func newPeelCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		opts       model.PeelOptions
		format     string
		extractRaw string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "peel <url>",
		Short: "Extract structured content from a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			opts.Format = model.Format(format)
			if extractRaw != "" {
				var spec model.ExtractSpec
				if err := json.Unmarshal([]byte(extractRaw), &spec); err != nil {
					return fmt.Errorf("parse --extract: %w", err)
				}
				opts.Extract = &spec
			}

			peeler := pipeline.New(cfg)
			defer peeler.Close()

			ctx := cmd.Context()
			if opts.TimeoutMs > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMs)*time.Millisecond)
				defer cancel()
			}

			res, err := peeler.Peel(ctx, args[0], opts)
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if res.Title != "" {
				fmt.Println("# " + res.Title + "\n")
			}
			fmt.Println(res.Content)
			if res.Warning != "" {
				fmt.Fprintln(os.Stderr, "warning: "+res.Warning)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.Render, "render", false, "render with a headless browser")
	flags.BoolVar(&opts.Stealth, "stealth", false, "render with anti-detection countermeasures")
	flags.BoolVar(&opts.Cloaked, "cloaked", false, "stealth plus proxies and humanized input")
	flags.IntVar(&opts.WaitMs, "wait", 0, "extra wait after load, in ms")
	flags.StringVarP(&format, "format", "f", "markdown", "output format: markdown|text|html|clean")
	flags.IntVar(&opts.TimeoutMs, "timeout", 0, "request timeout in ms")
	flags.StringVar(&opts.UserAgent, "user-agent", "", "override the user agent")
	flags.BoolVar(&opts.Screenshot, "screenshot", false, "capture a screenshot")
	flags.BoolVar(&opts.FullPage, "full-page", false, "full-page screenshot, skip pruning")
	flags.StringVar(&opts.Selector, "selector", "", "CSS selector to extract")
	flags.StringSliceVar(&opts.Exclude, "exclude", nil, "CSS selectors to remove")
	flags.BoolVar(&opts.Raw, "raw", false, "return the raw HTML")
	flags.StringVar(&extractRaw, "extract", "", "extraction spec as JSON")
	flags.IntVar(&opts.MaxTokens, "max-tokens", 0, "hard token cap")
	flags.BoolVar(&opts.Images, "images", false, "extract image URLs")
	flags.IntVar(&opts.MaxAgeMs, "max-age", 0, "serve a cached result no older than this many ms")
	flags.BoolVar(&opts.AgentMode, "agent", false, "agent mode: budgeted markdown defaults")
	flags.IntVar(&opts.Budget, "budget", 0, "soft token budget for distillation")
	flags.StringVarP(&opts.Question, "question", "q", "", "question for quick-answer extraction")
	flags.BoolVar(&opts.Lite, "lite", false, "lite mode, skip optimization")
	flags.BoolVar(&opts.Readable, "readable", false, "run reader-mode extraction")
	flags.IntVar(&opts.Chunk, "chunk", 0, "split content into N-token chunks")
	flags.BoolVar(&opts.Branding, "branding", false, "extract a branding profile")
	flags.BoolVar(&opts.ChangeTracking, "track", false, "track content changes")
	flags.BoolVar(&opts.Summary, "summary", false, "generate an AI summary")
	flags.BoolVar(&opts.AutoScroll, "auto-scroll", false, "scroll to the bottom before capture")
	flags.StringVar(&opts.Device, "device", "", "viewport preset: mobile|tablet|desktop")
	flags.StringVar(&opts.StorageState, "storage-state", "", "path to a storage state JSON file to replay cookies")
	flags.StringVar(&opts.ProfileDir, "profile-dir", "", "persistent browser profile directory")
	flags.BoolVar(&opts.Headed, "headed", false, "run the browser with a visible window")
	flags.BoolVar(&opts.Cycle, "cycle", false, "rotate proxies round-robin instead of randomly")
	flags.BoolVar(&jsonOut, "json", false, "print the full result as JSON")
	return cmd
}
