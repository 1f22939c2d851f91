package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SimonMacLean/Website-Display/internal/config"
	"github.com/SimonMacLean/Website-Display/internal/headless"
	"github.com/SimonMacLean/Website-Display/internal/logging"
)

func newCrawlCmd(f *flags) *cobra.Command {
	var (
		ticks    int
		maxNodes int
		plain    bool
	)
	cmd := &cobra.Command{
		Use:   "crawl [root]",
		Short: "Crawl without a display, settle the layout and print the nodes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			root := rootID(cfg, args)
			if root == "" {
				return errors.New("a root identifier is required (argument or crawl.root)")
			}
			return runCrawl(cmd, cfg, root, headless.Options{Ticks: ticks, MaxNodes: maxNodes}, plain)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 500, "layout steps after the crawl")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "stop crawling at this many nodes (0 is unlimited)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print plain lines instead of a table")
	return cmd
}

func runCrawl(cmd *cobra.Command, cfg *config.Config, root string, opts headless.Options, plain bool) error {
	logger, closeLog, err := logging.Open(cfg.Log.Format, cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	src, release, err := cfg.OpenSource(logger)
	if err != nil {
		return err
	}
	defer release()

	opts.Crawl = cfg.CrawlOptions()
	opts.Layout = cfg.LayoutConfig()
	opts.Logger = logger
	res, err := headless.Run(cmd.Context(), src, root, opts)
	if err != nil {
		return err
	}

	out := res.Table()
	if plain {
		out = res.Text()
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}
