package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SimonMacLean/Website-Display/internal/config"
	"github.com/SimonMacLean/Website-Display/internal/crawl"
	"github.com/SimonMacLean/Website-Display/internal/graph"
	"github.com/SimonMacLean/Website-Display/internal/interact"
	"github.com/SimonMacLean/Website-Display/internal/layout"
	"github.com/SimonMacLean/Website-Display/internal/logging"
)

func newViewCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "view [root]",
		Short: "Crawl from root and explore the live graph in the terminal",
		Long: `Crawl from root and explore the live graph in the terminal.

Without a root the canvas starts empty; click empty space to add nodes and
click two nodes in turn to connect them. Right click (or ctrl+click, or
remove mode) removes the node under the pointer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return runView(cmd.Context(), cfg, rootID(cfg, args))
		},
	}
}

func runView(ctx context.Context, cfg *config.Config, root string) error {
	logPath := cfg.Log.File
	if logPath == "" {
		logPath = defaultLogPath()
	}
	logger, closeLog, err := logging.Open(cfg.Log.Format, cfg.Log.Level, logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	src, release, err := cfg.OpenSource(logger)
	if err != nil {
		return err
	}
	defer release()

	store := graph.NewStore()
	engine := layout.New(cfg.LayoutConfig(), logger)
	ctrl := interact.New(store, engine, cellAspect, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(
		newModel(store, engine, ctrl, root),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx, store, cfg.Layout.Interval)
	})
	if root != "" {
		g.Go(func() error {
			b := crawl.New(store, src, cfg.CrawlOptions(), logger)
			_, err := b.Run(gctx, root)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("crawl failed", "root", root, "error", err)
			}
			p.Send(crawlDoneMsg{err: err})
			return nil
		})
	}

	_, runErr := p.Run()
	cancel()
	waitErr := g.Wait()
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	return nil
}

// defaultLogPath keeps logs out of the terminal the TUI owns.
func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "webdisplay.log")
	}
	dir = filepath.Join(dir, "webdisplay")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return filepath.Join(os.TempDir(), "webdisplay.log")
	}
	return filepath.Join(dir, "webdisplay.log")
}
