package main

import (
	"github.com/spf13/cobra"

	"github.com/SimonMacLean/Website-Display/internal/config"
)

// flags holds the persistent command-line overrides. Only flags the user
// actually set are applied over the file and environment.
type flags struct {
	configPath string
	kind       string
	base       string
	prefix     string
	dir        string
	cacheDir   string
	insecure   bool
	links      int
	maxDepth   int
	logLevel   string
	logFormat  string
	logFile    string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "webdisplay",
		Short:         "Crawl linked documents into a live force-directed graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "TOML config file")
	pf.StringVar(&f.kind, "source", "", "document source: web, mark or dir")
	pf.StringVar(&f.base, "base", "", "base URL of the web source")
	pf.StringVar(&f.prefix, "prefix", "", "path prefix of followed web links")
	pf.StringVar(&f.dir, "dir", "", "markdown tree for the dir source")
	pf.StringVar(&f.cacheDir, "cache-dir", "", "cache resolved documents in this directory")
	pf.BoolVar(&f.insecure, "insecure", false, "skip TLS certificate verification (mark source)")
	pf.IntVar(&f.links, "links", 0, "new pages added per expansion")
	pf.IntVar(&f.maxDepth, "max-depth", 0, "pages at this depth are not expanded")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&f.logFormat, "log-format", "", "text or json")
	pf.StringVar(&f.logFile, "log-file", "", "write logs to this file")

	root.AddCommand(newViewCmd(f), newCrawlCmd(f), newConfigCmd(f))
	return root
}

// load reads the config file and environment, applies changed flags and
// validates the result.
func (f *flags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("source") {
		cfg.Source.Kind = f.kind
	}
	if changed("base") {
		cfg.Source.Base = f.base
	}
	if changed("prefix") {
		cfg.Source.Prefix = f.prefix
	}
	if changed("dir") {
		cfg.Source.Dir = f.dir
	}
	if changed("cache-dir") {
		cfg.Source.CacheDir = f.cacheDir
	}
	if changed("insecure") {
		cfg.Source.Insecure = f.insecure
	}
	if changed("links") {
		cfg.Crawl.LinksPerNode = f.links
	}
	if changed("max-depth") {
		cfg.Crawl.MaxDepth = f.maxDepth
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("log-file") {
		cfg.Log.File = f.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rootID picks the crawl root from the arguments, falling back to the
// configured root.
func rootID(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Crawl.Root
}

func newConfigCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return cfg.Write(cmd.OutOrStdout())
		},
	}
}
