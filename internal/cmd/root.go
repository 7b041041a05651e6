// Package cmd provides the command-line interface for WordCrawler.
// It handles command parsing, configuration loading, and crawler execution.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/masahif/wordcrawler/internal/config"
	"github.com/masahif/wordcrawler/internal/crawler"
	"github.com/masahif/wordcrawler/internal/logging"
	"github.com/masahif/wordcrawler/internal/page"
	"github.com/masahif/wordcrawler/internal/profiler"
	"github.com/masahif/wordcrawler/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string

	// configErr holds the read error of an explicitly named config file
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wordcrawler [URLs...]",
	Short: "A parallel web crawler that finds the most popular words",
	Long: `WordCrawler explores the link graph of a set of start pages in parallel,
bounded by a maximum link depth and a single wall-clock timeout.

It counts every word found on the visited pages and reports the most
popular ones together with the number of URLs visited.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCrawl,
}

// Execute adds all child commands to the root command and runs it. An
// interrupt cancels in-flight fetches; the partial result is still written.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, JSON or YAML (default is ./wordcrawler.{json,yaml})")
	rootCmd.PersistentFlags().StringP("database", "d", "", "SQLite file for run history (empty=disabled)")
	rootCmd.PersistentFlags().String("log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this size-rotated file")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Crawl flags
	rootCmd.Flags().IntP("parallelism", "p", defaults.Parallelism, "Maximum concurrent fetches (<1 means all cores)")
	rootCmd.Flags().Int("max-depth", defaults.MaxDepth, "Maximum number of link hops from a start page")
	rootCmd.Flags().DurationP("timeout", "t", defaults.Timeout, "Wall-clock budget for the whole crawl")
	rootCmd.Flags().IntP("popular-word-count", "n", defaults.PopularWordCount, "Number of popular words to report")
	rootCmd.Flags().StringSlice("ignored-urls", []string{}, "Regex patterns for URLs that are never visited")
	rootCmd.Flags().StringSlice("ignored-words", []string{}, "Regex patterns for words that are never counted")
	rootCmd.Flags().String("implementation", "", "Force 'parallel' or 'sequential'")

	// Output flags
	rootCmd.Flags().StringP("output", "o", "", "Write the result JSON to this file (default stdout)")
	rootCmd.Flags().String("profile-output", "", "Append the profile report to this file (default stdout)")

	// Fetch flags
	rootCmd.Flags().Duration("request-timeout", defaults.RequestTimeout, "HTTP request timeout")
	rootCmd.Flags().StringP("user-agent", "u", defaults.UserAgent, "HTTP User-Agent header")
	rootCmd.Flags().Float64P("request-rate", "r", 0, "Maximum fetches per second across the crawl (0=unlimited)")

	bindFlags()

	rootCmd.AddCommand(historyCmd)
}

// bindFlags binds the command-line flags to their configuration keys
func bindFlags() {
	flags := []struct {
		viperKey string
		flagName string
	}{
		{"parallelism", "parallelism"},
		{"max_depth", "max-depth"},
		{"timeout", "timeout"},
		{"popular_word_count", "popular-word-count"},
		{"ignored_urls", "ignored-urls"},
		{"ignored_words", "ignored-words"},
		{"implementation_override", "implementation"},
		{"result_path", "output"},
		{"profile_output_path", "profile-output"},
		{"request_timeout", "request-timeout"},
		{"user_agent", "user-agent"},
		{"request_rate", "request-rate"},
	}
	for _, bind := range flags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}

	persistent := []struct {
		viperKey string
		flagName string
	}{
		{"database_path", "database"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}
	for _, bind := range persistent {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.PersistentFlags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configErr = nil
	if cfgFile != "" {
		// Format is taken from the file extension.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("wordcrawler")
	}

	viper.SetEnvPrefix("WC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		configErr = fmt.Errorf("%s: %w", cfgFile, err)
	}
}

// loadConfig builds the effective configuration. URLs given on the command
// line are appended to the configured start pages.
func loadConfig(args []string) (*config.CrawlConfig, error) {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.StartPages = append(cfg.StartPages, args...)

	if cfg.UserAgent == config.DefaultConfig().UserAgent && version != "" && version != "dev" {
		cfg.UserAgent = fmt.Sprintf("WordCrawler/%s", version)
	}
	return cfg, nil
}

func showCurrentConfig(w io.Writer, cfg *config.CrawlConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Fprintf(w, "# Current WordCrawler Configuration\n")
	fmt.Fprintf(w, "# Effective parallelism: %d (%s)\n", cfg.EffectiveParallelism(), cfg.Implementation())
	fmt.Fprintf(w, "# Environment variables prefix: WC_\n\n")
	fmt.Fprint(w, string(yamlData))

	return nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	if configErr != nil {
		return fmt.Errorf("failed to read config file: %w", configErr)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if showConfig {
		return showCurrentConfig(cmd.OutOrStdout(), cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCloser, err := logging.SetDefault(logging.NewConfig(cfg.LogLevel, cfg.LogFile))
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	if len(cfg.StartPages) == 0 {
		slog.Warn("No start pages configured; the result will be empty")
	}

	return executeCrawl(cmd.Context(), cfg, cmd.OutOrStdout())
}

// executeCrawl wires the fetcher and crawler for cfg, runs one crawl and
// writes the result, the profile report and (optionally) the run history.
func executeCrawl(ctx context.Context, cfg *config.CrawlConfig, stdout io.Writer) error {
	ignoredWords, err := config.CompilePatterns(cfg.IgnoredWords)
	if err != nil {
		return fmt.Errorf("failed to compile ignored_words: %w", err)
	}

	prof := profiler.New(time.Now, page.FetchOperation, crawler.CrawlOperation)

	httpClient := page.NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout)
	defer httpClient.Close()

	fetcher, err := page.NewTimedFetcher(
		page.NewRateLimitedFetcher(page.NewHTMLFetcher(httpClient, ignoredWords), cfg.RequestRate),
		prof,
	)
	if err != nil {
		return fmt.Errorf("failed to wrap fetcher: %w", err)
	}

	base, err := crawler.New(cfg, fetcher)
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}
	c, err := crawler.NewTimedCrawler(base, prof)
	if err != nil {
		return fmt.Errorf("failed to wrap crawler: %w", err)
	}

	result := c.Crawl(ctx, cfg.StartPages)

	if err := writeResult(stdout, cfg.ResultPath, result); err != nil {
		return err
	}
	if err := writeProfile(stdout, cfg.ProfileOutputPath, prof); err != nil {
		return err
	}

	if cfg.DatabasePath != "" {
		run := &storage.Run{
			StartedAt:      prof.StartTime(),
			Duration:       prof.Total(crawler.CrawlOperation),
			URLsVisited:    result.URLsVisited,
			MaxDepth:       cfg.MaxDepth,
			Parallelism:    cfg.EffectiveParallelism(),
			Implementation: cfg.Implementation(),
			SeedURLs:       cfg.StartPages,
			Words:          result.WordCounts,
		}
		if err := saveRun(cfg.DatabasePath, run); err != nil {
			return err
		}
	}

	return nil
}

// writeResult writes the result as indented JSON to path, or to stdout when
// path is empty. An existing file is replaced.
func writeResult(stdout io.Writer, path string, result crawler.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	slog.Info("Result written", "path", path)
	return nil
}

// writeProfile appends the profile report to path, or writes it to stdout
// when path is empty.
func writeProfile(stdout io.Writer, path string, prof *profiler.Profiler) error {
	if path == "" {
		if err := prof.WriteData(stdout); err != nil {
			return fmt.Errorf("failed to write profile: %w", err)
		}
		return nil
	}
	if err := prof.WriteFile(path); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

func saveRun(dbPath string, run *storage.Run) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	id, err := store.SaveRun(run)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	if err := store.SetMeta(lastRunKey, fmt.Sprint(id)); err != nil {
		return err
	}

	slog.Info("Run saved", "run_id", id, "database", dbPath)
	return nil
}
