package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/marketbrief/internal/config"
	"github.com/TobiSchelling/marketbrief/internal/gazetteer"
	"github.com/TobiSchelling/marketbrief/internal/llm"
	"github.com/TobiSchelling/marketbrief/internal/market"
	"github.com/TobiSchelling/marketbrief/internal/pipeline"
	"github.com/TobiSchelling/marketbrief/internal/report"
	"github.com/TobiSchelling/marketbrief/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "marketbrief",
	Short:   "Financial news article analyzer",
	Long:    "marketbrief fetches a news article, extracts its text and metadata, finds the tickers, indexes and companies it mentions, and summarizes it.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Ignoring .env: %v", err)
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if verbose {
			cfg.Logging.Level = "DEBUG"
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(companiesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("marketbrief", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/marketbrief/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to choose the summarization and market-data providers.")
		fmt.Println("API keys are read from the environment variables it names (a .env file works too).")
		return nil
	},
}

// --- analyze command ---

var outputFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Analyze one article (prompts for the URL when none is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(outputFormat)
		if err != nil {
			return err
		}

		var pageURL string
		if len(args) == 1 {
			pageURL = args[0]
		} else {
			fmt.Print("Enter the article URL: ")
			reader := bufio.NewReader(os.Stdin)
			line, _ := reader.ReadString('\n')
			pageURL = line
		}
		pageURL = strings.TrimSpace(pageURL)
		if pageURL == "" {
			return fmt.Errorf("no URL given")
		}

		pipe, err := buildPipeline()
		if err != nil {
			return err
		}

		result := pipe.Run(context.Background(), pageURL)

		if verbose {
			for i, step := range result.Steps {
				fmt.Fprintf(os.Stderr, "Step %d/5: %s\n", i+1, step.Name)
				if step.Err != nil {
					fmt.Fprintf(os.Stderr, "  Error: %v\n", step.Err)
				} else {
					fmt.Fprintf(os.Stderr, "  %s\n", step.Summary)
				}
			}
		}

		if !result.OK() {
			// Failure is reported, not returned: the exit status stays 0.
			warn := os.Stdout
			if format != report.Text {
				warn = os.Stderr
			}
			fmt.Fprintln(warn, "Warning: couldn't fetch article content.")
			if result.Err != nil {
				fmt.Fprintf(warn, "  %v\n", result.Err)
			}
			if format == report.JSON {
				return report.Write(os.Stdout, result.Record, format)
			}
			return nil
		}

		return report.Write(os.Stdout, result.Record, format)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text, json, markdown or html")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := buildPipeline()
		if err != nil {
			return err
		}

		port := servePort
		if !cmd.Flags().Changed("port") {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(pipe, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- companies command ---

var companiesCmd = &cobra.Command{
	Use:   "companies [query]",
	Short: "List or search the company gazetteer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gaz, err := loadGazetteer()
		if err != nil {
			return err
		}

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		entries := gaz.Search(query)
		if len(entries) == 0 {
			fmt.Printf("No companies match %q.\n", query)
			return nil
		}

		fmt.Printf("Companies (%d of %d):\n\n", len(entries), gaz.Len())
		for _, e := range entries {
			fmt.Printf("  %-8s %s (matched as %q)\n", e.Ticker, e.Key, gazetteer.DisplayName(e.Key))
		}
		return nil
	},
}

func loadGazetteer() (*gazetteer.Gazetteer, error) {
	if cfg.Gazetteer.Path == "" {
		return gazetteer.Default()
	}
	gaz, err := gazetteer.LoadFile(cfg.Gazetteer.Path)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d companies from %s", gaz.Len(), cfg.Gazetteer.Path)
	return gaz, nil
}

// buildPipeline wires the gazetteer, validator and summarizer from config.
// A missing summarizer is not fatal: articles are still extracted and
// resolved, only the summary stays empty.
func buildPipeline() (*pipeline.Pipeline, error) {
	gaz, err := loadGazetteer()
	if err != nil {
		return nil, fmt.Errorf("loading gazetteer: %w", err)
	}

	validator, err := market.NewValidator(market.Options{
		Provider:     cfg.Market.Provider,
		APIKeyEnv:    cfg.Market.APIKeyEnv,
		APISecretEnv: cfg.Market.APISecretEnv,
		BaseURL:      cfg.Market.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ticker validator: %w", err)
	}

	backend, err := llm.CreateSummarizer(cfg.Summarization)
	if err != nil {
		log.Printf("Summaries disabled: %v", err)
		backend = nil
	}

	return pipeline.New(cfg, gaz, validator, backend), nil
}
