package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/PentesterFlow/routescan/internal/errors"
	"github.com/PentesterFlow/routescan/internal/framework"
	"github.com/PentesterFlow/routescan/internal/logger"
	"github.com/PentesterFlow/routescan/internal/output"
	"github.com/PentesterFlow/routescan/internal/progress"
	"github.com/PentesterFlow/routescan/internal/shutdown"
	"github.com/PentesterFlow/routescan/internal/store"
	"github.com/PentesterFlow/routescan/pkg/scanner"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	storePath  string
	verbose    bool
	debug      bool
	jsonLogs   bool
	logLevel   string

	// Discover flags
	frameworkName string
	instance      string
	clients       []string
	token         string
	ref           string
	outputFile    string
	format        string
	pretty        bool
	stream        bool
	saveRun       bool
	showProgress  bool
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "routescan",
		Short: "routescan - HTTP endpoint discovery for TypeScript and JavaScript code",
		Long: `routescan - Static discovery of the HTTP endpoints a code base serves or calls.

Walks a local directory or a remote Git repository, parses .ts files strictly and .js files
tolerantly, and catalogs route registrations (router.get(path, handler)) and client calls
(axios.post(url, data, config)) with their headers, query parameters and bodies.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Discover command
	discoverCmd := &cobra.Command{
		Use:   "discover [source]",
		Short: "Discover endpoints in a directory or repository URL",
		Long:  "Discover endpoints in a local directory or an http(s) Git repository URL and write the catalog.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDiscover,
	}

	// Runs command
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved discovery runs",
		Args:  cobra.NoArgs,
		RunE:  runRuns,
	}

	// Show command
	showCmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print the catalog of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	// Profiles command
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "List framework profiles",
		Args:  cobra.NoArgs,
		RunE:  runProfiles,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", scanner.DefaultStorePath, "Run store database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Write logs as JSON lines")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides --verbose and --debug")

	// Discover flags
	discoverCmd.Flags().StringVarP(&frameworkName, "framework", "f", "express", "Framework profile ("+strings.Join(framework.Names(), ", ")+")")
	discoverCmd.Flags().StringVarP(&instance, "instance", "i", "router", "Router or client object identifier")
	discoverCmd.Flags().StringArrayVar(&clients, "client", nil, "Client library identifier (repeatable, replaces the profile's)")
	discoverCmd.Flags().StringVar(&token, "token", "", "Access token for remote sources (default: $"+scanner.TokenEnv+")")
	discoverCmd.Flags().StringVar(&ref, "ref", "", "Branch, tag or commit of a remote source")
	discoverCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	discoverCmd.Flags().StringVar(&format, "format", "", "Output format: json or yaml (default: from --output extension, else json)")
	discoverCmd.Flags().BoolVar(&pretty, "pretty", true, "Indent JSON output")
	discoverCmd.Flags().BoolVar(&stream, "stream", false, "Stream one event per endpoint")
	discoverCmd.Flags().BoolVar(&saveRun, "save", false, "Save the run to the store")
	discoverCmd.Flags().BoolVar(&showProgress, "progress", true, "Show progress and a summary when writing to a file")

	// Show flags
	showCmd.Flags().StringVar(&format, "format", output.FormatJSON, "Output format: json or yaml")

	// Add commands
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(profilesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose, debug bool) (*logger.Logger, error) {
	level := logger.WarnLevel
	if debug {
		level = logger.DebugLevel
	} else if verbose {
		level = logger.InfoLevel
	}

	var log *logger.Logger
	if jsonLogs {
		log = logger.NewJSON(level)
	} else {
		log = logger.New(logger.Config{
			Level:  level,
			Pretty: true,
			Output: os.Stderr,
		})
	}

	if logLevel != "" {
		parsed, err := logger.ParseLevel(logLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		log.SetLevel(parsed)
	}
	return log, nil
}

// buildConfig loads the config file, if any, and applies the flags that
// were set explicitly.
func buildConfig(cmd *cobra.Command, args []string) (*scanner.Config, error) {
	config := scanner.DefaultConfig()
	if configFile != "" {
		fileConfig, err := scanner.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		config.Source = args[0]
	}
	if flags.Changed("framework") {
		config.Framework = frameworkName
	}
	if flags.Changed("instance") {
		config.ObjectInstance = instance
	}
	if flags.Changed("client") {
		config.Clients = clients
	}
	if flags.Changed("token") {
		config.Token = token
	}
	if flags.Changed("ref") {
		config.Ref = ref
	}
	if flags.Changed("output") {
		config.Output.FilePath = outputFile
	}
	if flags.Changed("format") {
		config.Output.Format = format
	} else if config.Output.FilePath != "" {
		config.Output.Format = output.FormatFor(config.Output.FilePath, config.Output.Format)
	}
	if flags.Changed("pretty") {
		config.Output.Pretty = pretty
	}
	if flags.Changed("stream") {
		config.Output.Stream = stream
	}
	if flags.Changed("store") {
		config.Store.Path = storePath
	}
	if saveRun {
		config.Store.Enabled = true
	}
	if flags.Changed("verbose") {
		config.Verbose = verbose
	}
	if flags.Changed("debug") {
		config.Debug = debug
	}

	config.ApplyEnv()
	return config, nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	config, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	log, err := newLogger(config.Verbose, config.Debug)
	if err != nil {
		return err
	}
	toFile := config.Output.FilePath != "" && config.Output.FilePath != "-"
	enableProgress := showProgress && toFile && !config.Verbose && !config.Debug

	h := shutdown.New(shutdown.Config{
		Timeout: 10 * time.Second,
		Logger:  log.WithComponent("shutdown"),
	})
	defer h.Shutdown()

	opts := []scanner.Option{
		scanner.WithConfig(config),
		scanner.WithLogger(log.WithComponent("scanner")),
	}

	var display *progress.Display
	if enableProgress {
		display = progress.New(os.Stderr)
		opts = append(opts, scanner.WithProgress(display.Update))
	}

	s, err := scanner.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}
	h.Register("scanner", func(_ context.Context) error { return s.Close() })

	if display != nil {
		display.Start(config.Source)
		h.RegisterFunc("progress", display.Stop)
	}

	catalog, err := s.Run(h.Context())
	if display != nil {
		display.Stop()
	}
	if err != nil {
		if h.Interrupted() {
			return fmt.Errorf("discovery interrupted: %w", err)
		}
		if errors.IsAuthError(err) {
			return fmt.Errorf("discovery failed: %w (check --token or $%s)", err, scanner.TokenEnv)
		}
		return fmt.Errorf("discovery failed: %w", err)
	}

	if toFile && showProgress {
		progress.PrintSummary(os.Stderr, catalog)
		fmt.Fprintf(os.Stderr, "Catalog written to %s\n", config.Output.FilePath)
	}
	return nil
}

func openStore() (*store.BoltStore, error) {
	path := storePath
	if configFile != "" {
		config, err := scanner.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		if config.Store.Path != "" {
			path = config.Store.Path
		}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no run store at %s (run discover with --save first)", path)
	}
	return store.NewBoltStore(path)
}

func runRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No saved runs")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-9s  %9s  %-6s  %s\n", "ID", "STARTED", "FRAMEWORK", "ENDPOINTS", "STATUS", "SOURCE")
	for _, r := range runs {
		status := "ok"
		if r.Failed {
			status = "failed"
		}
		fmt.Printf("%-36s  %-20s  %-9s  %9d  %-6s  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Framework, r.Endpoints, status, r.Source)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.LoadRun(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", args[0], err)
	}
	if run.Error != "" {
		fmt.Fprintf(os.Stderr, "Run failed: %s\n", run.Error)
	}

	catalog := &output.Catalog{
		RunID:          run.ID,
		Source:         run.Source,
		Framework:      run.Framework,
		ObjectInstance: run.ObjectInstance,
		StartedAt:      run.StartedAt,
		CompletedAt:    run.FinishedAt,
		Stats: output.CatalogStats{
			FilesProcessed: run.Stats.FilesProcessed,
			FilesRecovered: run.Stats.FilesRecovered,
			Duration:       run.Stats.Duration,
		},
		Endpoints: run.Endpoints,
	}

	w, err := output.Open(output.Config{Format: format, Pretty: true})
	if err != nil {
		return err
	}
	defer w.Close()
	return w.WriteCatalog(catalog.WithSummary())
}

func runProfiles(cmd *cobra.Command, args []string) error {
	for _, name := range framework.Names() {
		p, err := framework.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-8s  %s\n", name, p.Description)
		if p.ServesRoutes() {
			fmt.Printf("          routes:  %s\n", strings.Join(p.Verbs(), ", "))
		}
		fmt.Printf("          clients: %s\n", strings.Join(p.Clients, ", "))
	}
	return nil
}
