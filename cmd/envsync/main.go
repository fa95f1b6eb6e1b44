package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jenian/envsync/internal/codec"
	"github.com/jenian/envsync/internal/config"
	"github.com/jenian/envsync/internal/discovery"
	"github.com/jenian/envsync/internal/envfile"
	"github.com/jenian/envsync/internal/gitignore"
	"github.com/jenian/envsync/internal/index"
	"github.com/jenian/envsync/internal/logger"
	"github.com/jenian/envsync/internal/output"
	"github.com/jenian/envsync/internal/reconcile"
	"github.com/jenian/envsync/internal/server"
	"github.com/jenian/envsync/internal/store"
	"github.com/jenian/envsync/internal/transfer"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "envsync",
		Short: "Keep local env files in sync with the central secret store",
		Long:  "A CLI tool that discovers repositories, reads their env files, and reconciles them against a central secret store organized by folder and environment.",
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the per-user envsync configuration",
		RunE:  runInit,
	}

	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "Reconcile every repository under a path against the central store",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}

	pushCmd = &cobra.Command{
		Use:   "push [path]",
		Short: "Upload one repository's env file to the central store",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPush,
	}

	pullCmd = &cobra.Command{
		Use:   "pull [path]",
		Short: "Write a remote folder/environment group into a local env file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPull,
	}

	deleteCmd = &cobra.Command{
		Use:   "delete <key> [path]",
		Short: "Remove one key from a folder/environment group",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runDelete,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List remote folders, environments and secret counts",
		RunE:  runList,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Expose scan and list over HTTP for external agents",
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}

	// Flags
	storeURL    string
	debug       bool
	initProject string
	initEnv     string
	scanEnv     string
	maxDepth    int
	jsonOutput  bool
	silent      bool
	noHeader    bool
	envFileName string
	pushEnv     string
	dryRun      bool
	pullEnv     string
	deleteEnv   string
	force       bool
	serveAddr   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&storeURL, "store-url", os.Getenv("ENVSYNC_STORE_URL"), "Base URL of the central secret service")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	initCmd.Flags().StringVar(&initProject, "project", "", "Central namespace all secrets live under")
	initCmd.Flags().StringVar(&initEnv, "environment", "", "Default environment for push and pull")
	_ = initCmd.MarkFlagRequired("project")

	scanCmd.Flags().StringVar(&scanEnv, "env", "", "Only check this environment")
	scanCmd.Flags().IntVar(&maxDepth, "max-depth", discovery.DefaultMaxDepth, "Maximum directory depth to search for repositories")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	scanCmd.Flags().BoolVar(&silent, "silent", false, "Silent mode (exit code only)")
	scanCmd.Flags().BoolVar(&noHeader, "no-header", false, "Skip printing the header")

	pushCmd.Flags().StringVar(&envFileName, "file", ".env", "Env file to read or write")
	pushCmd.Flags().StringVar(&pushEnv, "env", "", "Environment to push into (default: configured default)")
	pushCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without writing")

	pullCmd.Flags().StringVar(&envFileName, "file", ".env", "Env file to read or write")
	pullCmd.Flags().StringVar(&pullEnv, "env", "", "Environment to pull from (default: configured default)")
	pullCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing env file")

	deleteCmd.Flags().StringVar(&deleteEnv, "env", "", "Environment to delete from (default: configured default)")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:7980", "Listen address")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.Save(&config.Config{
		CentralProject:     initProject,
		DefaultEnvironment: initEnv,
	}); err != nil {
		return err
	}

	path, _ := config.Path()
	fmt.Printf("%s Wrote %s\n", color.GreenString("✓"), path)
	return nil
}

// setup loads the user config and builds the logger and store client shared
// by every command that talks to the central store.
func setup() (*config.Config, *zap.Logger, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.CentralProject == "" {
		return nil, nil, nil, fmt.Errorf("no central project configured: run `envsync init --project <name>` first")
	}
	if storeURL == "" {
		return nil, nil, nil, fmt.Errorf("no store URL: pass --store-url or set ENVSYNC_STORE_URL")
	}

	log, err := logger.New(debug)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, store.NewClient(storeURL, log), nil
}

func resolvePath(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("path does not exist: %s", absPath)
	}
	return absPath, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	absPath, err := resolvePath(args)
	if err != nil {
		return err
	}

	cfg, log, st, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !noHeader && !jsonOutput && !silent {
		fmt.Printf("envsync %s — scanning %s (project %s)\n\n", Version, absPath, cfg.CentralProject)
	}

	opts, err := config.LoadScanOptions(absPath)
	if err != nil {
		if !silent {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .envsync.yaml: %v\n", err)
		}
		opts = &config.ScanOptions{}
	}

	scanner := &reconcile.Scanner{
		Store:     st,
		Oracle:    gitignore.GitOracle{},
		Logger:    log,
		Namespace: cfg.CentralProject,
		MaxDepth:  maxDepth,
		EnvFilter: scanEnv,
		SkipDirs:  opts.Ignores.Folders,
	}

	var spin *spinner.Spinner
	if !jsonOutput && !silent && !debug {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		spin.Suffix = " Reconciling against " + cfg.CentralProject + "..."
		_ = spin.Color("cyan")
		spin.Start()
	}

	report, err := scanner.Scan(cmd.Context(), absPath)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if !silent {
		if err := output.Format(os.Stdout, report, jsonOutput); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
	}
	if report.HasIssues() {
		// os.Exit skips deferred functions; flush the logger first.
		_ = log.Sync()
		os.Exit(1)
	}
	return nil
}

func runPush(cmd *cobra.Command, args []string) error {
	absPath, err := resolvePath(args)
	if err != nil {
		return err
	}

	cfg, log, st, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	entries, err := envfile.ParseFile(filepath.Join(absPath, envFileName))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s has no entries to push", envFileName)
	}

	folder := normalizedFolder(absPath)
	environment := firstNonEmpty(pushEnv, cfg.DefaultEnvironment)

	svc := &transfer.Service{Store: st, Logger: log, Namespace: cfg.CentralProject}
	stats, err := svc.Push(cmd.Context(), folder, environment, entries, dryRun)
	if err != nil {
		return err
	}

	verb := "Pushed"
	if dryRun {
		verb = "Would push"
	}
	fmt.Printf("%s %s %s [%s]: %d created, %d updated\n",
		color.GreenString("✓"), verb, folder, displayEnv(environment), stats.Created, stats.Updated)
	return nil
}

func runPull(cmd *cobra.Command, args []string) error {
	absPath, err := resolvePath(args)
	if err != nil {
		return err
	}

	cfg, log, st, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	target := filepath.Join(absPath, envFileName)
	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("%s already exists: use --force to overwrite", target)
	}

	folder := normalizedFolder(absPath)
	environment := firstNonEmpty(pullEnv, cfg.DefaultEnvironment)

	svc := &transfer.Service{Store: st, Logger: log, Namespace: cfg.CentralProject}
	entries, err := svc.Pull(cmd.Context(), folder, environment)
	if err != nil {
		return err
	}

	if err := os.WriteFile(target, []byte(envfile.Render(entries)), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	fmt.Printf("%s Wrote %d keys to %s\n", color.GreenString("✓"), len(entries), target)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	key := args[0]
	absPath, err := resolvePath(args[1:])
	if err != nil {
		return err
	}

	cfg, log, st, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	folder := normalizedFolder(absPath)
	environment := firstNonEmpty(deleteEnv, cfg.DefaultEnvironment)

	svc := &transfer.Service{Store: st, Logger: log, Namespace: cfg.CentralProject}
	if err := svc.Delete(cmd.Context(), folder, environment, key); err != nil {
		return err
	}
	fmt.Printf("%s Deleted %s from %s [%s]\n", color.GreenString("✓"), key, folder, displayEnv(environment))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, log, st, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ix, err := index.Build(cmd.Context(), st, cfg.CentralProject, log)
	if err != nil {
		return err
	}

	folders := ix.Folders()
	if len(folders) == 0 {
		fmt.Printf("No secrets under %s\n", cfg.CentralProject)
		return nil
	}
	// Folders and Environments are sorted, keeping output stable run to run.
	for _, folder := range folders {
		fmt.Println(color.CyanString(folder))
		if n := len(ix.Group(folder, "")); n > 0 {
			fmt.Printf("  %-12s %d secrets\n", displayEnv(""), n)
		}
		for _, env := range ix.Environments(folder) {
			fmt.Printf("  %-12s %d secrets\n", env, len(ix.Group(folder, env)))
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, st, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	router := server.NewRouter(&server.Handler{
		Store:     st,
		Oracle:    gitignore.GitOracle{},
		Logger:    log,
		Namespace: cfg.CentralProject,
	})

	log.Info("starting envsync server", zap.String("addr", serveAddr))
	fmt.Printf("Listening on %s\n", serveAddr)
	return http.ListenAndServe(serveAddr, router)
}

func normalizedFolder(repoPath string) string {
	// The folder slug derives from the repository directory name, the same
	// way the scan maps repositories to remote groups.
	return codec.NormalizeFolder(filepath.Base(repoPath))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func displayEnv(env string) string {
	if env == "" {
		return "(default)"
	}
	return env
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
