package cmd

import (
	"context"
	"fmt"
	u "net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/recudl/internal/config"
	"github.com/tanq16/recudl/internal/output"
	"github.com/tanq16/recudl/internal/scheduler"
	"github.com/tanq16/recudl/internal/state"
	"github.com/tanq16/recudl/internal/update"
	"github.com/tanq16/recudl/internal/utils"
)

var (
	configPath    string
	workers       int
	timeout       time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	debug         bool
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "recudl",
	Short:   "Recudl downloads session-gated streams listed in its config",
	Version: Version,
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		output.PrintHeader("recudl " + Version)
		if cmd.Name() != "update" {
			if tag, _ := update.Check(cmd.Context(), Version); tag != "" {
				output.PrintInfo("New update available: " + tag)
			}
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		s, targets, ok := setupDownload()
		if !ok {
			return
		}
		jobs := s.Resolve(cmd.Context(), targets)
		s.RunParallel(cmd.Context(), jobs, workers)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, creating the skeleton and printing
// fill-in instructions when it does not exist yet.
func loadConfig() (*config.Config, bool) {
	if _, err := os.Stat(configPath); err != nil {
		cfg := config.Default(configPath)
		if err := cfg.Save(); err != nil {
			output.PrintError(fmt.Sprintf("Cannot create %s: %v", configPath, err))
			return nil, false
		}
		output.PrintInfo(configPath + " created in working directory")
		output.PrintInfo("Please fill in the urls to download, the Cookie and the User-Agent")
		return nil, false
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		output.PrintError(fmt.Sprintf("Cannot read %s: %v", configPath, err))
		return nil, false
	}
	return cfg, true
}

// setupDownload loads the config, validates its targets and builds the
// scheduler all download commands share.
func setupDownload() (*scheduler.Scheduler, []config.Target, bool) {
	cfg, ok := loadConfig()
	if !ok {
		return nil, nil, false
	}
	if cfg.Empty() {
		output.PrintWarning("Please modify " + configPath)
		return nil, nil, false
	}
	targets, err := cfg.Targets()
	if err != nil {
		output.PrintError(fmt.Sprintf("Urls are in wrong format: %v", err))
		return nil, nil, false
	}
	return newScheduler(cfg), targets, true
}

func newScheduler(cfg *config.Config) *scheduler.Scheduler {
	history := state.NewLog(state.DefaultPath)
	return scheduler.New(buildClient(), cfg.Header, cfg.PostProcess, history)
}

// buildClient assembles the shared HTTP client from the persistent
// flags. Client-level User-Agent and header overrides beat the config
// template on every request.
func buildClient() *utils.RecuHTTPClient {
	agent := userAgent
	if agent == "randomize" {
		agent = utils.GetRandomUserAgent()
	}
	proxy := proxyURL
	// Check if proxy URL contains auth
	parsedProxy, err := u.Parse(proxy)
	if err == nil && parsedProxy.User != nil && proxyUsername == "" {
		proxyUsername = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			proxyPassword = password
		}
		parsedProxy.User = nil
		proxy = parsedProxy.String()
	}
	return utils.NewRecuHTTPClient(utils.HTTPClientConfig{
		Timeout:       timeout,
		ProxyURL:      proxy,
		ProxyUsername: proxyUsername,
		ProxyPassword: proxyPassword,
		UserAgent:     agent,
		Headers:       utils.ParseHeaderArgs(headers),
	})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", scheduler.DefaultWorkers, "Number of streams to download in parallel")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "Overall HTTP timeout (0 leaves deadlines to each request)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", "", "Override the config User-Agent ('randomize' picks one)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Extra headers (like 'X-Request-Id: 1'); can be specified multiple times")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(newSeriesCmd(), newHybridCmd(), newPlaylistCmd(), newParseCmd(), newBatchCmd(), newUpdateCmd())
}
