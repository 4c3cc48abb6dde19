package main

import (
	"context"
	"fmt"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xref-tui/internal/api"
	"xref-tui/internal/cache"
	"xref-tui/internal/location"
	"xref-tui/internal/logging"
	"xref-tui/internal/session"
	"xref-tui/internal/settings"
	"xref-tui/internal/ui"
	"xref-tui/internal/verse"
)

var (
	cfgFile   string
	serverURL string
	verseFlag string
	themeName string
	logFile   string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "xref-tui [page-url]",
	Short: "Explore scripture cross-references in the terminal",
	Long: `xref-tui draws the cross-references of a verse as a graph, next to a
navigation tree and a reference table. Every focus change is recorded in the
page URL, so a link such as http://127.0.0.1:8080/?verse=John+3%3A16 reopens
the same view.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default $XDG_CONFIG_HOME/xref-tui/config.yaml)")
	rootCmd.Flags().StringVar(&serverURL, "server", "", "cross-reference server URL")
	rootCmd.Flags().StringVar(&verseFlag, "verse", "", "verse to open, e.g. \"Hel. 5:12\"")
	rootCmd.Flags().StringVar(&themeName, "theme", "", "colour theme")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log at debug level")
}

// loadSettings reads the config file and environment, then applies flags the
// user set explicitly.
func loadSettings(cmd *cobra.Command) (settings.Settings, string, error) {
	path := cfgFile
	if path == "" {
		p, err := settings.Path()
		if err != nil {
			return settings.Settings{}, "", err
		}
		path = p
	}

	s, err := settings.Load(path)
	if err != nil {
		return s, path, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		s.Server = serverURL
	}
	if flags.Changed("theme") {
		s.Theme = themeName
	}
	if flags.Changed("log-file") {
		s.LogFile = logFile
	}
	if flags.Changed("debug") {
		s.Debug = debug
	}
	return s, path, s.Validate()
}

// resolvePage works out the page URL to start from and the server root the
// client talks to. A page URL argument wins over the configured server, and
// --verse overrides whatever verse the page URL names.
func resolvePage(server, pageArg, v string) (page, base string, err error) {
	page, base = server, server
	if pageArg != "" {
		u, err := url.Parse(pageArg)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "", "", fmt.Errorf("page url %q must be absolute", pageArg)
		}
		page = pageArg
		u.RawQuery = ""
		u.Fragment = ""
		base = u.String()
	}

	if v != "" {
		u, err := url.Parse(page)
		if err != nil {
			return "", "", fmt.Errorf("parse page url: %w", err)
		}
		q := u.Query()
		q.Set(location.QueryParam, v)
		u.RawQuery = q.Encode()
		page = u.String()
	}
	return page, base, nil
}

func run(cmd *cobra.Command, args []string) error {
	s, path, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(s.LogFile, s.Debug)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logger.Sync()

	var pageArg string
	if len(args) == 1 {
		pageArg = args[0]
	}
	page, base, err := resolvePage(s.Server, pageArg, verseFlag)
	if err != nil {
		return err
	}

	client, err := api.NewClient(base, s.RequestTimeout)
	if err != nil {
		return err
	}
	client.SetLogger(logger)
	if s.CacheTree {
		c, err := cache.NewCache("")
		if err != nil {
			logger.Warn("tree cache unavailable", zap.Error(err))
		} else {
			client.SetCache(c)
		}
	}

	loc, err := location.New(page, verse.ID(s.DefaultVerse), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sess := session.New(ctx, client, loc, logger)
	logger.Info("session started", zap.String("session", sess.ID), zap.String("server", base))

	model := ui.New(sess, ui.Options{Settings: s, SettingsPath: path})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
