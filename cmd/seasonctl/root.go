package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/cropseason/internal/adapter/api"
	"github.com/neomorfeo/cropseason/internal/adapter/fsm"
	"github.com/neomorfeo/cropseason/internal/app"
	"github.com/neomorfeo/cropseason/internal/config"
)

// cli holds the state shared by every subcommand.
type cli struct {
	apiURL  string
	timeout time.Duration
	output  string
	verbose bool

	client    *api.Client
	validator *fsm.Validator
	svc       *app.SeasonService
}

func newRootCmd(cfg config.CLI) *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "seasonctl",
		Short: "Manage crop seasons",
		Long: `seasonctl runs season lifecycle actions against a cropseason API.

Every action reads the season's current status first and refuses moves the
lifecycle does not allow, reporting the statuses that are reachable instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.connect(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.apiURL, "api-url", cfg.APIURL, "cropseason API base URL (env SEASONCTL_API_URL)")
	flags.DurationVar(&c.timeout, "timeout", cfg.Timeout, "request timeout (env SEASONCTL_TIMEOUT)")
	flags.StringVarP(&c.output, "output", "o", "table", "output format: table or json")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log lifecycle decisions to stderr")

	root.AddCommand(
		c.getCmd(),
		c.listCmd(),
		c.createCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.startCmd(),
		c.completeCmd(),
		c.cancelCmd(),
		c.archiveCmd(),
		c.historyCmd(),
		c.validateCmd(),
		c.exportCmd(),
	)
	return root
}

// connect builds the remote store and the lifecycle service.
func (c *cli) connect(cmd *cobra.Command) error {
	if c.output != "table" && c.output != "json" {
		return fmt.Errorf("unknown output format %q (use table or json)", c.output)
	}

	client, err := api.New(c.apiURL, api.WithHTTPClient(&http.Client{Timeout: c.timeout}))
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	c.client = client
	c.validator = fsm.New()
	c.svc = app.NewSeasonService(client, c.validator, app.WithLogger(logger))
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid season id %q", arg)
	}
	return id, nil
}

// confirm asks a yes/no question on the command's input. Anything but an
// explicit yes, including EOF, is a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
