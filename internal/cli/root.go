// Package cli defines the command-line interface for civicctl.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"civicvoice/internal/apiclient"
	"civicvoice/internal/config"
	"civicvoice/internal/issueview"
	"civicvoice/internal/logging"
	"civicvoice/internal/model"
)

// Options stores global CLI options shared between commands.
type Options struct {
	APIURL   string
	Token    string
	Timeout  time.Duration
	JSON     bool
	LogLevel logging.Level
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	rootCmd := newRootCommand(optionsFromConfig(cfg), logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func optionsFromConfig(cfg *config.Config) *Options {
	return &Options{
		APIURL:   cfg.APIBaseURL,
		Token:    cfg.APIToken,
		Timeout:  cfg.APITimeout,
		LogLevel: logging.ParseLevel(cfg.LogLevel),
	}
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "civicctl",
		Short:         "civicctl reads and joins the discussion on civic issues",
		Long:          "civicctl talks to a CivicVoice backend: it shows the comment thread of an issue, posts and moderates comments, and casts votes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			opts.LogLevel = level
			logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			logger.Debug("logger initialized", "level", level, "api", opts.APIURL)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", opts.APIURL, "Base URL of the CivicVoice API")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", opts.Token, "Bearer token; without one only reading is possible")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Per-request timeout")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Print results as JSON")
	cmd.PersistentFlags().String("log-level", strings.ToLower(opts.LogLevel.String()), "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newCommentsCommand(opts),
		newVoteCommand(opts),
	)

	return cmd
}

// newView builds a fresh, unloaded view for issueID.
func newView(ctx context.Context, opts *Options, issueID string) *issueview.View {
	logger := logging.FromContext(ctx)
	client := apiclient.New(opts.APIURL,
		apiclient.WithToken(opts.Token),
		apiclient.WithTimeout(opts.Timeout),
		apiclient.WithLogger(logger),
	)
	return issueview.New(client, issueID, model.VoteAggregate{}, logger)
}

// loadComments builds a view and loads its comment tree.
func loadComments(ctx context.Context, opts *Options, issueID string, sort model.SortOrder) (*issueview.View, error) {
	view := newView(ctx, opts, issueID)
	if err := view.Comments.Load(ctx, sort); err != nil {
		return nil, explain(err)
	}
	return view, nil
}

// loadVotes builds a view and loads the viewer's vote status.
func loadVotes(ctx context.Context, opts *Options, issueID string) (*issueview.View, error) {
	view := newView(ctx, opts, issueID)
	if err := view.Votes.Load(ctx); err != nil {
		return nil, explain(err)
	}
	return view, nil
}

// explain turns errors a user can act on into a hint.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case apiclient.IsTokenExpired(err):
		return fmt.Errorf("%w (token expired, sign in again and pass the new --token)", err)
	case errors.Is(err, model.ErrAuthRequired):
		return fmt.Errorf("%w (pass --token or set API_TOKEN)", err)
	case errors.Is(err, model.ErrNetwork):
		return fmt.Errorf("%w (is the API reachable at --api-url?)", err)
	default:
		return err
	}
}
