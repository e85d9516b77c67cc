package cli

import (
	"github.com/spf13/cobra"

	"civicvoice/internal/model"
)

// newVoteCommand groups the vote subcommands.
func newVoteCommand(opts *Options) *cobra.Command {
	return newGroupCommand("vote", "Vote on an issue",
		newVoteCastCommand(opts, "up", "Upvote an issue; upvoting again removes the vote", model.VoteUpvote),
		newVoteCastCommand(opts, "down", "Downvote an issue; downvoting again removes the vote", model.VoteDownvote),
		newVoteStatusCommand(opts),
	)
}

func newVoteCastCommand(opts *Options, use, short string, action model.VoteType) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ISSUE_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Toggling needs the current vote, so it is loaded first.
			view, err := loadVotes(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			res, err := view.Votes.Vote(cmd.Context(), action)
			if err != nil {
				return explain(err)
			}
			return printAggregate(cmd.OutOrStdout(), opts.JSON, res.Aggregate, res.Estimated)
		},
	}
}

func newVoteStatusCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status ISSUE_ID",
		Short: "Show the tally and your vote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadVotes(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			return printAggregate(cmd.OutOrStdout(), opts.JSON, view.Votes.Aggregate(), false)
		},
	}
}
