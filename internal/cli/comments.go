package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"civicvoice/internal/commenttree"
	"civicvoice/internal/model"
)

// newCommentsCommand groups the comment subcommands.
func newCommentsCommand(opts *Options) *cobra.Command {
	return newGroupCommand("comments", "Read and manage the comment thread of an issue",
		newCommentsListCommand(opts),
		newCommentsAddCommand(opts),
		newCommentsEditCommand(opts),
		newCommentsDeleteCommand(opts),
		newCommentsFlagCommand(opts),
	)
}

func newCommentsListCommand(opts *Options) *cobra.Command {
	var sort string

	cmd := &cobra.Command{
		Use:   "list ISSUE_ID",
		Short: "Show the nested comment thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadComments(cmd.Context(), opts, args[0], model.ParseSortOrder(sort))
			if err != nil {
				return err
			}
			return printComments(cmd.OutOrStdout(), opts.JSON, view.Comments.Comments())
		},
	}

	cmd.Flags().StringVar(&sort, "sort", string(model.SortNewest), "Order of comments (newest, oldest)")
	return cmd
}

func newCommentsAddCommand(opts *Options) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "add ISSUE_ID CONTENT",
		Short: "Post a comment, or a reply with --parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadComments(cmd.Context(), opts, args[0], model.SortNewest)
			if err != nil {
				return err
			}

			var parentID *string
			if parent != "" {
				parentID = &parent
			}
			created, err := view.Comments.Add(cmd.Context(), args[1], parentID)
			if err != nil {
				return explain(err)
			}
			return printComment(cmd.OutOrStdout(), opts.JSON, created)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "ID of the comment to reply to")
	return cmd
}

func newCommentsEditCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "edit ISSUE_ID COMMENT_ID CONTENT",
		Short: "Replace the content of one of your comments",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadComments(cmd.Context(), opts, args[0], model.SortNewest)
			if err != nil {
				return err
			}
			updated, err := view.Comments.Update(cmd.Context(), args[1], args[2])
			if err != nil {
				return explain(err)
			}
			return printComment(cmd.OutOrStdout(), opts.JSON, updated)
		},
	}
}

func newCommentsDeleteCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ISSUE_ID COMMENT_ID",
		Short: "Delete one of your comments and all replies under it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadComments(cmd.Context(), opts, args[0], model.SortNewest)
			if err != nil {
				return err
			}
			target, ok := view.Comments.Find(args[1])
			if !ok {
				return fmt.Errorf("comment %s: %w", args[1], model.ErrCommentNotFound)
			}
			if err := view.Comments.Delete(cmd.Context(), args[1]); err != nil {
				return explain(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%d replies removed)\n", args[1], commenttree.Count(target.Replies))
			return err
		},
	}
}

func newCommentsFlagCommand(opts *Options) *cobra.Command {
	var (
		reason  string
		details string
	)

	cmd := &cobra.Command{
		Use:   "flag ISSUE_ID COMMENT_ID",
		Short: "Report a comment for review",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := loadComments(cmd.Context(), opts, args[0], model.SortNewest)
			if err != nil {
				return err
			}

			var detailsPtr *string
			if details != "" {
				detailsPtr = &details
			}
			r := model.FlagReason(strings.ToUpper(reason))
			if err := view.Comments.Flag(cmd.Context(), args[1], r, detailsPtr); err != nil {
				return explain(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "flagged %s as %s\n", args[1], r)
			return err
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason: "+joinReasons())
	cmd.Flags().StringVar(&details, "details", "", "Optional details for moderators")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func joinReasons() string {
	names := make([]string, len(model.FlagReasons))
	for i, r := range model.FlagReasons {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
