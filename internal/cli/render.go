package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"civicvoice/internal/commenttree"
	"civicvoice/internal/model"
)

const timeLayout = "2006-01-02 15:04"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printComments writes the forest with two spaces of indent per depth.
func printComments(w io.Writer, asJSON bool, comments []model.Comment) error {
	if asJSON {
		return printJSON(w, model.CommentListResponse{Comments: comments, Total: commenttree.Count(comments)})
	}
	if len(comments) == 0 {
		_, err := fmt.Fprintln(w, "no comments yet")
		return err
	}

	var werr error
	commenttree.Walk(comments, func(c model.Comment, depth int) bool {
		_, werr = fmt.Fprintln(w, formatComment(c, depth))
		return werr == nil
	})
	if werr != nil {
		return werr
	}
	_, err := fmt.Fprintf(w, "%d comments\n", commenttree.Count(comments))
	return err
}

func printComment(w io.Writer, asJSON bool, c model.Comment) error {
	if asJSON {
		return printJSON(w, c)
	}
	_, err := fmt.Fprintln(w, formatComment(c, 0))
	return err
}

func formatComment(c model.Comment, depth int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&b, "- %s [%s] %s", c.AuthorName, c.ID, c.CreatedAt.Format(timeLayout))
	if c.IsEdited() {
		b.WriteString(" (edited)")
	}
	if c.IsFlagged {
		fmt.Fprintf(&b, " (flagged x%d)", c.FlagCount)
	}
	b.WriteString(": ")
	b.WriteString(strings.ReplaceAll(c.Content, "\n", " "))
	return b.String()
}

func printAggregate(w io.Writer, asJSON bool, agg model.VoteAggregate, estimated bool) error {
	if asJSON {
		return printJSON(w, struct {
			model.VoteAggregate
			Estimated bool `json:"estimated,omitempty"`
		}{agg, estimated})
	}
	line := fmt.Sprintf("score %d (up %d, down %d), your vote: %s", agg.Score, agg.Upvotes, agg.Downvotes, agg.UserVote)
	if estimated {
		line += " (estimated)"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
