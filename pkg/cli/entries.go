package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"guestbook/pkg/commands"
	"guestbook/pkg/models"
)

func init() {
	listCmd.Flags().Bool("all", false, "also show replies that cannot be threaded")
	postCmd.Flags().String("reply-to", "", "id of the entry to reply to")
	deleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(listCmd, postCmd, deleteCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show the guestbook as threads",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		sess.revalidate(cmd.Context())
		renderThreads(sess.out, sess.app.Threads(), sess.app.Unthreaded(), all)
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post <message...>",
	Short: "Broadcast a message as the current profile",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		replyTo, _ := cmd.Flags().GetString("reply-to")
		sess.app.SetReplyTarget(models.Optional(replyTo))
		sess.app.SetDraft(text)

		err := sess.app.SendMessage(cmd.Context(), text, sess.app.ReplyTarget())
		switch {
		case errors.Is(err, commands.ErrEmptyMessage):
			return nil
		case errors.Is(err, commands.ErrNoIdentity):
			return fmt.Errorf("no identity set, run: guestbook profile set --name <name>")
		case err != nil:
			return err
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Erase an entry (conductor only)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		entries := sess.revalidate(cmd.Context())

		target := models.Entry{ID: id}
		for _, e := range entries {
			if e.ID == id {
				target = e
				break
			}
		}

		err := sess.app.DeleteMessage(cmd.Context(), target)
		if errors.Is(err, commands.ErrCancelled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "cancelled")
			return nil
		}
		return err
	},
}
