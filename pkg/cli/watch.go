package cli

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"guestbook/pkg/client"
	"guestbook/pkg/envelope"
	"guestbook/pkg/logger"
	"guestbook/pkg/models"
)

func init() {
	watchCmd.Flags().Bool("no-live", false, "only refresh on the timer, do not listen for live events")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the guestbook on screen, refreshing as signals arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		noLive, _ := cmd.Flags().GetBool("no-live")

		var mu sync.Mutex
		sess.cache.OnChange(func([]models.Entry) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprint(sess.out, "\033[H\033[2J")
			renderThreads(sess.out, sess.app.Threads(), sess.app.Unthreaded(), true)
		})
		sess.cache.Start(ctx)

		if !noLive {
			wsURL, err := client.EventsURL(sess.cfg.Client.Endpoint)
			if err != nil {
				return err
			}
			l := client.NewListener(wsURL, func(env envelope.Envelope) {
				logger.For("cli").Debug("live event", "action", env.Action)
				sess.cache.Focus()
			})
			go l.Run(ctx)
		}

		<-ctx.Done()
		return nil
	},
}
