// Package cli is the terminal front end of the guestbook.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"guestbook/pkg/client"
	"guestbook/pkg/commands"
	"guestbook/pkg/config"
	"guestbook/pkg/localstore"
	"guestbook/pkg/logger"
	"guestbook/pkg/models"
	"guestbook/pkg/policy"
	"guestbook/pkg/profile"
	"guestbook/pkg/syncache"
	"guestbook/pkg/toast"
)

var (
	version = "dev"
	commit  = "unknown"
)

// session is everything a subcommand needs, built once per invocation.
type session struct {
	cfg    *config.Config
	store  *localstore.Store
	client *client.Client
	cache  *syncache.Cache
	toasts *toast.Notifier
	app    *commands.App
	out    io.Writer
}

func (s *session) close() {
	s.cache.Stop()
	s.toasts.Stop()
	if err := s.store.Close(); err != nil {
		logger.For("cli").Warn("closing local store", "err", err)
	}
}

var sess *session

var rootCmd = &cobra.Command{
	Use:   "guestbook",
	Short: "Ghost Tram guestbook terminal client",
	Long: `Read and write the Ghost Tram guestbook from a terminal.

Messages are signed with a local pseudonym profile kept under the data
directory. Run "guestbook profile set --name ..." to choose one.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		sess = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sess != nil {
			sess.close()
			sess = nil
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if sess != nil {
			sess.close()
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().String("endpoint", "", "guestbook API endpoint (default from GUESTBOOK_ENDPOINT)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for the local profile store (default from GUESTBOOK_DATA_DIR)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		cfg.Client.Endpoint = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Client.DataDir = v
	}
	level := cfg.Log.Level
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = "debug"
	}
	logger.Log = logger.New(os.Stderr, level, cfg.Log.Format)

	store, err := localstore.Open(cfg.Client.DataDir)
	if err != nil {
		return nil, err
	}
	profiles, err := profile.Load(store, profile.Options{})
	if err != nil {
		store.Close()
		return nil, err
	}

	out := cmd.OutOrStdout()
	c := client.New(cfg.Client.Endpoint, client.Options{Timeout: cfg.Client.RequestTimeout})
	cache := syncache.New(c, syncache.Options{Interval: cfg.Client.RefreshInterval})
	toasts := toast.New(cfg.Client.ToastDuration)
	toasts.OnChange(func(t toast.Toast) {
		if t.Visible {
			fmt.Fprintf(cmd.ErrOrStderr(), "> %s\n", t.Message)
		}
	})

	in := bufio.NewReader(cmd.InOrStdin())
	app := commands.New(commands.Deps{
		Store:     c,
		Cache:     cache,
		Profiles:  profiles,
		Toasts:    toasts,
		CanDelete: policy.FromConfig(cfg.Server.AdminName, cfg.Server.AdminNameBcrypt),
		Confirm: func(e models.Entry) bool {
			if yes, _ := cmd.Flags().GetBool("yes"); yes {
				return true
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Erase %q by %s? [y/N] ", truncate(e.Message, 40), e.Name)
			line, _ := in.ReadString('\n')
			answer := strings.ToLower(strings.TrimSpace(line))
			return answer == "y" || answer == "yes"
		},
	})

	return &session{
		cfg:    cfg,
		store:  store,
		client: c,
		cache:  cache,
		toasts: toasts,
		app:    app,
		out:    out,
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// revalidate refreshes the list for one-shot commands.
func (s *session) revalidate(ctx context.Context) []models.Entry {
	entries, err := s.cache.Revalidate(ctx)
	if err != nil {
		logger.For("cli").Debug("revalidate failed", "err", err)
	}
	return entries
}
