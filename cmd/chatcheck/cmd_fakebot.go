package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/chatcheck/chatcheck/internal/fakebot"
)

func (a *app) newFakebotCmd() *cobra.Command {
	var (
		addr     string
		email    string
		password string
		rules    string
		delay    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "fakebot",
		Short: "Serve a local chatbot page for trying chatcheck out",
		Long: `Fakebot serves a login form, a home page and a chat widget whose markup
matches the default selectors. Point login_url at http://<addr>/ and page_url
at http://<addr>/page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bot := fakebot.New(email, password)
			bot.ReplyDelay = delay
			if rules != "" {
				rs, err := fakebot.LoadRules(rules)
				if err != nil {
					return setupError(err)
				}
				bot.Rules = rs
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return setupError(err)
			}
			srv := &http.Server{Handler: bot.Handler(), ReadHeaderTimeout: 10 * time.Second}

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			base := "http://" + ln.Addr().String()
			fmt.Fprintf(a.stdout, "fakebot listening on %s\n  login_url: %s/\n  page_url:  %s/page\n", base, base, base)
			slog.Info("fakebot started", "addr", ln.Addr().String(), "rules", len(bot.Rules))

			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	f.StringVar(&email, "email", "bot@example.com", "accepted login email")
	f.StringVar(&password, "password", "chatcheck", "accepted login password")
	f.StringVar(&rules, "rules", "", "YAML file of {contains, reply} rules replacing the defaults")
	f.DurationVar(&delay, "delay", fakebot.DefaultReplyDelay, "delay before each reply")
	return cmd
}
