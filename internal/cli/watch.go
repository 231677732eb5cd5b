package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"pmdesk/internal/domain"
	"pmdesk/internal/query"
	"pmdesk/internal/realtime"
)

func newWatchCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Args:  cobra.NoArgs,
		Short: "Follow backend changes and print what they do to the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.requireLogin(); err != nil {
				return err
			}

			wsURL, err := realtimeURL(a.Config.Realtime.URL, a.Client.BaseURL())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if res := a.Resources.Tasks.Find(ctx, domain.DefaultFilter()); res.Err != nil {
				return res.Err
			}

			out := cmd.OutOrStdout()
			unsubscribe := a.Cache.Subscribe(func(ev query.Event) {
				fmt.Fprintf(out, "%-11s %s\n", eventName(ev.Type), ev.Key)
			})
			defer unsubscribe()

			l := realtime.NewListener(wsURL, a.Cache,
				realtime.WithReconnectDelay(a.Config.Realtime.ReconnectDelay),
				realtime.WithTokenSource(a.Client.Token),
				realtime.WithListenerLogger(a.Log),
			)
			fmt.Fprintf(out, "Watching %s\n", wsURL)
			if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

// realtimeURL returns configured, or derives the change feed address from
// the API base: http becomes ws and a trailing /api is replaced by /ws.
func realtimeURL(configured, apiBase string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("invalid API base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/api") + "/ws"
	return u.String(), nil
}

func eventName(t query.EventType) string {
	switch t {
	case query.EventUpdated:
		return "updated"
	case query.EventInvalidated:
		return "invalidated"
	case query.EventRemoved:
		return "removed"
	}
	return "unknown"
}
