package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-api-client/internal/app"
	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
)

// SessionFactory builds the session used by one command invocation.
type SessionFactory func(ctx context.Context, cfg *config.Config, log logger.Logger, opts app.SessionOptions) (*app.Session, error)

// Env carries what the command tree needs from main.
type Env struct {
	Config     *config.Config
	Logger     logger.Logger
	NewSession SessionFactory
}

type globalFlags struct {
	endpoint string
	host     string
	headers  []string
	quiet    bool
}

// NewRootCmd assembles the apiclient command tree.
func NewRootCmd(env Env) *cobra.Command {
	if env.Logger == nil {
		env.Logger = logger.NopLogger{}
	}
	if env.NewSession == nil {
		env.NewSession = app.NewSession
	}

	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "apiclient",
		Short: "Call JSON/HTTP APIs and keep a history of every exchange",
		Long: `apiclient sends GET, POST, PUT and OPTIONS requests to a configured API host,
logs the raw exchange, stores it in the capture history and exports it to
the configured publishers.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.endpoint, "endpoint", "", "endpoint profile id from the endpoints file")
	pf.StringVar(&flags.host, "host", "", "base host, overrides api_host and the endpoint profile")
	pf.StringArrayVarP(&flags.headers, "header", "H", nil, `extra header line ("Name: value"), repeatable`)
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress the status line")

	for _, verb := range []string{"get", "post", "put", "options"} {
		root.AddCommand(newRequestCmd(env, flags, verb))
	}
	root.AddCommand(newHistoryCmd(env))

	return root
}
