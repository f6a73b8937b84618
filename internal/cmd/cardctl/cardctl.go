// Package cardctl implements the operator CLI: migrations, catalog seeding,
// upstream catalog sync, and account promotion.
package cardctl

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/cardtrainer/internal/platform/config"
	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	trainer "github.com/louisbranch/cardtrainer/internal/services/trainer/app"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/catalog"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/clashroyale"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// envConfig is the database and upstream configuration shared with the server.
type envConfig struct {
	DatabaseURL       string `env:"DATABASE_URL"`
	DBPath            string `env:"CARDTRAINER_DB_PATH" envDefault:"data/cardtrainer.db"`
	ClashRoyaleAPIKey string `env:"CLASH_ROYALE_API_KEY"`
	ClashRoyaleAPIURL string `env:"CLASH_ROYALE_API_URL"`
}

type cli struct {
	lookup  EnvLookup
	env     envConfig
	dbPath  string
	verbose bool
	logger  *zap.Logger
}

// NewRootCommand builds the cardctl command tree.
func NewRootCommand(lookup EnvLookup) *cobra.Command {
	c := &cli{lookup: lookup}

	root := &cobra.Command{
		Use:   "cardctl",
		Short: "Operate the card trainer database",
		Long: `cardctl manages the card trainer's database.

The database is chosen like the server does: DATABASE_URL when it is a
postgres:// URL, otherwise the SQLite file at CARDTRAINER_DB_PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ParseEnvWithLookup(&c.env, c.lookup); err != nil {
				return err
			}
			if strings.TrimSpace(c.dbPath) != "" {
				c.env.DBPath = c.dbPath
			}
			logger, err := logging.NewDevelopment(c.verbose)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			c.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db-path", "", "SQLite database path (overrides CARDTRAINER_DB_PATH)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(c.migrateCommand(), c.seedCommand(), c.cardsCommand(), c.usersCommand())
	return root
}

func (c *cli) openStore(ctx context.Context) (storage.Store, error) {
	store, err := trainer.OpenStore(ctx, c.env.DatabaseURL, c.env.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.logger.Debug("store opened", zap.String("backend", trainer.Backend(c.env.DatabaseURL)))
	return store, nil
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", trainer.Backend(c.env.DatabaseURL))
			return nil
		},
	}
}

func (c *cli) seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import cards from a YAML catalog",
		Long: `Import cards from a YAML catalog. Cards are matched by English name, so
re-running the same file updates rather than duplicates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer f.Close()
			inputs, err := catalog.Parse(f)
			if err != nil {
				return describeInvalid(err)
			}

			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := catalog.NewImporter(store, nil, nil).Import(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d cards (%d created, %d updated)\n", result.Created+result.Updated, result.Created, result.Updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "configs/cards.yaml", "Catalog file")
	return cmd
}

func (c *cli) cardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Inspect and sync the card catalog",
	}

	var filter string
	list := &cobra.Command{
		Use:   "list",
		Short: "List cards, optionally narrowed by an AIP-160 filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			cards, err := store.ListCards(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tNAME_EN\tELIXIR\tTYPE\tRARITY")
			for _, cd := range cards {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", cd.Name, cd.NameEn, cd.ElixirCost, cd.Type, cd.Rarity)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&filter, "filter", "", `Filter expression, e.g. 'elixir_cost >= 5 AND rarity = "epic"'`)

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Import the card list from the Clash Royale API",
		Long: `Fetch /cards from the Clash Royale API and upsert every card by English
name. Existing cards keep their Portuguese name, descriptions and stats.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := clashroyale.New(clashroyale.Config{
				BaseURL: c.env.ClashRoyaleAPIURL,
				APIKey:  c.env.ClashRoyaleAPIKey,
				Logger:  c.logger,
			})
			body, err := client.Cards(cmd.Context())
			if err != nil {
				return err
			}
			upstream, err := catalog.ParseUpstream(body)
			if err != nil {
				return err
			}

			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			result, err := catalog.NewImporter(store, nil, nil).Sync(cmd.Context(), upstream)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d cards (%d created, %d updated)\n", result.Created+result.Updated, result.Created, result.Updated)
			return nil
		},
	}

	cmd.AddCommand(list, sync)
	return cmd
}

func (c *cli) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	promote := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant admin permission to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setPermission(cmd, args[0], user.PermissionAdmin)
		},
	}
	demote := &cobra.Command{
		Use:   "demote <email>",
		Short: "Revoke admin permission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.setPermission(cmd, args[0], user.PermissionNormal)
		},
	}
	cmd.AddCommand(promote, demote)
	return cmd
}

func (c *cli) setPermission(cmd *cobra.Command, email string, permission user.Permission) error {
	store, err := c.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	u, err := store.GetUserByEmail(cmd.Context(), email)
	if err != nil {
		return fmt.Errorf("find %s: %w", email, err)
	}
	updated, err := store.SetUserPermission(cmd.Context(), u.ID, permission, nowUTC())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s permission set to %d\n", updated.Email, updated.Permission)
	return nil
}
