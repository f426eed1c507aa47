package command

import (
	commandHandler "toolhub/internal/command/handler"

	"github.com/google/wire"
	"github.com/spf13/cobra"
)

var ProviderSet = wire.NewSet(NewCommand, commandHandler.NewMigrateHandler, commandHandler.NewQuotaHandler)

type Command struct {
	migrateCommandHandler *commandHandler.MigrateHandler
	quotaCommandHandler   *commandHandler.QuotaHandler
}

// NewCommand .
func NewCommand(
	migrateCommandHandler *commandHandler.MigrateHandler,
	quotaCommandHandler *commandHandler.QuotaHandler,
) *Command {
	return &Command{
		migrateCommandHandler: migrateCommandHandler,
		quotaCommandHandler:   quotaCommandHandler,
	}
}

func Register(rootCmd *cobra.Command, newCmd func() (*Command, func(), error)) {
	// run 建立依賴後執行，結束時釋放連線
	run := func(fn func(*Command, *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			command, cleanup, err := newCmd()
			if err != nil {
				return err
			}
			defer cleanup()
			return fn(command, cmd)
		}
	}

	quotaCmd := &cobra.Command{
		Use:   "quota",
		Short: "inspect or reset usage quotas",
	}
	var usageOrg, resetOrg string
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "print monthly usage of one org or all orgs",
		RunE: run(func(command *Command, cmd *cobra.Command) error {
			return command.quotaCommandHandler.Usage(cmd, usageOrg)
		}),
	}
	usageCmd.Flags().StringVar(&usageOrg, "org", "", "org id")
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "reset monthly usage of every project in an org",
		RunE: run(func(command *Command, cmd *cobra.Command) error {
			return command.quotaCommandHandler.Reset(cmd, resetOrg)
		}),
	}
	resetCmd.Flags().StringVar(&resetOrg, "org", "", "org id")
	_ = resetCmd.MarkFlagRequired("org")
	quotaCmd.AddCommand(usageCmd, resetCmd)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "create the postgres quota ledger schema",
			RunE: run(func(command *Command, cmd *cobra.Command) error {
				return command.migrateCommandHandler.Migrate(cmd, nil)
			}),
		},
		quotaCmd,
	)
}
