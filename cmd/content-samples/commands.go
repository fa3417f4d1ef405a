package main

import (
	"context"

	"github.com/Sternrassler/merchant-api-samples/internal/samples"
	"github.com/Sternrassler/merchant-api-samples/pkg/content"
	"github.com/spf13/cobra"
)

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "content-samples",
		Short:         "Merchant API samples",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"configuration file or directory holding merchant-info.json (default $HOME/shopping-samples/content)")
	root.PersistentFlags().StringVar(&a.endpoint, "endpoint", "", "API root URL, overrides the configured endpoint")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.ordersCmd(),
		a.accountsCmd(),
		a.settingsCmd("accountstatuses", "Account status reports", settingsOps{
			get:      (*samples.Runner).AccountStatus,
			list:     (*samples.Runner).ListAccountStatuses,
			workflow: (*samples.Runner).AccountStatusWorkflow,
		}),
		a.settingsCmd("accounttax", "Account tax settings", settingsOps{
			get:      (*samples.Runner).AccountTax,
			list:     (*samples.Runner).ListAccountTax,
			workflow: (*samples.Runner).AccountTaxWorkflow,
		}),
		a.settingsCmd("shippingsettings", "Shipping settings", settingsOps{
			get:      (*samples.Runner).ShippingSettings,
			list:     (*samples.Runner).ListShippingSettings,
			workflow: (*samples.Runner).ShippingSettingsWorkflow,
		}),
		a.productsCmd(),
	)
	return root
}

func (a *app) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Sandbox order samples"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "workflow",
			Short: "Create a test order and drive it from acknowledgement to return",
			Args:  cobra.NoArgs,
			RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, _ []string) error {
				_, err := r.OrdersWorkflow(ctx)
				return err
			}),
		},
		&cobra.Command{
			Use:   "list-unacknowledged",
			Short: "Print every order not yet acknowledged",
			Args:  cobra.NoArgs,
			RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, _ []string) error {
				_, err := r.ListUnacknowledgedOrders(ctx)
				return err
			}),
		},
	)
	return cmd
}

func (a *app) accountsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "accounts", Short: "Account samples"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [ACCOUNT_ID]",
			Short: "Print an account",
			Args:  cobra.MaximumNArgs(1),
			RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, args []string) error {
				id, err := accountArg(r, args)
				if err != nil {
					return err
				}
				return r.GetAccount(ctx, id)
			}),
		},
		&cobra.Command{
			Use:   "add-user",
			Short: "Add the configured sample user to the merchant account",
			Args:  cobra.NoArgs,
			RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, _ []string) error {
				return r.AddUser(ctx)
			}),
		},
		&cobra.Command{
			Use:   "delete-batch ACCOUNT_ID [ACCOUNT_ID...]",
			Short: "Delete sub-accounts in one batch call",
			Args:  cobra.MinimumNArgs(1),
			RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, args []string) error {
				ids := make([]uint64, 0, len(args))
				for _, arg := range args {
					id, err := content.ParseID(arg)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				return r.DeleteAccountBatch(ctx, ids...)
			}),
		},
	)
	return cmd
}

// settingsOps are the three samples every per-account settings resource offers.
type settingsOps struct {
	get      func(*samples.Runner, context.Context, uint64) error
	list     func(*samples.Runner, context.Context) (int, error)
	workflow func(*samples.Runner, context.Context) error
}

func (a *app) settingsCmd(name, short string, ops settingsOps) *cobra.Command {
	cmd := &cobra.Command{Use: name, Short: short}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get [ACCOUNT_ID]",
			Short: "Print the settings of one account (default: the configured merchant)",
			Args:  cobra.MaximumNArgs(1),
			RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, args []string) error {
				id, err := accountArg(r, args)
				if err != nil {
					return err
				}
				return ops.get(r, ctx, id)
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print the settings of every sub-account",
			Args:  cobra.NoArgs,
			RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, _ []string) error {
				_, err := ops.list(r, ctx)
				return err
			}),
		},
		&cobra.Command{
			Use:   "workflow",
			Short: "Get the merchant's own settings and, for a multi-client account, list the sub-accounts'",
			Args:  cobra.NoArgs,
			RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, _ []string) error {
				return ops.workflow(r, ctx)
			}),
		},
	)
	return cmd
}

func (a *app) productsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "products", Short: "Product samples"}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete PRODUCT_ID",
		Short: "Delete a product by its REST ID",
		Args:  cobra.ExactArgs(1),
		RunE: a.withRunner(func(ctx context.Context, r *samples.Runner, args []string) error {
			return r.DeleteProduct(ctx, args[0])
		}),
	})
	return cmd
}
