package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"radsim/internal/app"
	"radsim/internal/logging"
)

func newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route",
		Short: "Print the provider failover chain with estimated costs",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer logging.Close()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Session.Enabled = false
			cfg.Audit.Enabled = false

			application, err := app.New(context.Background(), cfg, app.Options{Version: version})
			if err != nil {
				return err
			}

			out, err := application.RouteSummary()
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}
