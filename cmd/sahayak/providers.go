package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sahayak-ai/sahayak/pkg/config"
)

func newProvidersCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show provider health and rate-limit status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			_, healthReg, limits := buildStack(cfg)
			healthReg.Sweep(context.Background())

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tTIER\tHEALTHY\tLATENCY\tRATE STATUS\tUSAGE\tLIMIT")
			for _, snap := range healthReg.Snapshots() {
				check := limits.CheckRateLimit(snap.ID)
				limit := "-"
				if check.Limit > 0 {
					limit = fmt.Sprintf("%d", check.Limit)
				}
				fmt.Fprintf(w, "%s\t%d\t%t\t%s\t%s\t%d\t%s\n",
					snap.ID, snap.Tier, snap.Healthy, snap.Latency, check.Status, check.Usage, limit)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sahayak.yaml", "path to config file")
	return cmd
}
