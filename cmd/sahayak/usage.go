package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sahayak-ai/sahayak/pkg/config"
	"github.com/sahayak-ai/sahayak/pkg/usage"
)

func newUsageCmd() *cobra.Command {
	var (
		configPath string
		userID     string
		provider   string
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show usage statistics per user and provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store, err := usage.NewStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summaries, err := store.Summary(context.Background(), userID, provider)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tPROVIDER\tREQUESTS\tOK\tFAILED\tTOKENS IN\tTOKENS OUT")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					s.UserID, s.Provider, s.RequestCount, s.Successes, s.Failures, s.TotalIn, s.TotalOut)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "sahayak.yaml", "path to config file")
	cmd.Flags().StringVar(&userID, "user", "", "filter by user ID")
	cmd.Flags().StringVar(&provider, "provider", "", "filter by provider")
	return cmd
}
