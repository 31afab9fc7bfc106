package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/crm-console/internal/backend"
)

var seedForce bool

// seedCmd fills the local store with demo data.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the local store with demo data",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if !seedForce {
			existing, err := backend.Total(ctx, s, backend.Clients)
			if err != nil {
				return err
			}
			if existing > 0 {
				return fmt.Errorf("store %s already has %d clients; use --force to seed anyway", cfg.Backend.DBPath, existing)
			}
		}

		counts, err := s.Seed(ctx, time.Now())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Seeded %s:\n", cfg.Backend.DBPath)
		fmt.Fprintf(out, "  %d clients\n  %d users\n  %d projects\n  %d tasks\n  %d leads\n  %d activity entries\n",
			counts.Clients, counts.Users, counts.Projects, counts.Tasks, counts.Leads, counts.Activities)
		return nil
	},
}
