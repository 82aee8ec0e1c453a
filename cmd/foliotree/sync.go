package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/logging"
	"github.com/foliotree/foliotree/pkg/remote"
	"github.com/foliotree/foliotree/pkg/sync"
)

// syncConfiguration holds sync command flags.
var syncConfiguration struct {
	// cycles bounds how many sync cycles to run before exiting; a single
	// cycle is the common case for a one-shot CLI invocation.
	cycles int
}

var syncCommand = &cobra.Command{
	Use:   "sync",
	Short: "Run one or more sync cycles against the server",
	Args:  cobra.NoArgs,
	Run: Mainify(func(command *cobra.Command, arguments []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		// No standalone server transport ships with this repo (§6's wire
		// contract is consumed, not defined, here); remote.NewMemoryClient
		// stands in as the local reference client until a real transport is
		// wired in.
		client := remote.NewMemoryClient()
		defer client.Close()

		coordinator := sync.NewCoordinator(s.repo, client, s.crypto, s.account, logging.RootLogger)

		cycles := syncConfiguration.cycles
		if cycles < 1 {
			cycles = 1
		}

		ctx := context.Background()
		for i := 0; i < cycles; i++ {
			if err := coordinator.RunCycle(ctx); err != nil {
				return err
			}
			Printf("sync cycle %d/%d complete\n", i+1, cycles)
		}
		return nil
	}),
}

func init() {
	flags := syncCommand.Flags()
	flags.IntVar(&syncConfiguration.cycles, "cycles", 1, "number of sync cycles to run")
}
