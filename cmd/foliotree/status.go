package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/remote"
	"github.com/foliotree/foliotree/pkg/sync"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show pending local and server work",
	Args:  cobra.NoArgs,
	Run: Mainify(func(command *cobra.Command, arguments []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		client := remote.NewMemoryClient()
		defer client.Close()
		coordinator := sync.NewCoordinator(s.repo, client, s.crypto, s.account, nil)

		local, err := coordinator.LocalWork()
		if err != nil {
			return err
		}
		server := coordinator.ServerWork()

		Printf("account:  %s\n", s.account)
		Printf("device:   %s\n", s.device)
		Printf("root:     %s\n", s.root)
		Printf("local work:  %s pending\n", humanize.Comma(int64(len(local))))
		Printf("server work: %s pending\n", humanize.Comma(int64(len(server))))
		return nil
	}),
}
