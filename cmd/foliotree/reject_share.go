package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/sharing"
)

var rejectShareCommand = &cobra.Command{
	Use:   "reject-share <id>",
	Short: "Reject a pending share of a node",
	Args:  cobra.ExactArgs(1),
	Run: Mainify(func(command *cobra.Command, arguments []string) error {
		id, err := identity.ParseID(arguments[0])
		if err != nil {
			return errors.Wrap(err, "invalid id")
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.repo.Update(func(txn *repo.Txn) error {
			return sharing.RejectShare(txn, s.account, id)
		}); err != nil {
			return err
		}

		Printf("rejected share of %s\n", id)
		return nil
	}),
}
