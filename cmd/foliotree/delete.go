package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/ops"
	"github.com/foliotree/foliotree/pkg/repo"
)

var deleteCommand = &cobra.Command{
	Use:   "delete <id>",
	Short: "Tombstone a node",
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
			return ops.Delete(txn, s.account, id)
		}); err != nil {
			return err
		}

		Printf("deleted %s\n", id)
		return nil
	}),
}
