package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/ops"
	"github.com/foliotree/foliotree/pkg/repo"
)

var renameCommand = &cobra.Command{
	Use:   "rename <id> <new-name>",
	Short: "Rename a node",
	Args:  cobra.ExactArgs(2),
	Run: Mainify(func(command *cobra.Command, arguments []string) error {
		id, err := identity.ParseID(arguments[0])
		if err != nil {
			return errors.Wrap(err, "invalid id")
		}
		newName := arguments[1]

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.repo.Update(func(txn *repo.Txn) error {
			return ops.Rename(txn, s.crypto, s.account, id, newName)
		}); err != nil {
			return err
		}

		Printf("renamed %s to %q\n", id, newName)
		return nil
	}),
}
