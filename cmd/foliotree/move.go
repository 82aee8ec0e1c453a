package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/ops"
	"github.com/foliotree/foliotree/pkg/repo"
)

var moveCommand = &cobra.Command{
	Use:   "move <id> <new-parent-id>",
	Short: "Move a node to a new parent",
	Args:  cobra.ExactArgs(2),
	Run: Mainify(func(command *cobra.Command, arguments []string) error {
		id, err := identity.ParseID(arguments[0])
		if err != nil {
			return errors.Wrap(err, "invalid id")
		}
		newParent, err := identity.ParseID(arguments[1])
		if err != nil {
			return errors.Wrap(err, "invalid new parent id")
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.repo.Update(func(txn *repo.Txn) error {
			return ops.Move(txn, s.account, id, newParent)
		}); err != nil {
			return err
		}

		Printf("moved %s to %s\n", id, newParent)
		return nil
	}),
}
