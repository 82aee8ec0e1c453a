package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/sharing"
)

var linkConfiguration struct {
	// parent is the Base62 id of the parent node; defaults to the account
	// root when empty.
	parent string
}

var linkCommand = &cobra.Command{
	Use:   "link <target-id> <name>",
	Short: "Create a link to a pending-shared node, absorbing the pending share",
	Args:  cobra.ExactArgs(2),
	Run: Mainify(func(command *cobra.Command, arguments []string) error {
		target, err := identity.ParseID(arguments[0])
		if err != nil {
			return errors.Wrap(err, "invalid target id")
		}
		name := arguments[1]

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		parent := s.root
		if linkConfiguration.parent != "" {
			if parent, err = identity.ParseID(linkConfiguration.parent); err != nil {
				return errors.Wrap(err, "invalid --parent")
			}
		}

		var linkID identity.ID
		err = s.repo.Update(func(txn *repo.Txn) error {
			node, err := sharing.CreateLink(txn, s.account, parent, target, name)
			if err != nil {
				return err
			}
			linkID = node.ID
			return nil
		})
		if err != nil {
			return err
		}

		Printf("created link %s -> %s (%s)\n", linkID, target, name)
		return nil
	}),
}

func init() {
	flags := linkCommand.Flags()
	flags.StringVar(&linkConfiguration.parent, "parent", "", "id of the parent node (defaults to the account root)")
}
