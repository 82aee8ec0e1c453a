package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/sharing"
	"github.com/foliotree/foliotree/pkg/tree"
)

var shareCommand = &cobra.Command{
	Use:   "share <id> <account> <mode>",
	Short: "Grant another account access to a node (mode: read or write)",
	Args:  cobra.ExactArgs(3),
	Run: Mainify(func(command *cobra.Command, arguments []string) error {
		id, err := identity.ParseID(arguments[0])
		if err != nil {
			return errors.Wrap(err, "invalid id")
		}
		with, err := identity.ParseOwner(arguments[1])
		if err != nil {
			return errors.Wrap(err, "invalid account")
		}
		mode, err := parseMode(arguments[2])
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.repo.Update(func(txn *repo.Txn) error {
			node, err := txn.GetMetadata(repo.Local, id)
			if err != nil {
				return err
			}
			return sharing.Share(txn, s.account, id, with, mode, node.MetadataVersion)
		})
		if err != nil {
			return err
		}

		Printf("shared %s with %s (%s)\n", id, with, mode)
		return nil
	}),
}

// parseMode parses a CLI-facing share mode name into a tree.Mode.
func parseMode(s string) (tree.Mode, error) {
	switch s {
	case "read":
		return tree.ModeRead, nil
	case "write":
		return tree.ModeWrite, nil
	default:
		return 0, errors.Errorf("unrecognized mode %q (expected read or write)", s)
	}
}
