package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/ops"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/tree"
)

var createConfiguration struct {
	// parent is the Base62 id of the parent node; defaults to the account
	// root when empty.
	parent string
	// body is the initial document body (documents only).
	body string
}

var createCommand = &cobra.Command{
	Use:   "create <kind> <name>",
	Short: "Create a document or folder node",
	Args:  cobra.ExactArgs(2),
	Run: Mainify(func(command *cobra.Command, arguments []string) error {
		kind, err := parseKind(arguments[0])
		if err != nil {
			return err
		}
		name := arguments[1]

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		parent := s.root
		if createConfiguration.parent != "" {
			if parent, err = identity.ParseID(createConfiguration.parent); err != nil {
				return errors.Wrap(err, "invalid --parent")
			}
		}

		var node *tree.Node
		err = s.repo.Update(func(txn *repo.Txn) error {
			node, err = ops.Create(txn, s.crypto, s.account, parent, kind, name, []byte(createConfiguration.body))
			return err
		})
		if err != nil {
			return err
		}

		Printf("created %s %s (%s)\n", kind, node.ID, node.Name)
		return nil
	}),
}

func init() {
	flags := createCommand.Flags()
	flags.StringVar(&createConfiguration.parent, "parent", "", "id of the parent node (defaults to the account root)")
	flags.StringVar(&createConfiguration.body, "body", "", "initial document body (documents only)")
}

// parseKind parses a CLI-facing kind name into a tree.Kind, accepting the
// two kinds a caller can directly create (links are created via the link
// subcommand, which enforces its own invariants).
func parseKind(s string) (tree.Kind, error) {
	switch s {
	case "document":
		return tree.KindDocument, nil
	case "folder":
		return tree.KindFolder, nil
	default:
		return 0, errors.Errorf("unrecognized kind %q (expected document or folder)", s)
	}
}
