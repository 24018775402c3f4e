package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/metadata"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/store"
)

// maxInputSize bounds expression files and stdin (1MB).
const maxInputSize = 1 << 20

// readInput reads the expression named by args[0], or stdin when there is
// no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	name := "-"
	if len(args) > 0 {
		name = args[0]
	}

	var r io.Reader
	if name == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, name, err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, name, err
	}
	if len(data) > maxInputSize {
		return nil, name, fmt.Errorf("input exceeds %d bytes", maxInputSize)
	}
	return data, name, nil
}

// failInput reports a readInput error with the right code.
func failInput(f *OutputFormatter, name string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("input not found: %s", name), err)
	}
	return f.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("failed to read %s", name), err)
}

// loadCatalog loads the --catalog file. Without one, the catalog has no
// fields and the default operator vocabulary.
func (o *RootOptions) loadCatalog() (metadata.Provider, error) {
	if o.Catalog == "" {
		o.logger().Debug("no catalog configured, using default operators only")
		return &metadata.Catalog{OperatorList: metadata.DefaultOperators()}, nil
	}
	c, err := metadata.LoadFile(o.Catalog)
	if err != nil {
		return nil, err
	}
	o.logger().Debug("catalog loaded", "path", o.Catalog, "fields", len(c.Fields()), "operators", len(c.Operators()))
	return c, nil
}

// openStore opens the --db database.
func (o *RootOptions) openStore(f *OutputFormatter) (*store.Store, error) {
	if o.Database == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, "no database configured (use --db or set database in --config)", nil)
	}
	o.logger().Debug("opening database", "path", o.Database)
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to open database", err)
	}
	return st, nil
}

// closeStore closes st, logging any error.
func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.logger().Error("error closing database", "error", err)
	}
}
