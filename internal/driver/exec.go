package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"offloadtc/pkg/types"
)

// RunCommands executes the emitted commands in order, stopping at the
// first failure. When verbose, each command line is echoed to w first.
func RunCommands(ctx context.Context, cmds []types.CommandSpec, verbose bool, w io.Writer) error {
	for _, c := range cmds {
		if verbose {
			fmt.Fprintf(w, "%s %s\n", c.Executable, strings.Join(c.Args, " "))
		}
		cmd := exec.CommandContext(ctx, c.Executable, c.Args...)
		cmd.Env = os.Environ()
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s: %w", c.Executable, err)
		}
	}
	return nil
}
