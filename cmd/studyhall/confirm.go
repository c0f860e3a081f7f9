package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"studyhall/internal/review"
	"studyhall/internal/tui"
)

// confirmerFor picks how a destructive command asks for approval: not at all
// with --yes, an interactive prompt on a terminal, or a y/N line otherwise.
func confirmerFor(cmd *cobra.Command, assumeYes bool) review.Confirmer {
	if assumeYes {
		return review.Confirmed
	}
	if isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
		return tui.PromptConfirmer("Delete")
	}
	return lineConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
}

func lineConfirmer(in io.Reader, out io.Writer) review.Confirmer {
	reader := bufio.NewReader(in)
	return review.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}
