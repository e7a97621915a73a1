package main

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

//go:embed guide.md
var guideMarkdown string

// guideCmd prints the usage guide
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to use AutoUSB",
	RunE:  showGuide,
}

func showGuide(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	rendered, err := renderGuide(isTerminalWriter(out), 80)
	if err != nil {
		// Plain markdown still reads fine.
		fmt.Fprint(out, guideMarkdown)
		return nil
	}
	fmt.Fprint(out, rendered)
	return nil
}

func renderGuide(styled bool, width int) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if styled {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(guideMarkdown)
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
