package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/OptimiLabs/velocity-sub007/tui/theme"
)

const maxWidth = 60
const minWidth = 40

// getTerminalWidth returns the terminal width capped at maxWidth.
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		return maxWidth
	}
	if width > maxWidth {
		return maxWidth
	}
	return width
}

// wrapText wraps text to the specified width, preserving existing line breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxWidth
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}

		var line string
		for _, word := range strings.Fields(paragraph) {
			if line == "" {
				line = word
			} else if len(line)+1+len(word) <= width {
				line += " " + word
			} else {
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// SetStyledHelp applies consistent velocity styling to a command's help
// output. Call this on the root command before Execute().
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// ApplyStyledHelpRecursive applies styled help to a command and all its
// subcommands. Call after all subcommands have been added.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// PrintError prints a styled error message to stderr with a help hint.
func PrintError(cmd *cobra.Command, err error) {
	t := theme.DefaultTheme
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", t.Error.Render("Error:"), err.Error())
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", t.Muted.Render(fmt.Sprintf("Run '%s --help' for usage.", cmd.CommandPath())))
}

func styledHelpFunc(cmd *cobra.Command, args []string) {
	t := theme.DefaultTheme
	blue := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Blue)

	width := getTerminalWidth() - 2

	fmt.Println(" " + t.Title.Render(strings.ToUpper(cmd.CommandPath())))

	if cmd.Short != "" {
		for _, line := range strings.Split(wrapText(cmd.Short, width), "\n") {
			fmt.Println(" " + t.Italic.Render(line))
		}
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Println()
		for _, line := range strings.Split(wrapText(strings.TrimSpace(cmd.Long), width), "\n") {
			fmt.Println(" " + line)
		}
	}

	fmt.Println()
	fmt.Println(" " + t.Section.Render("USAGE"))
	fmt.Println("  " + blue.Render(cmd.UseLine()))

	if cmd.HasAvailableSubCommands() {
		fmt.Println()
		fmt.Println(" " + t.Section.Render("COMMANDS"))
		for _, sub := range cmd.Commands() {
			if sub.Hidden || !sub.IsAvailableCommand() {
				continue
			}
			fmt.Printf("  %s  %s\n",
				blue.Render(fmt.Sprintf("%-14s", sub.Name())),
				t.Muted.Render(sub.Short))
		}
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailableInheritedFlags() {
		fmt.Println()
		fmt.Println(" " + t.Section.Render("FLAGS"))
		printFlags := func(flags *pflag.FlagSet) {
			flags.VisitAll(func(f *pflag.Flag) {
				if f.Hidden {
					return
				}
				name := "--" + f.Name
				if f.Shorthand != "" {
					name = "-" + f.Shorthand + ", " + name
				}
				fmt.Printf("  %s  %s\n",
					blue.Render(fmt.Sprintf("%-18s", name)),
					t.Muted.Render(f.Usage))
			})
		}
		printFlags(cmd.LocalFlags())
		printFlags(cmd.InheritedFlags())
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Println()
		fmt.Println(" " + t.Muted.Render(fmt.Sprintf("Use '%s [command] --help' for more information.", cmd.CommandPath())))
	}
}
