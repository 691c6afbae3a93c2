// internal/commands/list.go
package lvcbench

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/lvcbench/internal/inputs"
	"github.com/mwiater/lvcbench/internal/util"
	"github.com/spf13/cobra"
)

// listCmd groups listing commands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Group commands for listing commands and inputs",
}

// commandsCmd implements 'list commands', which prints the available
// commands and subcommands in a hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Long:  `The 'commands' subcommand lists all commands and subcommands in a hierarchical, indented format, with the command path in the first column and its short description in the second column.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		commandData := collectCommandData(rootCmd, "", "")
		filtered := make([]commandInfo, 0, len(commandData))
		for _, data := range commandData {
			if strings.Contains(data.path, "completion") || strings.Contains(data.path, "help") {
				continue
			}
			filtered = append(filtered, data)
		}
		listCommands(cmd.OutOrStdout(), filtered)
	},
}

var promptHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// promptsCmd implements 'list prompts', which prints the prompt suite the llm
// benchmark would run.
var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the prompt suite used by the llm benchmark",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("prompts")
		if path == "" {
			path = GetConfig().PromptsFile
		}
		prompts, err := inputs.LoadPrompts(path)
		if err != nil {
			return err
		}
		listPrompts(cmd.OutOrStdout(), prompts)
		return nil
	},
}

func init() {
	promptsCmd.Flags().String("prompts", "", "YAML prompt suite (defaults to the built-in suite)")
	listCmd.AddCommand(commandsCmd, promptsCmd)
	rootCmd.AddCommand(listCmd)
}

// commandInfo holds the path and description of a command for display.
type commandInfo struct {
	path        string
	description string
}

// collectCommandData collects command metadata for display, walking the
// command tree and returning a flattened slice of path/description pairs.
func collectCommandData(cmd *cobra.Command, currentPath string, indent string) []commandInfo {
	var allData []commandInfo

	fullPath := currentPath + cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}

	allData = append(allData, commandInfo{
		path:        indent + fullPath,
		description: cmd.Short,
	})

	for _, subCmd := range cmd.Commands() {
		allData = append(allData, collectCommandData(subCmd, fullPath, indent+"  ")...)
	}

	return allData
}

// listCommands prints the command tree in a two-column layout.
func listCommands(out io.Writer, commands []commandInfo) {
	maxPathLength := 0
	for _, data := range commands {
		if len(data.path) > maxPathLength {
			maxPathLength = len(data.path)
		}
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, data := range commands {
		fmt.Fprintf(out, "  %s%s%s\n", data.path, strings.Repeat(" ", maxPathLength-len(data.path)+2), data.description)
	}
}

func listPrompts(out io.Writer, prompts []inputs.Prompt) {
	fmt.Fprintf(out, "%d prompt(s):\n", len(prompts))
	for _, p := range prompts {
		fmt.Fprintln(out, promptHeading.Render(fmt.Sprintf("%s: %s", p.ID, p.Category)))
		text := strings.Join(strings.Fields(p.Input), " ")
		fmt.Fprintf(out, "  %s\n", util.TruncateRunes(text, 100))
	}
}
