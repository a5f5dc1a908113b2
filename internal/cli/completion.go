package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/grephite/pkg/script"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for grephite.

Besides commands and flags, the scripts complete edge list and Lua file
arguments, and "grephite view --script" offers the names found in the
configured scripts directory.

Bash:
  $ source <(grephite completion bash)

Zsh:
  $ grephite completion zsh > "${fpath[1]}/_grephite"

Fish:
  $ grephite completion fish > ~/.config/fish/completions/grephite.fish

PowerShell:
  PS> grephite completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(w)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}

// completeScripts lists the library scripts matching toComplete. Completion
// skips the persistent pre-run, so the config is loaded here; a broken
// config falls back to the defaults.
func (c *CLI) completeScripts(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	_ = c.loadConfig()
	names, err := script.NewLibrary(c.cfg.Script.Dir, nil).List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, toComplete) {
			out = append(out, n)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
