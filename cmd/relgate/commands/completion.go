package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate completion script",
	Long: `To load completions:

Bash:
  $ source <(relgate completion bash)

Zsh:
  $ relgate completion zsh > "${fpath[1]}/_relgate"

Fish:
  $ relgate completion fish | source
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.ExactValidArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			fmt.Print(humanBashCompletion)
		case "zsh":
			rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			rootCmd.GenPowerShellCompletion(os.Stdout)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// humanBashCompletion is a handcrafted, minimal bash completion script
// that avoids the robotic verbosity of auto-generated ones.
const humanBashCompletion = `
# relgate bash completion

_relgate_completion() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="check attribution clean completion help"

    case "${prev}" in
        check)
            COMPREPLY=( $(compgen -W "--headless --sources --clarify --out --help" -- ${cur}) )
            return 0
            ;;
        attribution)
            COMPREPLY=( $(compgen -W "--sources --clarify --out --help" -- ${cur}) )
            return 0
            ;;
        clean)
            COMPREPLY=( $(compgen -W "--help" -- ${cur}) )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish powershell" -- ${cur}) )
            return 0
            ;;
        *)
            ;;
    esac

    # Global Flags
    if [[ ${cur} == -* ]] ; then
        COMPREPLY=( $(compgen -W "--help --version --config --sources --clarify --out --project-dir --verbose" -- ${cur}) )
        return 0
    fi

    # Subcommands
    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
}

complete -F _relgate_completion relgate
`
