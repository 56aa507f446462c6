package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recollect-ai/recollect/pkg/conversation"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved conversation sessions",
	Long: `Inspect and manipulate persisted conversation sessions.

Sessions are JSONL files under the memory directory. append and context
load the named session (if it exists), apply the operation, and save.

Examples:
  recollect session list
  recollect session show --name work
  recollect session append --name work --role user --text "we must ship friday"
  recollect session context --name work --input "when do we ship?"`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show statistics for a session",
	RunE:  runSessionShow,
}

var sessionAppendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a message to a session",
	RunE:  runSessionAppend,
}

var sessionContextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble the bounded request context for an input",
	RunE:  runSessionContext,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionAppendCmd)
	sessionCmd.AddCommand(sessionContextCmd)

	sessionShowCmd.Flags().String("name", "", "session name")
	_ = sessionShowCmd.MarkFlagRequired("name")

	sessionAppendCmd.Flags().String("name", "", "session name")
	sessionAppendCmd.Flags().String("role", "user", "message role (user, assistant, ...)")
	sessionAppendCmd.Flags().String("text", "", "message content")
	_ = sessionAppendCmd.MarkFlagRequired("name")
	_ = sessionAppendCmd.MarkFlagRequired("text")

	sessionContextCmd.Flags().String("name", "", "session name")
	sessionContextCmd.Flags().String("input", "", "upcoming user input to recall against")
	_ = sessionContextCmd.MarkFlagRequired("name")
	_ = sessionContextCmd.MarkFlagRequired("input")
}

// openSession loads the named session into a fresh Memory. A missing
// session is only an error when require is set — append starts new sessions
// implicitly.
func openSession(name string, require bool) (*conversation.Memory, error) {
	mem := conversation.New(memoryConfig())
	if _, err := mem.LoadSession(name); err != nil && require {
		return nil, err
	}
	return mem, nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	mem := conversation.New(memoryConfig())
	names, err := mem.ListSessions()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")

	mem, err := openSession(name, true)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(mem.Stats(), "", "  ")
	fmt.Println(string(out))
	return nil
}

func runSessionAppend(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")
	text, _ := cmd.Flags().GetString("text")
	if text == "" {
		return fmt.Errorf("--text is required")
	}

	mem, err := openSession(name, false)
	if err != nil {
		return err
	}

	mem.Add(role, text)
	if _, err := mem.SaveSession(name); err != nil {
		return err
	}

	out, _ := json.MarshalIndent(mem.Stats(), "", "  ")
	fmt.Println(string(out))
	return nil
}

func runSessionContext(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	input, _ := cmd.Flags().GetString("input")

	mem, err := openSession(name, true)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(mem.BuildContext(input), "", "  ")
	fmt.Println(string(out))
	return nil
}
