package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantumflow/loremaster/internal/memory"
	"github.com/quantumflow/loremaster/internal/models"
)

var (
	importThread string
	importInput  string
	importReset  bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Append messages to a stored thread",
	Long: `Append messages to a thread in the conversation store. The input is
either a JSON array of messages or a window file with a "messages" array.

Examples:
  loremaster import --thread t-42 --input messages.json
  loremaster import --thread t-42 --input window.json --reset`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importThread, "thread", "t", "", "thread id")
	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "messages file (- for stdin)")
	importCmd.Flags().BoolVar(&importReset, "reset", false, "delete the thread before importing")
	_ = importCmd.MarkFlagRequired("thread")
	_ = importCmd.MarkFlagRequired("input")
}

func runImport(cmd *cobra.Command, args []string) error {
	messages, err := readMessages(cmd.InOrStdin(), importInput)
	if err != nil {
		return err
	}

	store, err := openConversationStore()
	if err != nil {
		return err
	}

	if err := importMessages(cmd.Context(), store, importThread, messages, importReset); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d messages into %s\n", len(messages), importThread)
	return nil
}

// importMessages appends messages to threadID, clearing it first when reset
// is set. Resetting a thread that does not exist yet is not an error.
func importMessages(ctx context.Context, store memory.ConversationStore, threadID string, messages []models.Message, reset bool) error {
	if reset {
		if err := store.Delete(ctx, threadID); err != nil && !errors.Is(err, memory.ErrThreadNotFound) {
			return fmt.Errorf("reset thread: %w", err)
		}
	}
	if err := store.Append(ctx, threadID, messages...); err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	return nil
}

func readMessages(stdin io.Reader, path string) ([]models.Message, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var messages []models.Message
	if err := json.Unmarshal(data, &messages); err == nil {
		return messages, nil
	}

	var window windowFile
	if err := json.Unmarshal(data, &window); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return window.Messages, nil
}
