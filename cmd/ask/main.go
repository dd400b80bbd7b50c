package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xaenox/assistant-relay/internal/assistant"
	"github.com/xaenox/assistant-relay/internal/storage"
	"go.uber.org/zap"
)

// ask is a diagnostic entry point: it sends one message to the configured
// assistant and prints the answer, without Telegram, quotas, or persistence.
func main() {
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message to the OpenAI assistant and print the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0])
		},
		SilenceUsage: true,
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, message string) error {
	_ = godotenv.Load()

	apiKey := os.Getenv("OPENAI_API_KEY")
	assistantID := os.Getenv("ASSISTANT_ID")
	if apiKey == "" || assistantID == "" {
		return errors.New("missing OpenAI API key or assistant ID; set OPENAI_API_KEY and ASSISTANT_ID")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	engine := assistant.NewEngine(
		assistant.NewOpenAIClient(apiKey),
		storage.NewThreadCache(),
		assistantID,
		logger,
	)

	answer, err := engine.GetAnswer(ctx, 0, message)
	if err != nil {
		return fmt.Errorf("failed to retrieve a response from the assistant: %w", err)
	}

	fmt.Println(answer)
	return nil
}
