package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lunbi/lunbi/internal/source"
)

var (
	askLanguage string
	askStream   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askLanguage, "lang", "", "answer language (en or pl)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	// Same signal handling as serve: an interrupt cancels generation but
	// the audit write still runs on the detached persistence context.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	if askStream {
		resp, err := a.Service.ProcessStream(ctx, question, askLanguage,
			func(_ context.Context, chunk string) error {
				fmt.Print(chunk)
				return nil
			})
		if err != nil {
			return fmt.Errorf("answering question: %w", err)
		}
		fmt.Println()
		printSource(resp.Source)
		return nil
	}

	resp, err := a.Service.Process(ctx, question, askLanguage)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(resp.Answer)
	printSource(resp.Source)
	return nil
}

func printSource(src *source.Payload) {
	if src == nil {
		return
	}
	fmt.Printf("\nSource: %s\n%s\n", src.Title, src.URL)
}
