package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"interview-coach/client"
	"interview-coach/domain"
)

func main() {
	var server string

	root := &cobra.Command{
		Use:          "interviewctl",
		Short:        "Command line client for the interview-coach API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&server, "server", envOr("INTERVIEW_COACH_URL", "http://localhost:8080"), "API base URL")

	feedback := &cobra.Command{Use: "feedback", Short: "Submit and watch interview feedback"}
	feedback.AddCommand(watchCmd(&server), submitCmd(&server))
	root.AddCommand(feedback, generateCmd(&server))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func watchCmd(server *string) *cobra.Command {
	var interviewID, userID string
	var period time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll feedback for an interview until it is ready",
		Long: `Poll the feedback page for an interview and print each state change.

Exits 0 once feedback is completed, 2 when generation failed and 3 when the
interview does not exist. Ctrl-C stops polling.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := &client.Watcher{
				Fetcher: client.New(*server),
				Period:  period,
				Out:     cmd.OutOrStdout(),
			}
			view, err := w.Watch(cmd.Context(), interviewID, userID)
			if err != nil {
				return err
			}
			switch view.State {
			case domain.ViewError:
				os.Exit(2)
			case domain.ViewRedirect:
				os.Exit(3)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&interviewID, "interview", "", "interview id")
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().DurationVar(&period, "period", client.DefaultPollPeriod, "poll period")
	_ = cmd.MarkFlagRequired("interview")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func submitCmd(server *string) *cobra.Command {
	var interviewID, userID, feedbackID, transcriptFile string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a transcript for scoring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(transcriptFile)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			var transcript domain.Transcript
			if err := json.Unmarshal(raw, &transcript); err != nil {
				return fmt.Errorf("parse transcript %s: %w", transcriptFile, err)
			}
			id, err := client.New(*server).SubmitFeedback(cmd.Context(), client.SubmitFeedbackRequest{
				InterviewID: interviewID,
				UserID:      userID,
				Transcript:  transcript,
				FeedbackID:  feedbackID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&interviewID, "interview", "", "interview id")
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&feedbackID, "feedback", "", "existing feedback id to overwrite")
	cmd.Flags().StringVar(&transcriptFile, "transcript", "", "path to a JSON transcript: [{\"role\":...,\"content\":...}]")
	_ = cmd.MarkFlagRequired("interview")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("transcript")
	return cmd
}

func generateCmd(server *string) *cobra.Command {
	var req client.GenerateInterviewRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new mock interview",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := client.New(*server).GenerateInterview(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Type, "type", "mixed", "behavioural, technical or mixed")
	cmd.Flags().StringVar(&req.Role, "role", "", "job role")
	cmd.Flags().StringVar(&req.Level, "level", "", "experience level")
	cmd.Flags().StringVar(&req.TechStack, "techstack", "", "comma separated tech stack")
	cmd.Flags().IntVar(&req.Amount, "amount", 5, "number of questions")
	cmd.Flags().StringVar(&req.UserID, "user", "", "user id")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
