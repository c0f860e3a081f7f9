package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"studyhall/internal/flashcards"
	"studyhall/internal/studyapi"
	"studyhall/internal/tui"
)

const (
	minQuizCount = 1
	maxQuizCount = 20

	quizCompletedNotice = "This quiz has already been completed. You cannot retake it."
)

func newQuizCommand(ctx *commandContext) *cobra.Command {
	quizCmd := &cobra.Command{
		Use:     "quiz",
		Aliases: []string{"quizzes"},
		Short:   "Generate, take, and grade multiple-choice quizzes",
	}

	quizCmd.AddCommand(newQuizGenerateCommand(ctx))
	quizCmd.AddCommand(newQuizListCommand(ctx))
	quizCmd.AddCommand(newQuizTakeCommand(ctx))
	quizCmd.AddCommand(newQuizResultsCommand(ctx))
	quizCmd.AddCommand(newQuizDeleteCommand(ctx))

	return quizCmd
}

func newQuizGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		count      int
		difficulty string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "generate <documentId>",
		Short: "Generate a quiz from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < minQuizCount || count > maxQuizCount {
				return fmt.Errorf("--count must be between %d and %d", minQuizCount, maxQuizCount)
			}
			level := flashcards.Difficulty(strings.ToLower(strings.TrimSpace(difficulty)))
			switch level {
			case flashcards.DifficultyEasy, flashcards.DifficultyMedium, flashcards.DifficultyHard:
			default:
				return errors.New("--difficulty must be easy, medium, or hard")
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			quiz, err := client.GenerateQuiz(cmd.Context(), args[0], count, level)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, quiz)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %q with %d questions (quiz %s)\n", quiz.Title, len(quiz.Questions), quiz.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Take it with 'studyhall quiz take %s'.\n", quiz.ID)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of questions to generate")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(flashcards.DifficultyMedium), "Question difficulty: easy, medium, or hard")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQuizListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <documentId>",
		Short: "List a document's quizzes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			quizzes, err := client.ListQuizzes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				if quizzes == nil {
					quizzes = []flashcards.Quiz{}
				}
				return writeJSON(cmd, quizzes)
			}
			out := cmd.OutOrStdout()
			if len(quizzes) == 0 {
				fmt.Fprintf(out, "No quizzes yet. Generate one with 'studyhall quiz generate %s'.\n", args[0])
				return nil
			}
			fmt.Fprintln(out, renderQuizzes(quizzes))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQuizTakeCommand(ctx *commandContext) *cobra.Command {
	var (
		answersFlag string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "take <quizId>",
		Short: "Answer a quiz and submit it for grading",
		Long: "Answer a quiz and submit it for grading. On a terminal each question is asked " +
			"interactively; otherwise one answer per line is read from stdin. Answers are an " +
			"option number, letter, or the option text. --answers takes a comma-separated list.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			quiz, err := client.GetQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			// --answers goes straight to the backend, which refuses a retake.
			if quiz.Completed() && answersFlag == "" {
				quizNotice(cmd, quizCompletedNotice)
				fmt.Fprintf(cmd.OutOrStdout(), "See your answers with 'studyhall quiz results %s'.\n", quiz.ID)
				return nil
			}
			if len(quiz.Questions) == 0 {
				return fmt.Errorf("quiz %s has no questions", quiz.ID)
			}

			var answers []flashcards.QuizAnswer
			switch {
			case answersFlag != "":
				answers, err = parseAnswerList(quiz, answersFlag)
			case isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()):
				answers, err = tui.PromptQuiz(cmd.Context(), quiz)
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			default:
				answers, err = readAnswers(cmd.InOrStdin(), cmd.OutOrStdout(), quiz)
			}
			if err != nil {
				return err
			}

			results, err := client.SubmitQuiz(cmd.Context(), quiz.ID, answers)
			var apiErr *studyapi.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				quizNotice(cmd, studyapi.Message(err))
				return nil
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, results)
			}
			printQuizResults(cmd.OutOrStdout(), results, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVar(&answersFlag, "answers", "", "Comma-separated answers, one per question")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQuizResultsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "results <quizId>",
		Short: "Show the graded answers of a completed quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			results, err := client.QuizResults(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, results)
			}
			printQuizResults(cmd.OutOrStdout(), results, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newQuizDeleteCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "delete <quizId>",
		Short: "Delete a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			quiz, err := client.GetQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			prompt := fmt.Sprintf("Delete quiz %q? This cannot be undone.", quiz.Title)
			ok, err := confirmerFor(cmd, assumeYes).Confirm(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := client.DeleteQuiz(cmd.Context(), quiz.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Quiz deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking for confirmation")
	return cmd
}

func quizNotice(cmd *cobra.Command, message string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderStatusLine("Notice", statusWarn, message, shouldColorize(out)))
}

// readAnswers prompts for each question on out and reads one answer per line.
func readAnswers(in io.Reader, out io.Writer, quiz flashcards.Quiz) ([]flashcards.QuizAnswer, error) {
	reader := bufio.NewReader(in)
	answers := make([]flashcards.QuizAnswer, 0, len(quiz.Questions))
	for i, question := range quiz.Questions {
		fmt.Fprintf(out, "\n%d/%d  %s\n", i+1, len(quiz.Questions), question.Question)
		for j, option := range question.Options {
			fmt.Fprintf(out, "  %c) %s\n", 'a'+j, option)
		}
		fmt.Fprint(out, "Answer: ")
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			if err == io.EOF {
				return nil, fmt.Errorf("question %d was not answered", i+1)
			}
			return nil, err
		}
		choice, err := matchChoice(question, line)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		answers = append(answers, flashcards.QuizAnswer{QuestionIndex: i, SelectedAnswer: choice})
	}
	return answers, nil
}

func parseAnswerList(quiz flashcards.Quiz, list string) ([]flashcards.QuizAnswer, error) {
	parts := strings.Split(list, ",")
	if len(parts) != len(quiz.Questions) {
		return nil, fmt.Errorf("--answers has %d entries but the quiz has %d questions", len(parts), len(quiz.Questions))
	}
	answers := make([]flashcards.QuizAnswer, 0, len(parts))
	for i, part := range parts {
		choice, err := matchChoice(quiz.Questions[i], part)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		answers = append(answers, flashcards.QuizAnswer{QuestionIndex: i, SelectedAnswer: choice})
	}
	return answers, nil
}

// matchChoice resolves input to an option by 1-based number, letter, or text.
func matchChoice(question flashcards.QuizQuestion, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no answer given")
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(question.Options) {
			return question.Options[n-1], nil
		}
		return "", fmt.Errorf("choose an option between 1 and %d", len(question.Options))
	}
	if len(input) == 1 {
		if idx := int(strings.ToLower(input)[0] - 'a'); idx >= 0 && idx < len(question.Options) {
			return question.Options[idx], nil
		}
	}
	for _, option := range question.Options {
		if strings.EqualFold(option, input) {
			return option, nil
		}
	}
	return "", fmt.Errorf("%q is not one of the options", input)
}

func renderQuizzes(quizzes []flashcards.Quiz) string {
	rows := make([][]string, 0, len(quizzes))
	for _, quiz := range quizzes {
		status := "open"
		if quiz.Completed() {
			status = fmt.Sprintf("%d%%", quiz.Score)
		}
		rows = append(rows, []string{
			quiz.ID,
			quiz.Title,
			strconv.Itoa(quiz.TotalQuestions),
			string(quiz.Difficulty),
			status,
			formatStamp(quiz.CreatedAt),
		})
	}
	return renderTable([]column{
		left("ID"),
		wrapped("Title", questionWidth),
		right("Questions"),
		left("Difficulty"),
		right("Score"),
		left("Created"),
	}, rows)
}

func printQuizResults(out io.Writer, results flashcards.QuizResults, colorize bool) {
	for _, line := range renderSectionHeader(results.Quiz.Title, colorize) {
		fmt.Fprintln(out, line)
	}
	kind := statusOK
	if results.Quiz.Score < 50 {
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Score", kind,
		fmt.Sprintf("%s %d%% (%d/%d correct)", renderProgressBar(results.Quiz.Score),
			results.Quiz.Score, results.Correct(), len(results.Results)), colorize))

	rows := make([][]string, 0, len(results.Results))
	for _, result := range results.Results {
		mark := "✗"
		if result.IsCorrect {
			mark = "✓"
		}
		rows = append(rows, []string{
			strconv.Itoa(result.QuestionIndex + 1),
			mark,
			result.Question,
			result.SelectedAnswer,
			result.CorrectAnswer,
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		right("#"),
		left(""),
		wrapped("Question", questionWidth),
		left("Your answer"),
		left("Correct answer"),
	}, rows))
	for _, result := range results.Results {
		if explanation := strings.TrimSpace(result.Explanation); explanation != "" && !result.IsCorrect {
			fmt.Fprintf(out, "%d. %s\n", result.QuestionIndex+1, explanation)
		}
	}
}
