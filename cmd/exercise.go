package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/mathmaster/mathmaster/internal/exercise"
	"github.com/mathmaster/mathmaster/internal/topic"
	"github.com/mathmaster/mathmaster/internal/ui/components"
	"github.com/mathmaster/mathmaster/internal/ui/theme"
)

var exerciseCmd = &cobra.Command{
	Use:   "exercise",
	Short: "Generate sample exercises without touching the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		topicFlag, _ := cmd.Flags().GetString("topic")
		diffFlag, _ := cmd.Flags().GetString("difficulty")
		score, _ := cmd.Flags().GetInt("score")
		count, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetUint64("seed")
		showAnswer, _ := cmd.Flags().GetBool("answers")
		asJSON, _ := cmd.Flags().GetBool("json")

		t, err := topic.Parse(topicFlag)
		if err != nil {
			return err
		}
		d, err := topic.ParseDifficulty(diffFlag)
		if err != nil {
			return err
		}
		if count < 1 {
			return fmt.Errorf("--count must be at least 1")
		}

		gen := exercise.NewSeededGenerator(seed)
		if seed == 0 {
			gen = exercise.NewGenerator(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
		}

		out := cmd.OutOrStdout()
		batch := make([]exercise.Exercise, 0, count)
		for i := range count {
			ex := gen.Generate(t, d, score)
			if err := exercise.Validate(ex); err != nil {
				return fmt.Errorf("exercise %d: %w", i+1, err)
			}
			batch = append(batch, ex)
		}

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(batch)
		}

		for i, ex := range batch {
			card := components.ExerciseCard{
				Number:     i + 1,
				Exercise:   ex,
				Points:     exercise.PossiblePoints(ex.Difficulty, score),
				ShowAnswer: showAnswer,
			}
			fmt.Fprintln(out, card.View())
		}
		if ex := batch[0]; ex.Difficulty != d {
			fmt.Fprintln(out, theme.Hint.Render(fmt.Sprintf("Dificultad ajustada a %s por el puntaje %d.", ex.Difficulty, score)))
		}
		return nil
	},
}

func init() {
	exerciseCmd.Flags().StringP("topic", "t", string(topic.Operations), "Topic to generate")
	exerciseCmd.Flags().StringP("difficulty", "d", string(topic.Easy), "Requested difficulty: easy, medium or hard")
	exerciseCmd.Flags().Int("score", 150, "Session score used to adjust difficulty")
	exerciseCmd.Flags().IntP("count", "n", 3, "Number of exercises")
	exerciseCmd.Flags().Uint64("seed", 0, "Random seed (0 = random)")
	exerciseCmd.Flags().Bool("answers", false, "Mark the correct option and show the explanation")
	exerciseCmd.Flags().Bool("json", false, "Print exercises as JSON")
}
