package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"voicegate/internal/voiceauth/decision"
	"voicegate/internal/voiceauth/models"
)

func newDecideCmd(opts *rootOptions) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:     "decide <similarity> <phonetic>",
		Short:   "Apply the decision policy to two factor scores",
		Example: `  voicegate decide 0.91 0.85 --mode weighted`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.policy()
			if err != nil {
				return err
			}
			scores := make([]float64, 2)
			for i, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil || v < 0 || v > 1 {
					return fmt.Errorf("score %q must be a number within [0,1]", arg)
				}
				scores[i] = v
			}

			decisionMode := cfg.Decision.Mode
			if mode != "" {
				decisionMode = models.DecisionMode(mode)
				if !decisionMode.IsValid() {
					return fmt.Errorf("unknown mode %q", mode)
				}
			}

			policy := decision.NewPolicy(decision.Config{
				Mode:                decisionMode,
				SimilarityThreshold: cfg.Similarity.Threshold,
				PhraseThreshold:     cfg.Phonetic.Threshold,
				Weight:              cfg.Decision.Weight,
				CombinedThreshold:   cfg.Decision.CombinedThreshold,
				AmbiguityBand:       cfg.Decision.AmbiguityBand,
			})
			return printJSON(cmd.OutOrStdout(), policy.Decide(scores[0], scores[1]))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "override the decision mode (and, weighted)")
	return cmd
}
