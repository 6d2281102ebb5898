package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicegate/internal/voiceauth/phonetic"
)

type alignResult struct {
	Score     float64 `json:"score"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	Passed    bool    `json:"passed"`
}

func newAlignCmd(opts *rootOptions) *cobra.Command {
	var reference string
	cmd := &cobra.Command{
		Use:   "align --reference <phonemes> <candidate phonemes...>",
		Short: "Score a candidate transcript against a reference",
		Example: `  voicegate align --reference "k o n n i ch i w a" k o n i ch i w a`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.policy()
			if err != nil {
				return err
			}
			if reference == "" {
				return fmt.Errorf("--reference is required")
			}

			aligner := phonetic.NewAligner(phonetic.AlignerConfig{
				SameClassCost:          cfg.Phonetic.SameClassCost,
				LowConfidenceThreshold: cfg.Phonetic.LowConfidenceThreshold,
				ConfidenceDiscount:     cfg.Phonetic.ConfidenceDiscount,
				Ignored:                cfg.IgnoredSet(),
			})
			ref := parseLabels([]string{reference})
			cand := parseLabels(args)
			score, err := aligner.Score(cand, ref)
			if err != nil {
				return err
			}
			ignored := cfg.IgnoredSet()
			return printJSON(cmd.OutOrStdout(), alignResult{
				Score:     score,
				Distance:  aligner.Distance(cand.Without(ignored), ref.Without(ignored)),
				Threshold: cfg.Phonetic.Threshold,
				Passed:    score >= cfg.Phonetic.Threshold,
			})
		},
	}
	cmd.Flags().StringVarP(&reference, "reference", "r", "", "reference phonemes, space or comma separated")
	return cmd
}
