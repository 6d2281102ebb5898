package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicegate/internal/voiceauth/diversity"
)

func newDiversityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diversity <phonemes...>",
		Short: "Check a passphrase transcript for phonetic diversity",
		Long: `Measure distinct labels, normalised entropy and the longest run of one
label, then apply the policy thresholds.

Example:
  voicegate diversity k o n n i ch i w a
  voicegate diversity "k,o,n,n,i,ch,i,w,a"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.policy()
			if err != nil {
				return err
			}
			seq := parseLabels(args)
			if err := seq.Validate(); err != nil {
				return err
			}

			v := diversity.NewValidator(diversity.Thresholds{
				MinDistinctPhonemes:   cfg.Diversity.MinDistinctPhonemes,
				MinEntropy:            cfg.Diversity.MinEntropy,
				MaxRepetitionFraction: cfg.Diversity.MaxRepetitionFraction,
				Ignored:               cfg.IgnoredSet(),
			})
			verdict := v.Validate(seq)
			if err := printJSON(cmd.OutOrStdout(), verdict); err != nil {
				return err
			}
			if !verdict.Passed {
				return fmt.Errorf("passphrase rejected: %s", verdict.Reason)
			}
			return nil
		},
	}
}
