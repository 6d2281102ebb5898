package commands

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"voicegate/internal/voiceauth/config"
	"voicegate/internal/voiceauth/models"
	str "voicegate/pkg/string"
)

type rootOptions struct {
	configPath string
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "voicegate",
		Short:         "Speaker authentication scoring tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML policy file (defaults apply when omitted)")

	root.AddCommand(
		newDiversityCmd(opts),
		newAlignCmd(opts),
		newDecideCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

func (o *rootOptions) policy() (*config.Config, error) {
	if o.configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(o.configPath)
}

// parseLabels accepts labels separated by spaces or commas.
func parseLabels(args []string) models.PhonemeSequence {
	var labels []string
	for _, arg := range args {
		labels = append(labels, str.Tokens(arg)...)
	}
	return models.SequenceFromLabels(labels)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
