// Command voicegate is the offline companion to the server: it runs the
// scoring and decision stages on literal inputs and prints the effective policy.
//
// Usage:
//
//	voicegate [--config policy.yaml] <command> [args]
//
// Commands:
//
//	diversity - check a passphrase transcript for phonetic diversity
//	align     - score a candidate transcript against a reference
//	decide    - apply the decision policy to two factor scores
//	config    - print the effective policy as YAML
package main

import (
	"fmt"
	"os"

	"voicegate/cmd/voicegate/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
