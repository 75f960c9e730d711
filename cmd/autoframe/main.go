// Command autoframe reframes videos to a new aspect ratio by following the
// salient action, scene by scene.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autoframe/autoframe/internal/log"
)

const appVersion = "0.3.0"

var verbose bool

func main() {
	root := &cobra.Command{
		Use:     "autoframe",
		Short:   "Saliency-aware video reframing",
		Version: appVersion,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.Init("debug")
			} else {
				log.Init("info")
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newReframeCmd())
	root.AddCommand(newWatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
