package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/taxgraph/display"
	"github.com/teranos/taxgraph/importstore"
	"github.com/teranos/taxgraph/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show taxgraph version information",
	Long:  `Display version, build time, commit hash, and platform information for the taxgraph binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()

		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(info)
		}
		fmt.Println(info.String())
		fmt.Printf("Platform: %s\n", info.Platform)
		fmt.Printf("Go: %s\n", info.GoVersion)
		fmt.Printf("Import store schema: %s\n", importstore.SupportedSchema)
		return nil
	},
}
