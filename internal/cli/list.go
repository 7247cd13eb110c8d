package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hypergen/hypergen/internal/config"
	"github.com/hypergen/hypergen/internal/discover"
)

var listCmd = &cobra.Command{
	Use:   "list [kit[/cookbook]]",
	Short: "List discovered kits, cookbooks, and recipes",
	Long: `List everything discoverable from the current directory's kit search
roots (./.hyper/kits, ./cookbooks, plus any configured discovery.searchRoots),
optionally narrowed to one kit or one kit/cookbook.

Examples:
  hypergen list
  hypergen list react
  hypergen list react/component`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	kits, err := discover.List(discover.WithSearchRoots(cfg.Discovery.SearchRoots...))
	if err != nil {
		return err
	}

	var kitFilter, cookbookFilter string
	if len(args) == 1 {
		parts := strings.SplitN(args[0], "/", 2)
		kitFilter = parts[0]
		if len(parts) == 2 {
			cookbookFilter = parts[1]
		}
	}

	filtered := make([]discover.Kit, 0, len(kits))
	for _, k := range kits {
		if kitFilter != "" && k.Name != kitFilter {
			continue
		}
		if cookbookFilter != "" {
			var cookbooks []discover.Cookbook
			for _, c := range k.Cookbooks {
				if c.Name == cookbookFilter {
					cookbooks = append(cookbooks, c)
				}
			}
			k.Cookbooks = cookbooks
		}
		filtered = append(filtered, k)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(filtered)
	}

	if len(filtered) == 0 {
		printInfo("no kits discovered")
		return nil
	}

	for _, k := range filtered {
		fmt.Printf("%s\n", k.Name)
		for _, c := range k.Cookbooks {
			fmt.Printf("  %s/\n", c.Name)
			for _, r := range c.Recipes {
				fmt.Printf("    %s/%s/%s\n", k.Name, c.Name, r)
			}
		}
	}
	return nil
}
