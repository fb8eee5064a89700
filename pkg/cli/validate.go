package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var modulesCfg config.Modules

	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate domain module files",
		Flags:     modulesCfg.Flags(),
		ArgsUsage: "[module.toml ...]",
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := append(modulesCfg.Paths(), c.Args().Slice()...)
			if len(paths) == 0 {
				return goerr.New("no domain module files given")
			}

			ok := color.New(color.FgGreen).SprintFunc()
			bad := color.New(color.FgRed).SprintFunc()

			var failed int
			for _, path := range paths {
				cfg, err := config.LoadModuleConfig(path)
				if err == nil {
					_, err = cfg.Module()
				}
				if err != nil {
					failed++
					fmt.Printf("%s %s\n", bad("NG"), path)
					fmt.Printf("   %v\n", err)
					continue
				}

				fmt.Printf("%s %s\n", ok("OK"), path)
				fmt.Printf("   domain=%s problem_types=%d questions=%d tree=%v\n",
					cfg.Domain, len(cfg.ProblemTypes), len(cfg.Questions), cfg.Tree != nil)
			}

			if failed > 0 {
				return goerr.New("domain module validation failed",
					goerr.V("failed", failed), goerr.V("total", len(paths)))
			}
			return nil
		},
	}
}
