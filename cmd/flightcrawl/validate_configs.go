package main

import (
	"fmt"

	"github.com/flightcrawl/enginecore/internal/config"
	"github.com/flightcrawl/enginecore/internal/siteconfig"
	"github.com/urfave/cli/v2"
)

var validateConfigsCommand = &cli.Command{
	Name:  "validate-configs",
	Usage: "load and validate every site-config document, reporting the first error",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "dir", Usage: "site-config directory; defaults to SITE_CONFIG_DIR"},
	},
	Action: runValidateConfigs,
}

func runValidateConfigs(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("flightcrawl: %v", err), exitConfigError)
	}
	setupLogger(cfg)

	dir := c.String("dir")
	if dir == "" {
		dir = cfg.App.SiteConfigDir
	}

	configs, err := siteconfig.NewLoader(dir).Load()
	if err != nil {
		return cli.Exit(fmt.Sprintf("flightcrawl: %v", err), exitConfigError)
	}

	enabled := 0
	for _, site := range configs {
		if !site.Disabled {
			enabled++
		}
	}
	fmt.Printf("flightcrawl: %d site config(s) loaded from %q (%d enabled, %d disabled)\n",
		len(configs), dir, enabled, len(configs)-enabled)
	return nil
}
