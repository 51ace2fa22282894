package main

import (
	"github.com/spf13/cobra"

	"webpeel/internal/config"
	"webpeel/internal/logger"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "webpeel",
		Short:         "Peel structured, LLM-ready content from web pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	loadConfig := func() (*config.Config, error) {
		cfg := config.Default()
		if configPath != "" {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return nil, err
			}
		}
		logger.Init(cfg.Logging)
		return cfg, nil
	}

	root.AddCommand(newPeelCmd(loadConfig))
	root.AddCommand(newSearchCmd(loadConfig))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the webpeel version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("webpeel " + version)
		},
	}
}
