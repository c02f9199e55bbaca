package cli

import (
	"fmt"

	"taskManager/internal/app"
	"taskManager/internal/config"

	"github.com/spf13/cobra"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP сервер",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("загрузка конфигурации: %w", err)
			}

			a := app.New(cfg)
			if err := a.Init(cmd.Context()); err != nil {
				a.Close()
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
