package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
}

// NewRootCommand собирает дерево команд; без подкоманды запускается сервер
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "taskmanager",
		Short: "Менеджер задач, эпиков и подзадач",
		Long: `taskmanager хранит задачи, эпики и подзадачи, следит за пересечениями
по времени и сохраняет снимок в файл, SQLite или PostgreSQL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "путь к config.yml")

	serveCmd := newServeCommand(opts)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newCheckCommand())
	return rootCmd
}

func Execute(ctx context.Context) error {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		return err
	}
	return nil
}
