package cli_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"taskManager/internal/cli"
	"taskManager/internal/models/task"
	"taskManager/internal/repository/task/file"
	"taskManager/internal/repository/task/sqlite"
	"taskManager/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedFile(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	manager := service.NewTaskManager(service.WithRepository(file.New(path)))

	epicID, err := manager.CreateEpic(ctx, task.NewEpic("e", ""))
	require.NoError(t, err)
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err = manager.CreateSubtask(ctx, task.NewSubtask(epicID, "s", "", task.StatusDone,
		task.WithSchedule(start, time.Hour)))
	require.NoError(t, err)
	_, err = manager.CreateTask(ctx, task.NewTask("t", "", task.StatusNew))
	require.NoError(t, err)
}

// TestMigrate_FileToSQLite тестирует перенос файла в SQLite
func TestMigrate_FileToSQLite(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "tasks.csv")
	dbPath := filepath.Join(dir, "tasks.db")
	seedFile(t, csvPath)

	out, err := run(t, "migrate", "--from", "file:"+csvPath, "--to", "sqlite:"+dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Перенесено записей: 3")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	defer db.Close()

	manager, err := service.Load(ctx, db)
	require.NoError(t, err)
	epics, err := manager.GetEpicsList(ctx)
	require.NoError(t, err)
	require.Len(t, epics, 1)
	assert.Equal(t, task.StatusDone, epics[0].Status)
	assert.Len(t, epics[0].SubtaskIDs, 1)
}

// TestMigrate_Errors тестирует ошибки аргументов и источника
func TestMigrate_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
	}{
		{name: "no flags", args: []string{"migrate"}},
		{name: "bad from", args: []string{"migrate", "--from", "tasks.csv", "--to", "sqlite:" + filepath.Join(dir, "a.db")}},
		{name: "bad to", args: []string{"migrate", "--from", "file:" + filepath.Join(dir, "a.csv"), "--to", "redis:x"}},
		{name: "extra args", args: []string{"migrate", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

// TestCheck тестирует вывод количества сущностей
func TestCheck(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "tasks.csv")
	seedFile(t, csvPath)

	out, err := run(t, "check", "file:"+csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "задач: 1, эпиков: 1, подзадач: 1")
}
