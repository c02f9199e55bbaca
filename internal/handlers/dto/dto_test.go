package dto_test

import (
	"testing"
	"time"

	"taskManager/internal/handlers/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minutes(v int64) *int64 { return &v }

// TestTaskRequest_Duration тестирует границы длительности в минутах
func TestTaskRequest_Duration(t *testing.T) {
	tests := []struct {
		name     string
		duration *int64
		want     *time.Duration
		wantErr  bool
	}{
		{name: "absent", duration: nil},
		{name: "zero", duration: minutes(0), want: func() *time.Duration { d := time.Duration(0); return &d }()},
		{name: "largest", duration: minutes(dto.MaxDurationMinutes), want: func() *time.Duration {
			d := time.Duration(dto.MaxDurationMinutes) * time.Minute
			return &d
		}()},
		{name: "overflow", duration: minutes(dto.MaxDurationMinutes + 1), wantErr: true},
		{name: "negative", duration: minutes(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dto.TaskRequest{Name: "a", Duration: tt.duration}.ToTask(-1)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Duration)
		})
	}

	t.Run("subtask shares the bound", func(t *testing.T) {
		req := dto.SubtaskRequest{TaskRequest: dto.TaskRequest{Name: "s", Duration: minutes(dto.MaxDurationMinutes + 1)}, EpicID: 1}
		_, err := req.ToSubtask(-1)
		assert.Error(t, err)
	})
}
