package reminderdomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResinAlertAt(t *testing.T) {
	now := utc(2024, 1, 10, 12, 0)

	tests := []struct {
		name    string
		current int
		limit   int
		want    time.Time
		wantErr error
	}{
		{name: "default limit", current: 20, limit: DefaultResinLimit, want: now.Add(18 * time.Hour)},
		{name: "cap from empty", current: 0, limit: 160, want: now.Add(160 * 8 * time.Minute)},
		{name: "one short", current: 159, limit: 160, want: now.Add(8 * time.Minute)},
		{name: "limit above cap", current: 0, limit: 161, wantErr: ErrResinLimitOutOfRange},
		{name: "zero limit", current: 0, limit: 0, wantErr: ErrResinLimitOutOfRange},
		{name: "negative current", current: -1, limit: 100, wantErr: ErrResinCurrentOutOfRange},
		{name: "current above cap", current: 161, limit: 160, wantErr: ErrResinCurrentOutOfRange},
		{name: "already at limit", current: 155, limit: 155, wantErr: ErrResinAlreadyAtLimit},
		{name: "above limit", current: 158, limit: 120, wantErr: ErrResinAlreadyAtLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResinAlertAt(tt.current, tt.limit, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestNextResinAlert(t *testing.T) {
	scheduled := utc(2024, 1, 10, 12, 0)
	refill := 155 * ResinRegenInterval

	t.Run("on time", func(t *testing.T) {
		got := NextResinAlert(scheduled, 155, scheduled.Add(time.Minute))
		assert.True(t, scheduled.Add(refill).Equal(got))
	})

	t.Run("far behind", func(t *testing.T) {
		now := scheduled.Add(48 * time.Hour)
		got := NextResinAlert(scheduled, 155, now)
		assert.True(t, now.Add(refill).Equal(got))
	})
}
