package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notifiermock "github.com/miraj-net/miraj/internal/notifier/mock"
	storagemock "github.com/miraj-net/miraj/internal/storage/mock"
)

func TestReminder_remind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	n := notifiermock.NewMockNotifier(ctrl)

	r := New(s, n, time.Hour, 8*time.Hour)

	s.EXPECT().ListStaleUsers(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, since time.Time) ([]string, error) {
			assert.WithinDuration(t, time.Now().UTC().Add(-8*time.Hour), since, time.Minute)
			return []string{"1", "2"}, nil
		})

	n.EXPECT().PostReminder(gomock.Any(), "1").Return(nil)
	n.EXPECT().PostReminder(gomock.Any(), "2").Return(errors.New("boom"))

	// a failed nudge must not abort the sweep
	require.NoError(t, r.remind(context.Background()))
}

func TestReminder_remind_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	n := notifiermock.NewMockNotifier(ctrl)

	r := New(s, n, time.Hour, 8*time.Hour)

	s.EXPECT().ListStaleUsers(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	require.Error(t, r.remind(context.Background()))
}

func TestReminder_Run_Stops(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := storagemock.NewMockStorage(ctrl)
	n := notifiermock.NewMockNotifier(ctrl)

	r := New(s, n, time.Hour, 8*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, context.Canceled, r.Run(ctx))
}
