package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/adapters/telemetry"
	"go.trai.ch/berth/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestRouter_ForwardsToSelectedRenderer(t *testing.T) {
	ctrl := gomock.NewController(t)
	fallback := mocks.NewMockRenderer(ctrl)
	interactive := mocks.NewMockRenderer(ctrl)
	now := time.Now()
	failed := errors.New("boom")

	router := telemetry.NewRouter(fallback)

	fallback.EXPECT().OnPlanEmit([]string{"launch"})
	router.OnPlanEmit([]string{"launch"})

	router.Use(interactive)
	gomock.InOrder(
		interactive.EXPECT().Start(gomock.Any()).Return(nil),
		interactive.EXPECT().OnPlanEmit([]string{"resolve"}),
		interactive.EXPECT().OnTaskStart("s1", "", "resolve", now),
		interactive.EXPECT().OnTaskLog("s1", []byte("line\n")),
		interactive.EXPECT().OnTaskComplete("s1", now, failed),
		interactive.EXPECT().Stop().Return(nil),
		interactive.EXPECT().Wait().Return(nil),
	)

	require.NoError(t, router.Start(context.Background()))
	router.OnPlanEmit([]string{"resolve"})
	router.OnTaskStart("s1", "", "resolve", now)
	router.OnTaskLog("s1", []byte("line\n"))
	router.OnTaskComplete("s1", now, failed)
	require.NoError(t, router.Stop())
	require.NoError(t, router.Wait())
}

func TestRouter_NilTarget(t *testing.T) {
	router := telemetry.NewRouter(nil)

	require.NoError(t, router.Start(context.Background()))
	router.OnPlanEmit([]string{"resolve"})
	router.OnTaskLog("s1", []byte("ignored"))
	require.NoError(t, router.Stop())
	require.NoError(t, router.Wait())
}
