package booking

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barberq/internal/wizard"
)

func TestSessionView_Services(t *testing.T) {
	mgr, _ := newTestManager(t, newFakeAPI())
	sess, err := mgr.Start(context.Background(), "biz-1")
	require.NoError(t, err)

	v := sess.View(testNow)
	assert.Equal(t, wizard.StepServices, v.Step)
	require.Len(t, v.Services, 2)
	assert.Equal(t, "€25.00", v.Services[0].PriceLabel)
	assert.Equal(t, "30 min", v.Services[0].DurationLabel)
	assert.Nil(t, v.Calendar)
	assert.Empty(t, v.Slots)
}

func TestSessionView_SlotsStepRendersCalendar(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t, newFakeAPI())
	sess, err := mgr.Start(ctx, "biz-1")
	require.NoError(t, err)
	sess, err = mgr.SelectService(ctx, sess.ID, "svc1")
	require.NoError(t, err)
	sess, _, err = mgr.SelectDate(ctx, sess.ID, "2024-06-10")
	require.NoError(t, err)

	v := sess.View(testNow)
	assert.Empty(t, v.Services)
	require.NotNil(t, v.SelectedService)
	assert.Equal(t, "svc1", v.SelectedService.ID)
	require.NotNil(t, v.Calendar)
	assert.Equal(t, "June 2024", v.Calendar.Label)
	cell, ok := v.Calendar.Cell("2024-06-10")
	require.True(t, ok)
	assert.True(t, cell.Selectable)
	assert.Equal(t, []string{"2024-06-10", "2024-06-12"}, v.Dates)
	assert.Equal(t, "Mon, 10 Jun", v.DateLabel)
	require.Len(t, v.Slots, 1)
	assert.Equal(t, "10:00", v.Slots[0].StartTime)
}

func TestSessionView_NoSlotsHidesCalendar(t *testing.T) {
	api := newFakeAPI()
	api.slots["svc1"] = nil
	mgr, _ := newTestManager(t, api)
	ctx := context.Background()
	sess, err := mgr.Start(ctx, "biz-1")
	require.NoError(t, err)
	sess, err = mgr.SelectService(ctx, sess.ID, "svc1")
	require.NoError(t, err)

	v := sess.View(testNow)
	assert.True(t, v.NoSlots)
	assert.Nil(t, v.Calendar)
}

func TestSessionView_JSONUsesServiceID(t *testing.T) {
	mgr, _ := newTestManager(t, newFakeAPI())
	sess := startAtConfirm(t, mgr)

	data, err := json.Marshal(sess.View(testNow))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "confirm", decoded["step"])
	selected := decoded["selectedService"].(map[string]any)
	assert.Equal(t, "svc1", selected["serviceId"])
	slot := decoded["selectedSlot"].(map[string]any)
	assert.Equal(t, "10:00", slot["startTime"])
}
