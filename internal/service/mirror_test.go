package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-backend/internal/domain"
	"campus-backend/internal/paths"
	"campus-backend/internal/repository/memory"
	"campus-backend/internal/service"
)

func TestMirror_PartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.FailWith(failOn("set", "notification_records/"))

	fact := service.NotificationFact(csDivision, day(2024, 3, 4), "n1")
	report := f.mirror.Mirror(ctx, fact, map[string]any{"id": "n1", "title": "hello"})

	assert.Equal(t, 1, report.Succeeded())
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, []string{fact.Targets[1].String()}, report.Failures())
	assert.ErrorIs(t, report.Err(), domain.ErrStore)
	assert.ErrorIs(t, report.Err(), memory.ErrInjected)

	assert.Equal(t, "hello", f.store.Collection(paths.Notifications)["n1"]["title"])
}

func TestMirror_MergesIntoExistingCopies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fact := service.AuditFact(csDivision, day(2024, 3, 4), "a1")

	require.NoError(t, f.mirror.Mirror(ctx, fact, map[string]any{"action": "leave.approved", "actorId": "t1"}).Err())
	require.NoError(t, f.mirror.Mirror(ctx, fact, map[string]any{"actorId": "h1"}).Err())

	for _, target := range fact.Targets {
		doc := f.store.Collection(target.Collection)[target.ID]
		assert.Equal(t, "leave.approved", doc["action"], target.String())
		assert.Equal(t, "h1", doc["actorId"], target.String())
	}
}

func TestLeaveFactTargets(t *testing.T) {
	req := &domain.LeaveRequest{ID: "l1", UserID: "u123", RollNumber: "21CS01", Placement: csDivision, FromDate: day(2024, 3, 4)}

	fact := service.LeaveFact(req)
	assert.Equal(t, service.FactLeave, fact.Kind)
	assert.Equal(t, []service.Target{
		{Collection: "leaves", ID: "l1"},
		{Collection: "leave_records/batch/2021/CS/year/2/sems/3/divs/A/subjects/general/2024/03/04", ID: "21CS01_2024-03-04"},
	}, fact.Targets)

	// A renumbered request keeps writing to the copy it was created with.
	req.MirrorPath = "leave_records/batch/2021/CS/year/2/sems/3/divs/A/subjects/general/2024/03/04"
	req.MirrorID = "21CS01_2024-03-04"
	req.RollNumber = "21CS99"
	assert.Equal(t, service.Target{Collection: req.MirrorPath, ID: "21CS01_2024-03-04"}, service.LeaveFact(req).Targets[1])
}

func TestReport(t *testing.T) {
	r := service.NewReport()
	r.Add("a", nil)
	r.Add("b", errors.New("boom"))

	other := service.NewReport()
	other.Add("c", nil)
	r.Merge(other)
	r.Merge(r)
	r.Merge(nil)

	assert.Len(t, r.Outcomes(), 3)
	assert.Equal(t, 2, r.Succeeded())
	assert.Equal(t, 1, r.Failed())
	assert.EqualError(t, r.Err(), "boom")

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"succeeded":2,"failed":["b"]}`, string(out))

	assert.NoError(t, service.NewReport().Err())
}

func TestNotificationService_Notify(t *testing.T) {
	ctx := context.Background()
	in := service.NotificationInput{
		UserID:     "u123",
		RollNumber: "21CS01",
		Email:      "asha@campus.edu",
		Name:       "Asha",
		Placement:  csDivision,
		Type:       domain.NotificationLeaveStatus,
		Title:      "Leave request update",
		Message:    "approved",
	}

	t.Run("Stores both copies and sends mail", func(t *testing.T) {
		f := newFixture(t)

		report := f.notifications.Notify(ctx, in)
		assert.Equal(t, 3, report.Succeeded())
		assert.Zero(t, report.Failed())

		flat := f.store.Collection(paths.Notifications)
		require.Len(t, flat, 1)
		for id, n := range flat {
			assert.Equal(t, "u123", n["userId"])
			assert.Equal(t, "LEAVE_STATUS", n["type"])
			assert.Equal(t, false, n["isRead"])
			assert.NotEmpty(t, f.store.Collections("notification_records/"))
			assert.Equal(t, id, n["id"])
		}
		f.email.AssertCalled(t, "SendNotification", mock.Anything, "asha@campus.edu", "Asha", "Leave request update", "approved")
	})

	t.Run("Mail failure is reported", func(t *testing.T) {
		f := newFixture(t)
		email := new(MockEmailService)
		email.On("SendNotification", mock.Anything, "asha@campus.edu", "Asha", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
		notifications := service.NewNotificationService(f.store, f.mirror, email)

		report := notifications.Notify(ctx, in)
		assert.Equal(t, []string{"email:asha@campus.edu"}, report.Failures())
		assert.Len(t, f.store.Collection(paths.Notifications), 1)
		email.AssertExpectations(t)
	})

	t.Run("No address means no mail", func(t *testing.T) {
		f := newFixture(t)
		noMail := in
		noMail.Email = ""

		report := f.notifications.Notify(ctx, noMail)
		assert.Equal(t, 2, report.Succeeded())
		f.email.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
