package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronemarket_backend/internal/models"
	"dronemarket_backend/internal/money"
	"dronemarket_backend/internal/services/dto"
	"dronemarket_backend/internal/testutil"
	"dronemarket_backend/pkg/apperrors"
)

func newJobRequest() *dto.CreateJobRequest {
	return &dto.CreateJobRequest{
		Title:        "Wash the atrium glass",
		Description:  "Four storey glass atrium, north side",
		PropertyType: models.PropertyCommercial,
		CleaningType: models.CleaningWindow,
		Address:      "5 Elm St",
		City:         "Denver",
		State:        "CO",
		ZipCode:      "80202",
		BudgetType:   models.BudgetFixed,
		Budget:       50000,
	}
}

func TestCreateJob_Defaults(t *testing.T) {
	e := newEnv(t)
	manager := createManager(t, e)

	job, err := e.svc.Jobs.CreateJob(ctx, e.db, actorOf(manager), newJobRequest())
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusDraft, job.Status)
	assert.Equal(t, models.UrgencyMedium, job.Urgency)
	assert.True(t, job.IsPublic)
	assert.Equal(t, "US", job.Country)
	assert.Equal(t, manager.ID, job.PropertyManagerID)

	req := newJobRequest()
	req.Publish = true
	job, err = e.svc.Jobs.CreateJob(ctx, e.db, actorOf(manager), req)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPublished, job.Status)
}

func TestCreateJob_OnlyPropertyManagers(t *testing.T) {
	e := newEnv(t)
	pilotUser, _ := anotherPilot(t, e)

	_, err := e.svc.Jobs.CreateJob(ctx, e.db, actorOf(pilotUser), newJobRequest())
	assert.True(t, apperrors.Is(err, apperrors.ErrInsufficientPermissions))
}

func TestCreateJob_BudgetValidation(t *testing.T) {
	e := newEnv(t)
	manager := createManager(t, e)

	cases := []struct {
		name  string
		apply func(r *dto.CreateJobRequest)
	}{
		{"fixed without amount", func(r *dto.CreateJobRequest) { r.Budget = 0 }},
		{"range without bounds", func(r *dto.CreateJobRequest) { r.BudgetType = models.BudgetRange }},
		{"range inverted", func(r *dto.CreateJobRequest) {
			r.BudgetType = models.BudgetRange
			r.BudgetMin = 9000
			r.BudgetMax = 1000
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := newJobRequest()
			tc.apply(req)
			_, err := e.svc.Jobs.CreateJob(ctx, e.db, actorOf(manager), req)
			assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
		})
	}

	req := newJobRequest()
	req.BudgetType = ""
	req.Budget = 0
	job, err := e.svc.Jobs.CreateJob(ctx, e.db, actorOf(manager), req)
	require.NoError(t, err)
	assert.Equal(t, models.BudgetNegotiable, job.BudgetType)
}

func TestGetJob_ViewsAndOwnerBids(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	m.submit(t, e, 1000)

	viewed, err := e.svc.Jobs.GetJob(ctx, e.db, actorOf(m.pilotUser), m.job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)
	assert.Empty(t, viewed.Bids)

	owned, err := e.svc.Jobs.GetJob(ctx, e.db, actorOf(m.manager), m.job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owned.ViewCount)
	assert.Len(t, owned.Bids, 1)
}

func TestUpdateJob_RevalidatesBudgetAndLocksAfterAward(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)

	title := "Clean the whole tower"
	updated, err := e.svc.Jobs.UpdateJob(ctx, e.db, actorOf(m.manager), m.job.ID, &dto.UpdateJobRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	rangeType := models.BudgetRange
	_, err = e.svc.Jobs.UpdateJob(ctx, e.db, actorOf(m.manager), m.job.ID, &dto.UpdateJobRequest{BudgetType: &rangeType})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, err = e.svc.Jobs.UpdateJob(ctx, e.db, actorOf(m.pilotUser), m.job.ID, &dto.UpdateJobRequest{Title: &title})
	assert.True(t, apperrors.Is(err, apperrors.ErrJobNotOwned))

	m.accepted(t, e, 1000)
	_, err = e.svc.Jobs.UpdateJob(ctx, e.db, actorOf(m.manager), m.job.ID, &dto.UpdateJobRequest{Title: &title})
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))

	err = e.svc.Jobs.DeleteJob(ctx, e.db, actorOf(m.manager), m.job.ID)
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))
}

func TestDeleteJob_RemovesBids(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)
	bid := m.submit(t, e, 1000)

	require.NoError(t, e.svc.Jobs.DeleteJob(ctx, e.db, actorOf(m.manager), m.job.ID))

	_, err := e.svc.Jobs.GetJob(ctx, e.db, actorOf(m.manager), m.job.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrJobNotFound))
	assert.EqualValues(t, 0, countRows(t, e, &models.Bid{}, "id = ?", bid.ID))
}

func TestUpdateStatus_FollowsTransitions(t *testing.T) {
	e := newEnv(t)
	manager := createManager(t, e)
	job, err := e.svc.Jobs.CreateJob(ctx, e.db, actorOf(manager), newJobRequest())
	require.NoError(t, err)

	// draft -> bidding не допускается
	_, err = e.svc.Jobs.UpdateStatus(ctx, e.db, actorOf(manager), job.ID, models.JobStatusBidding)
	assert.Equal(t, apperrors.CodeInvalidStatus, apperrors.CodeOf(err))

	for _, next := range []models.JobStatus{models.JobStatusPublished, models.JobStatusBidding} {
		job, err = e.svc.Jobs.UpdateStatus(ctx, e.db, actorOf(manager), job.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, job.Status)
	}

	// awarded ставится только принятием ставки
	_, err = e.svc.Jobs.UpdateStatus(ctx, e.db, actorOf(manager), job.ID, models.JobStatusAwarded)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidJobStatus))
}

func TestListJobs_BoardAndFilters(t *testing.T) {
	e := newEnv(t)
	m := newMarketplace(t, e)

	// черновик на доску не попадает
	_, err := e.svc.Jobs.CreateJob(ctx, e.db, actorOf(m.manager), newJobRequest())
	require.NoError(t, err)

	list, err := e.svc.Jobs.ListJobs(e.db, &dto.JobListQuery{})
	require.NoError(t, err)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, m.job.ID, list.Jobs[0].ID)

	list, err = e.svc.Jobs.ListJobs(e.db, &dto.JobListQuery{City: "aus"})
	require.NoError(t, err)
	assert.Len(t, list.Jobs, 1)

	max := money.Cents(500).Float64()
	list, err = e.svc.Jobs.ListJobs(e.db, &dto.JobListQuery{BudgetMax: &max})
	require.NoError(t, err)
	assert.Empty(t, list.Jobs)

	mine, err := e.svc.Jobs.ListMyJobs(e.db, actorOf(m.manager), dto.PageQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mine.Pagination.Total)
}

func createManager(t *testing.T, e *env) *models.User {
	t.Helper()
	return testutil.CreateUser(t, e.db, models.UserRolePropertyManager)
}
