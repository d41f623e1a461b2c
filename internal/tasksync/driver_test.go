package tasksync_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/d9705996/tasksync/internal/lms"
	"github.com/d9705996/tasksync/internal/lms/lmstest"
	"github.com/d9705996/tasksync/internal/model"
	"github.com/d9705996/tasksync/internal/store"
	"github.com/d9705996/tasksync/internal/tasksync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var student = model.User{
	ItslearningUsername: lmstest.Username,
	ItslearningPassword: lmstest.Password,
	Organisation:        "Upper",
}

type harness struct {
	srv    *lmstest.Server
	store  *store.MemoryStore
	driver *tasksync.Driver
	logs   *bytes.Buffer
}

func newHarness(t *testing.T, users ...model.User) *harness {
	t.Helper()
	srv := lmstest.NewServer(t)
	dir := lms.NewDirectory(srv.URL, lms.WithHTTPClient(srv.Client()))
	st := store.NewMemoryStore(users...)
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	d, err := tasksync.New(st, dir, log, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return &harness{srv: srv, store: st, driver: d, logs: &logs}
}

func TestRun_NoUsers(t *testing.T) {
	h := newHarness(t)

	res, err := h.driver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tasksync.Result{}, res)
	assert.Contains(t, h.logs.String(), "no users found")
	assert.Zero(t, h.srv.Calls(lmstest.SearchPath))
}

func TestRun_InsertsTasks(t *testing.T) {
	h := newHarness(t, student)

	res, err := h.driver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tasksync.Result{Users: 1, Synced: 1, Inserted: 2}, res)

	rows := h.store.Tasks()
	require.Len(t, rows, 2)
	assert.Equal(t, int64(10), rows[0].TaskID)
	assert.Equal(t, int64(lmstest.PersonID), rows[0].UserID)
	assert.Equal(t, "Essay", rows[0].Name)
	assert.Equal(t, "Mathematics", rows[0].Course)
	assert.Equal(t, "2024-04-01T23:59:00Z", rows[0].Deadline)
	assert.Equal(t, int64(11), rows[1].TaskID)

	assert.Equal(t, "Upper", h.srv.LastQuery(lmstest.SearchPath).Get("searchText"))
	assert.Contains(t, h.logs.String(), "run_id=")
}

func TestRun_SkipsExistingTask(t *testing.T) {
	h := newHarness(t, student)
	require.NoError(t, h.store.InsertTask(context.Background(), &model.Task{
		TaskID: 10,
		UserID: lmstest.PersonID,
		Name:   "Essay",
	}))

	res, err := h.driver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Inserted)
	assert.Len(t, h.store.Tasks(), 2)
	assert.Contains(t, h.logs.String(), "already exists")
}

func TestRun_SecondRunInsertsNothing(t *testing.T) {
	h := newHarness(t, student)

	_, err := h.driver.Run(context.Background())
	require.NoError(t, err)
	res, err := h.driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, tasksync.Result{Users: 1, Synced: 1, Skipped: 2}, res)
	assert.Len(t, h.store.Tasks(), 2)
}

func TestRun_FailingUserDoesNotStopOthers(t *testing.T) {
	wrong := student
	wrong.ItslearningPassword = "wrong"
	h := newHarness(t, wrong, student)

	res, err := h.driver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tasksync.Result{Users: 2, Synced: 1, Failed: 1, Inserted: 2}, res)
	assert.Contains(t, h.logs.String(), "sync user failed")
	assert.Contains(t, h.logs.String(), lms.ErrAuthentication.Error())
}

func TestRun_OrganisationNotFound(t *testing.T) {
	lost := student
	lost.Organisation = "Nowhere"
	h := newHarness(t, lost, student)

	res, err := h.driver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Synced)
	assert.Contains(t, h.logs.String(), "organisation not found")
	assert.Equal(t, 1, h.srv.Calls(lmstest.TokenPath))
}

func TestRun_FetchFailureKeepsNothing(t *testing.T) {
	h := newHarness(t, student)
	h.srv.SetStatus(lmstest.TasksPath, http.StatusInternalServerError)

	res, err := h.driver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tasksync.Result{Users: 1, Failed: 1}, res)
	assert.Empty(t, h.store.Tasks())
	assert.Contains(t, h.logs.String(), "fetch tasks")
}

func TestRun_InsertError(t *testing.T) {
	h := newHarness(t, student)
	h.store.InsertErr = errors.New("disk full")

	res, err := h.driver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, h.logs.String(), "disk full")
}

func TestRun_Cancelled(t *testing.T) {
	h := newHarness(t, student)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.driver.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.srv.Calls(lmstest.SearchPath))
}

type failingStore struct{ store.Store }

func (failingStore) Users(context.Context) ([]model.User, error) {
	return nil, errors.New("connection refused")
}

func TestRun_ListUsersError(t *testing.T) {
	d, err := tasksync.New(failingStore{}, lms.NewDirectory(""), nil, nil)
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list users")
}

func TestRun_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	srv := lmstest.NewServer(t)
	lost := student
	lost.Organisation = "Nowhere"
	d, err := tasksync.New(
		store.NewMemoryStore(student, lost),
		lms.NewDirectory(srv.URL, lms.WithHTTPClient(srv.Client())),
		nil,
		mp.Meter("test"),
	)
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				got[m.Name+"/"+outcome.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{
		"tasksync.users/synced":   1,
		"tasksync.users/failed":   1,
		"tasksync.tasks/inserted": 2,
	}, got)
}
