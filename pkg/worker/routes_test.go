// Copyright 2023 The chuhe.io Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chuhe.io/workservice/pkg/models"
	"chuhe.io/workservice/pkg/services/works"
	"chuhe.io/workservice/pkg/utils/database"
	"chuhe.io/workservice/pkg/utils/resourceservice"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubExecutor struct{}

func (stubExecutor) SubmitTask(ctx context.Context, spec resourceservice.TaskSpec) (string, error) {
	return "rs-1", nil
}

func (stubExecutor) CancelTask(ctx context.Context, taskID string) error { return nil }

type stubQueue struct{}

func (stubQueue) Revoke(id string) error { return nil }

func newTestMux(t *testing.T) (*http.ServeMux, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mux := http.NewServeMux()
	registerWorkRoutes(mux, works.NewService(db, stubExecutor{}, stubQueue{}))
	return mux, db
}

func TestSubmitWorkRoute(t *testing.T) {
	mux, db := newTestMux(t)

	work := &models.CommonWork{}
	work.Name = "nightly"
	work.Category = models.WorkCategorySQL
	require.NoError(t, db.Create(work).Error)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/works/common/1/submit?submittedBy=alice", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	instance := &models.CommonWorkInstance{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), instance))
	assert.Equal(t, work.ID, instance.WorkID)
	assert.Equal(t, models.WorkStatusExecuting, instance.Status)
}

func TestSubmitWorkRouteNotFound(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/works/common/42/submit", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskRoutes(t *testing.T) {
	mux, db := newTestMux(t)

	instance := &models.CommonWorkInstance{}
	instance.UUID = "w-1"
	require.NoError(t, db.Create(instance).Error)
	task := &models.Task{UUID: "t-1", WorkID: instance.ID, Status: models.TaskStatusWaiting}
	require.NoError(t, db.Create(task).Error)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tasks/t-1/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tasks/t-1/stop", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	got := &models.Task{}
	require.NoError(t, db.First(got, "uuid = ?", "t-1").Error)
	assert.Equal(t, models.TaskStatusManualTerminated, got.Status)
}

func TestTaskRouteRejectsGet(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tasks/t-1/start", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
