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

package works

import (
	"context"
	"fmt"
	"testing"

	"chuhe.io/workservice/pkg/models"
	"chuhe.io/workservice/pkg/repository"
	"chuhe.io/workservice/pkg/utils/database"
	"chuhe.io/workservice/pkg/utils/resourceservice"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeExecutor struct {
	submitted []resourceservice.TaskSpec
	cancelled []string
	submitErr error
	cancelErr error
}

func (f *fakeExecutor) SubmitTask(ctx context.Context, spec resourceservice.TaskSpec) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, spec)
	return fmt.Sprintf("rs-%d", len(f.submitted)), nil
}

func (f *fakeExecutor) CancelTask(ctx context.Context, taskID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, taskID)
	return nil
}

type fakeQueue struct {
	revoked   []string
	revokeErr error
}

func (f *fakeQueue) Revoke(id string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeExecutor, *fakeQueue) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	executor := &fakeExecutor{}
	queue := &fakeQueue{}
	return NewService(db, executor, queue), db, executor, queue
}

func TestSubmitCommonWork(t *testing.T) {
	svc, db, _, _ := newTestService(t)

	work := &models.CommonWork{}
	work.Name = "nightly"
	work.Category = models.WorkCategorySQL
	work.SQL = "select 1"
	require.NoError(t, db.Create(work).Error)

	instance, err := svc.SubmitCommonWork(context.Background(), work.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, work.ID, instance.WorkID)
	assert.Equal(t, models.WorkStatusExecuting, instance.Status)
	assert.Equal(t, instance.UUID, instance.ScheduleEngineJobID)
	assert.Equal(t, "alice", instance.SubmittedBy)

	// later template edits must not touch the stored snapshot
	work.SQL = "select 2"
	require.NoError(t, db.Save(work).Error)
	got, err := repository.NewWorkRegistry(db).GetCommonInstance(instance.ID)
	require.NoError(t, err)
	assert.Equal(t, "select 1", got.SQL)
}

func TestSubmitImportWorkCreatesWaitingTask(t *testing.T) {
	svc, db, _, _ := newTestService(t)

	work := &models.ImportWork{}
	work.Name = "load orders"
	work.Category = models.WorkCategoryImport
	work.FilePath = "/ftp/orders.csv"
	require.NoError(t, db.Create(work).Error)

	instance, err := svc.SubmitImportWork(context.Background(), work.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusExecuting, instance.Status)

	var tasks []models.Task
	require.NoError(t, db.Where("work_id = ?", instance.ID).Find(&tasks).Error)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskTypeImport, tasks[0].TaskType)
	assert.Equal(t, models.TaskStatusWaiting, tasks[0].Status)
	assert.Nil(t, tasks[0].StartedAt)
}

func TestSubmitUnknownWork(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.SubmitCommonWork(context.Background(), 9999, "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStartUpTask(t *testing.T) {
	svc, db, executor, _ := newTestService(t)

	instance := &models.CommonWorkInstance{}
	instance.UUID = "w-1"
	instance.Category = models.WorkCategorySparkJar
	instance.MainClass = "com.chuhe.Report"
	require.NoError(t, db.Create(instance).Error)

	task := &models.Task{UUID: "t-1", Name: "report", WorkID: instance.ID, Status: models.TaskStatusWaiting}
	require.NoError(t, db.Create(task).Error)

	got, err := svc.StartUpTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusStarting, got.Status)
	assert.Equal(t, "rs-1", got.ResourceTaskID)
	require.Len(t, executor.submitted, 1)
	assert.Equal(t, "com.chuhe.Report", executor.submitted[0].MainClass)
}

func TestStartUpTaskSubmitFails(t *testing.T) {
	svc, db, executor, _ := newTestService(t)
	executor.submitErr = fmt.Errorf("connection refused")

	instance := &models.CommonWorkInstance{}
	instance.UUID = "w-1"
	require.NoError(t, db.Create(instance).Error)
	task := &models.Task{UUID: "t-1", WorkID: instance.ID, Status: models.TaskStatusWaiting}
	require.NoError(t, db.Create(task).Error)

	_, err := svc.StartUpTask(context.Background(), "t-1")
	require.Error(t, err)

	got, err := repository.NewTaskRegistry(db).GetByUUID("t-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusWaiting, got.Status)
	assert.Empty(t, got.ResourceTaskID)
}

func TestShutDownTask(t *testing.T) {
	svc, db, executor, _ := newTestService(t)

	task := &models.Task{UUID: "t-1", TaskType: models.TaskTypeCommon, Status: models.TaskStatusRunning, ResourceTaskID: "rs-9"}
	require.NoError(t, db.Create(task).Error)

	got, err := svc.ShutDownTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusManualTerminated, got.Status)
	assert.NotNil(t, got.EndedAt)
	assert.Equal(t, []string{"rs-9"}, executor.cancelled)
}

func TestShutDownImportTaskRevokesQueueJob(t *testing.T) {
	svc, db, _, queue := newTestService(t)

	task := &models.Task{UUID: "t-1", TaskType: models.TaskTypeImport, Status: models.TaskStatusStarting, ResourceTaskID: "q-3"}
	require.NoError(t, db.Create(task).Error)

	got, err := svc.ShutDownTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusManualTerminated, got.Status)
	assert.Equal(t, []string{"q-3"}, queue.revoked)
}

func TestShutDownTaskRemoteCancelFailureStillTerminates(t *testing.T) {
	svc, db, executor, _ := newTestService(t)
	executor.cancelErr = fmt.Errorf("gateway timeout")

	task := &models.Task{UUID: "t-1", TaskType: models.TaskTypeCommon, Status: models.TaskStatusRunning, ResourceTaskID: "rs-9"}
	require.NoError(t, db.Create(task).Error)

	got, err := svc.ShutDownTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusManualTerminated, got.Status)
}

func TestShutDownFinishedTaskIsNoop(t *testing.T) {
	svc, db, executor, _ := newTestService(t)

	task := &models.Task{UUID: "t-1", TaskType: models.TaskTypeCommon, Status: models.TaskStatusSucceeded}
	require.NoError(t, db.Create(task).Error)

	got, err := svc.ShutDownTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusSucceeded, got.Status)
	assert.Empty(t, executor.cancelled)
}
