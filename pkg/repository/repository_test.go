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

package repository

import (
	"testing"
	"time"

	"chuhe.io/workservice/pkg/models"
	"chuhe.io/workservice/pkg/utils/database"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestTaskRegistryGet(t *testing.T) {
	db := newTestDB(t)
	reg := NewTaskRegistry(db)

	task := &models.Task{UUID: "t-1", Name: "import orders", TaskType: models.TaskTypeImport}
	require.NoError(t, reg.Create(task))

	got, err := reg.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "t-1", got.UUID)
	// default status column applies on create
	assert.Equal(t, models.TaskStatusWaiting, got.Status)

	_, err = reg.Get(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListUnstartedImports(t *testing.T) {
	db := newTestDB(t)
	reg := NewTaskRegistry(db)
	now := time.Now()

	unstarted := &models.Task{UUID: "t-1", TaskType: models.TaskTypeImport, Status: models.TaskStatusWaiting}
	started := &models.Task{UUID: "t-2", TaskType: models.TaskTypeImport, Status: models.TaskStatusStarting, StartedAt: &now}
	common := &models.Task{UUID: "t-3", TaskType: models.TaskTypeCommon, Status: models.TaskStatusWaiting}
	failed := &models.Task{UUID: "t-4", TaskType: models.TaskTypeImport, Status: models.TaskStatusFailed}
	temporary := &models.Task{UUID: "t-5", TaskType: models.TaskTypeImport, IsTemporary: true, Status: models.TaskStatusWaiting}
	for _, task := range []*models.Task{unstarted, started, common, failed, temporary} {
		require.NoError(t, reg.Create(task))
	}

	tasks, err := reg.ListUnstartedImports()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t-1", tasks[0].UUID)
}

func TestListStartedImports(t *testing.T) {
	db := newTestDB(t)
	reg := NewTaskRegistry(db)
	past := time.Now().Add(-time.Hour)
	ended := time.Now()

	open := &models.Task{UUID: "t-1", TaskType: models.TaskTypeImport, Status: models.TaskStatusStarting, StartedAt: &past}
	temporary := &models.Task{UUID: "t-2", TaskType: models.TaskTypeImport, IsTemporary: true, Status: models.TaskStatusStarting, StartedAt: &past}
	done := &models.Task{UUID: "t-3", TaskType: models.TaskTypeImport, Status: models.TaskStatusSucceeded, StartedAt: &past, EndedAt: &ended}
	for _, task := range []*models.Task{open, temporary, done} {
		require.NoError(t, reg.Create(task))
	}

	tasks, err := reg.ListStartedImports(time.Now())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t-1", tasks[0].UUID)
}

func TestCountUnfinished(t *testing.T) {
	db := newTestDB(t)
	reg := NewTaskRegistry(db)

	require.NoError(t, reg.Create(&models.Task{UUID: "t-1", WorkID: 5, Status: models.TaskStatusRunning}))
	require.NoError(t, reg.Create(&models.Task{UUID: "t-2", WorkID: 5, Status: models.TaskStatusSucceeded}))
	require.NoError(t, reg.Create(&models.Task{UUID: "t-3", WorkID: 6, Status: models.TaskStatusWaiting}))

	count, err := reg.CountUnfinished(5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListByResourceTaskIDs(t *testing.T) {
	db := newTestDB(t)
	reg := NewTaskRegistry(db)

	key := models.AirflowRunKey("dag-1", "run-1")
	require.NoError(t, reg.Create(&models.Task{UUID: "t-1", ResourceTaskID: key}))

	tasks, err := reg.ListByResourceTaskIDs([]string{key, models.AirflowRunKey("dag-1", "run-2")})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, key, tasks[0].ResourceTaskID)

	tasks, err = reg.ListByResourceTaskIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestWorkRegistryInstances(t *testing.T) {
	db := newTestDB(t)
	reg := NewWorkRegistry(db)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	due := &models.CommonWorkInstance{}
	due.UUID = "w-1"
	due.Status = models.WorkStatusWaiting
	due.StartTime = &past

	notDue := &models.CommonWorkInstance{}
	notDue.UUID = "w-2"
	notDue.Status = models.WorkStatusWaiting
	notDue.StartTime = &future

	finished := &models.CommonWorkInstance{}
	finished.UUID = "w-3"
	finished.Status = models.WorkStatusFinished

	for _, instance := range []*models.CommonWorkInstance{due, notDue, finished} {
		require.NoError(t, reg.CreateCommonInstance(instance))
	}

	instances, err := reg.ListDueCommonInstances(time.Now())
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "w-1", instances[0].UUID)
}

func TestListUnfinishedImportInstances(t *testing.T) {
	db := newTestDB(t)
	reg := NewWorkRegistry(db)

	open := &models.ImportWorkInstance{}
	open.UUID = "i-1"
	open.Status = models.WorkStatusExecuting

	finished := &models.ImportWorkInstance{}
	finished.UUID = "i-2"
	finished.Status = models.WorkStatusFinished

	require.NoError(t, reg.CreateImportInstance(open))
	require.NoError(t, reg.CreateImportInstance(finished))

	instances, err := reg.ListUnfinishedImportInstances()
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "i-1", instances[0].UUID)
}

func TestSoftDeleteHidesRows(t *testing.T) {
	db := newTestDB(t)
	reg := NewTaskRegistry(db)

	task := &models.Task{UUID: "t-1"}
	require.NoError(t, reg.Create(task))
	require.NoError(t, db.Delete(task).Error)

	_, err := reg.Get(task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// the row is still physically present behind the deletion timestamp
	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Task{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
