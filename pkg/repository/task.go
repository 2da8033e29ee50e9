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

// Package repository holds the persistence backed registries of works and
// tasks. Registries are cheap to construct and meant to be built per
// procedure invocation from a scoped session, never kept across cycles.
package repository

import (
	"time"

	"chuhe.io/workservice/pkg/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrNotFound wraps gorm's record miss so callers outside the repository
// do not depend on the orm.
var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.WithStack(ErrNotFound)
	}
	return err
}

var terminalTaskStatuses = []models.TaskStatus{
	models.TaskStatusSucceeded,
	models.TaskStatusFailed,
	models.TaskStatusManualTerminated,
	models.TaskStatusSystemTerminated,
}

// TaskRegistry is the only mutator of task rows.
type TaskRegistry struct {
	db *gorm.DB
}

func NewTaskRegistry(db *gorm.DB) *TaskRegistry {
	return &TaskRegistry{db: db}
}

func (r *TaskRegistry) Get(id uint) (*models.Task, error) {
	task := &models.Task{}
	if err := r.db.First(task, id).Error; err != nil {
		return nil, translate(err)
	}
	return task, nil
}

func (r *TaskRegistry) GetByUUID(uuid string) (*models.Task, error) {
	task := &models.Task{}
	if err := r.db.First(task, "uuid = ?", uuid).Error; err != nil {
		return nil, translate(err)
	}
	return task, nil
}

func (r *TaskRegistry) GetByResourceTaskID(resourceTaskID string) (*models.Task, error) {
	task := &models.Task{}
	if err := r.db.First(task, "resource_task_id = ?", resourceTaskID).Error; err != nil {
		return nil, translate(err)
	}
	return task, nil
}

// ListUnstartedImports returns durable import tasks the loop has not
// handed to the queue yet. Temporary tasks are excluded, they are driven
// manually and never polled afterwards.
func (r *TaskRegistry) ListUnstartedImports() ([]*models.Task, error) {
	tasks := []*models.Task{}
	err := r.db.
		Where("task_type = ?", models.TaskTypeImport).
		Where("is_temporary = ?", false).
		Where("started_at IS NULL").
		Where("status NOT IN ?", terminalTaskStatuses).
		Find(&tasks).Error
	return tasks, err
}

// ListStartedImports returns durable import tasks already handed to the
// queue whose outcome is still open.
func (r *TaskRegistry) ListStartedImports(now time.Time) ([]*models.Task, error) {
	tasks := []*models.Task{}
	err := r.db.
		Where("task_type = ?", models.TaskTypeImport).
		Where("is_temporary = ?", false).
		Where("status NOT IN ?", terminalTaskStatuses).
		Where("started_at IS NOT NULL AND started_at <= ?", now).
		Where("ended_at IS NULL").
		Find(&tasks).Error
	return tasks, err
}

// CountUnfinished reports how many tasks of a work instance are still in a
// non terminal state.
func (r *TaskRegistry) CountUnfinished(workID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("work_id = ?", workID).
		Where("status NOT IN ?", terminalTaskStatuses).
		Count(&count).Error
	return count, err
}

// ListByResourceTaskIDs loads the tasks already materialized for the given
// correlation keys, used to deduplicate externally observed runs.
func (r *TaskRegistry) ListByResourceTaskIDs(ids []string) ([]*models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tasks := []*models.Task{}
	err := r.db.Where("resource_task_id IN ?", ids).Find(&tasks).Error
	return tasks, err
}

func (r *TaskRegistry) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

func (r *TaskRegistry) Save(task *models.Task) error {
	return r.db.Save(task).Error
}
