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

	"chuhe.io/workservice/pkg/models"
	"chuhe.io/workservice/pkg/repository"
	"chuhe.io/workservice/pkg/utils/resourceservice"
	"github.com/pkg/errors"
)

// StartUpTask submits a waiting task to the resource execution service and
// records the returned execution id. Submission failure leaves the task
// WAITING, the caller may retry.
func (s *Service) StartUpTask(ctx context.Context, taskUUID string) (*models.Task, error) {
	session := s.db.WithContext(ctx)
	tasks := repository.NewTaskRegistry(session)
	works := repository.NewWorkRegistry(session)

	task, err := tasks.GetByUUID(taskUUID)
	if err != nil {
		return nil, errors.Wrapf(err, "load task %s", taskUUID)
	}
	if task.Status != models.TaskStatusWaiting && task.Status != "" {
		return task, nil
	}
	instance, err := works.GetCommonInstance(task.WorkID)
	if err != nil {
		return nil, errors.Wrapf(err, "load work instance %d", task.WorkID)
	}

	resourceTaskID, err := s.executor.SubmitTask(ctx, resourceservice.TaskSpec{
		WorkspaceID:    instance.WorkspaceID,
		WorkID:         instance.ID,
		TaskID:         task.UUID,
		Name:           task.Name,
		WorkDirectory:  instance.WorkDirectory,
		MainClass:      instance.MainClass,
		ExtraParams:    instance.ExtraParams,
		JavaVersion:    instance.JavaVersion,
		Category:       string(instance.Category),
		ExecutableFile: instance.ExecutableFile,
		SQL:            instance.SQL,
		SubmittedBy:    task.SubmittedBy,
	})
	if err != nil {
		return nil, errors.Wrap(err, "submit to resource service")
	}
	task.ResourceTaskID = resourceTaskID
	task.ManuallyStart()
	if err := tasks.Save(task); err != nil {
		return nil, errors.Wrap(err, "save task")
	}
	s.logger.Info("task started", "task", task.UUID, "resourceTask", resourceTaskID)
	return task, nil
}

// ShutDownTask cancels a task's remote execution and terminates it locally.
// Local state follows operator intent even when the remote cancel fails,
// the terminal status blocks any stale running report from regressing it.
func (s *Service) ShutDownTask(ctx context.Context, taskUUID string) (*models.Task, error) {
	tasks := repository.NewTaskRegistry(s.db.WithContext(ctx))

	task, err := tasks.GetByUUID(taskUUID)
	if err != nil {
		return nil, errors.Wrapf(err, "load task %s", taskUUID)
	}
	if task.ResourceTaskID != "" {
		if task.TaskType == models.TaskTypeImport {
			if err := s.queue.Revoke(task.ResourceTaskID); err != nil {
				s.logger.Error(err, "revoke queue job", "task", task.UUID, "queueJob", task.ResourceTaskID)
			}
		} else {
			if err := s.executor.CancelTask(ctx, task.ResourceTaskID); err != nil {
				s.logger.Error(err, "cancel remote execution", "task", task.UUID, "resourceTask", task.ResourceTaskID)
			}
		}
	}
	if task.ManuallyTerminate() {
		if err := tasks.Save(task); err != nil {
			return nil, errors.Wrap(err, "save task")
		}
		s.logger.Info("task terminated", "task", task.UUID)
	}
	return task, nil
}
