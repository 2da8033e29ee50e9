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
	"github.com/pkg/errors"
)

// SubmitCommonWork snapshots a SQL/SPARK_JAR/DAG template into a fresh
// instance and marks it executing. The instance uuid doubles as the
// scheduler job id the reconcile loop tracks runs under.
func (s *Service) SubmitCommonWork(ctx context.Context, workID uint, submittedBy string) (*models.CommonWorkInstance, error) {
	works := repository.NewWorkRegistry(s.db.WithContext(ctx))

	work, err := works.GetCommonWork(workID)
	if err != nil {
		return nil, errors.Wrapf(err, "load work %d", workID)
	}
	id := newUUID()
	instance := work.InstanceOf(id, id, submittedBy)
	instance.Execute()
	if err := works.CreateCommonInstance(instance); err != nil {
		return nil, errors.Wrap(err, "create work instance")
	}
	s.logger.Info("common work submitted", "work", workID, "instance", instance.UUID)
	return instance, nil
}

// SubmitImportWork snapshots an import template and creates the WAITING
// task the reconcile loop will pick up once the source data is ready. An
// instance scheduled for the future stays WAITING until its start time.
func (s *Service) SubmitImportWork(ctx context.Context, workID uint, submittedBy string) (*models.ImportWorkInstance, error) {
	session := s.db.WithContext(ctx)
	works := repository.NewWorkRegistry(session)
	tasks := repository.NewTaskRegistry(session)

	work, err := works.GetImportWork(workID)
	if err != nil {
		return nil, errors.Wrapf(err, "load import work %d", workID)
	}
	instance := work.InstanceOf(newUUID(), submittedBy)
	instance.Execute()
	if err := works.CreateImportInstance(instance); err != nil {
		return nil, errors.Wrap(err, "create import work instance")
	}
	task := &models.Task{
		UUID:        newUUID(),
		Name:        instance.Name,
		WorkID:      instance.ID,
		WorkspaceID: instance.WorkspaceID,
		TaskType:    models.TaskTypeImport,
		Status:      models.TaskStatusWaiting,
		SubmittedBy: submittedBy,
	}
	if err := tasks.Create(task); err != nil {
		return nil, errors.Wrap(err, "create import task")
	}
	s.logger.Info("import work submitted", "work", workID, "instance", instance.UUID, "task", task.UUID)
	return instance, nil
}
