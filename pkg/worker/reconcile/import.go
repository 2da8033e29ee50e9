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

package reconcile

import (
	"context"

	"chuhe.io/workservice/pkg/models"
	"chuhe.io/workservice/pkg/repository"
	"chuhe.io/workservice/pkg/utils/taskqueue"
	"github.com/pkg/errors"
)

// StartImportTasks hands not yet started import tasks to the task queue.
// A task whose source data is not ready yet is skipped for this cycle, a
// task whose prerequisites are gone is failed outright. Per entity errors
// never abort the remaining batch.
func (r *Reconciler) StartImportTasks(ctx context.Context) error {
	session := r.session(ctx)
	tasks := repository.NewTaskRegistry(session)
	works := repository.NewWorkRegistry(session)

	unstarted, err := tasks.ListUnstartedImports()
	if err != nil {
		return errors.Wrap(err, "list unstarted import tasks")
	}
	for _, task := range unstarted {
		if err := r.startImportTask(ctx, tasks, works, task); err != nil {
			entityErrorsTotal.WithLabelValues(ProcedureStartImportTasks).Inc()
			r.logger.Error(err, "start import task", "task", task.UUID)
		}
	}
	return nil
}

func (r *Reconciler) startImportTask(ctx context.Context, tasks *repository.TaskRegistry, works *repository.WorkRegistry, task *models.Task) error {
	instance, err := works.GetImportInstance(task.WorkID)
	if errors.Is(err, repository.ErrNotFound) {
		// the owning work is gone, nothing can ever start this task
		r.failTask(ProcedureStartImportTasks, tasks, task, "owning import work instance missing")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "load import work instance")
	}

	ready, err := r.importDataReady(instance)
	if err != nil {
		r.failTask(ProcedureStartImportTasks, tasks, task, err.Error())
		return nil
	}
	if !ready {
		if r.now().Sub(task.CreatedAt) > r.options.DataReadyMaxAge {
			r.failTask(ProcedureStartImportTasks, tasks, task, "source file never became ready")
			return nil
		}
		r.logger.V(1).Info("import source not ready, retrying next cycle",
			"task", task.UUID, "file", instance.FilePath)
		return nil
	}

	warehouse, err := r.warehouse.GetWarehouseInfo(ctx, instance.WorkspaceID)
	if err != nil {
		return errors.Wrap(err, "resolve warehouse")
	}
	queueID, err := r.queue.SubmitImport(taskqueue.ImportJob{
		FilePath:      instance.FilePath,
		WarehouseHost: warehouse.Host,
		Database:      instance.DatabaseName,
		Table:         instance.Table,
		TableInfo:     string(instance.TableInfo),
		WriteType:     string(instance.WriteType),
	})
	if err != nil {
		return errors.Wrap(err, "submit import job")
	}

	task.ResourceTaskID = queueID
	task.SystemicallyStart()
	transitionsTotal.WithLabelValues(ProcedureStartImportTasks, string(task.Status)).Inc()
	if err := tasks.Save(task); err != nil {
		return errors.Wrap(err, "save task")
	}
	r.logger.Info("import task handed to queue", "task", task.UUID, "queueJob", queueID)
	return nil
}

// importDataReady checks the source artifact. A missing file or an FTP
// source recorded with size zero is a hard error, an FTP file whose on
// disk size does not match the recorded one is still being transferred
// and counts as not ready.
func (r *Reconciler) importDataReady(instance *models.ImportWorkInstance) (bool, error) {
	size, err := r.statSize(instance.FilePath)
	if err != nil {
		return false, errors.Wrapf(err, "source file %s missing", instance.FilePath)
	}
	if instance.FileSource == models.FileSourceFTP {
		if instance.FileSize == 0 {
			return false, errors.Errorf("ftp source %s recorded with size 0", instance.FilePath)
		}
		if size != instance.FileSize {
			return false, nil
		}
	}
	return true, nil
}

// SyncQueueTaskState polls the task queue for open import tasks and applies
// the matching transitions. A task whose owning work instance is gone, one
// without a queue id, or one stuck longer than the staleness threshold, is
// failed.
func (r *Reconciler) SyncQueueTaskState(ctx context.Context) error {
	session := r.session(ctx)
	tasks := repository.NewTaskRegistry(session)
	works := repository.NewWorkRegistry(session)

	now := r.now()
	started, err := tasks.ListStartedImports(now)
	if err != nil {
		return errors.Wrap(err, "list started import tasks")
	}
	for _, task := range started {
		if err := r.syncQueueTask(tasks, works, task); err != nil {
			entityErrorsTotal.WithLabelValues(ProcedureSyncQueueTaskState).Inc()
			r.logger.Error(err, "sync queue task", "task", task.UUID)
		}
	}
	return nil
}

func (r *Reconciler) syncQueueTask(tasks *repository.TaskRegistry, works *repository.WorkRegistry, task *models.Task) error {
	if _, err := works.GetImportInstance(task.WorkID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.failTask(ProcedureSyncQueueTaskState, tasks, task, "owning import work instance missing")
			return nil
		}
		return errors.Wrap(err, "load import work instance")
	}
	if task.ResourceTaskID == "" || r.now().Sub(*task.StartedAt) > r.options.QueueStaleAfter {
		r.failTask(ProcedureSyncQueueTaskState, tasks, task, "import task abandoned by queue")
		return nil
	}
	state, err := r.queue.Status(task.ResourceTaskID)
	if err != nil {
		return errors.Wrap(err, "query queue status")
	}

	before := task.Status
	switch state {
	case taskqueue.JobStatePending:
		task.SystemicallyStart()
	case taskqueue.JobStateStarted:
		task.Run()
	case taskqueue.JobStateSuccess:
		task.Run()
		task.Succeed()
	case taskqueue.JobStateFailure:
		task.Fail()
	default:
		r.logger.Info("unknown queue state, leaving task untouched",
			"task", task.UUID, "state", string(state))
		return nil
	}
	if task.Status == before {
		return nil
	}
	transitionsTotal.WithLabelValues(ProcedureSyncQueueTaskState, string(task.Status)).Inc()
	return tasks.Save(task)
}

// SyncImportWorkState finishes import work instances with no live tasks
// left and keeps the rest marked executing.
func (r *Reconciler) SyncImportWorkState(ctx context.Context) error {
	session := r.session(ctx)
	tasks := repository.NewTaskRegistry(session)
	works := repository.NewWorkRegistry(session)

	instances, err := works.ListUnfinishedImportInstances()
	if err != nil {
		return errors.Wrap(err, "list unfinished import instances")
	}
	for _, instance := range instances {
		if err := r.syncImportInstance(tasks, works, instance); err != nil {
			entityErrorsTotal.WithLabelValues(ProcedureSyncImportWorkState).Inc()
			r.logger.Error(err, "sync import work instance", "instance", instance.UUID)
		}
	}
	return nil
}

func (r *Reconciler) syncImportInstance(tasks *repository.TaskRegistry, works *repository.WorkRegistry, instance *models.ImportWorkInstance) error {
	unfinished, err := tasks.CountUnfinished(instance.ID)
	if err != nil {
		return errors.Wrap(err, "count unfinished tasks")
	}
	before := instance.Status
	if unfinished == 0 {
		instance.Finish()
	} else {
		instance.Execute()
	}
	if instance.Status == before {
		return nil
	}
	transitionsTotal.WithLabelValues(ProcedureSyncImportWorkState, string(instance.Status)).Inc()
	return works.SaveImportInstance(instance)
}

func (r *Reconciler) failTask(procedure string, tasks *repository.TaskRegistry, task *models.Task, reason string) {
	if !task.Fail() {
		return
	}
	transitionsTotal.WithLabelValues(procedure, string(task.Status)).Inc()
	if err := tasks.Save(task); err != nil {
		r.logger.Error(err, "save failed task", "task", task.UUID)
		return
	}
	r.logger.Info("import task failed", "task", task.UUID, "reason", reason)
}
