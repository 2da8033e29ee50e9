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
	"chuhe.io/workservice/pkg/utils"
	"chuhe.io/workservice/pkg/utils/airflow"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SyncSchedulerTaskRuns mirrors scheduler runs into task rows. Paused jobs
// the loop expects active are resumed first, then all runs for the tracked
// jobs are fetched in one batch and materialized. Persistence happens in a
// single transaction so a batch is never half visible.
func (r *Reconciler) SyncSchedulerTaskRuns(ctx context.Context) error {
	session := r.session(ctx)
	works := repository.NewWorkRegistry(session)

	instances, err := works.ListDueCommonInstances(r.now())
	if err != nil {
		return errors.Wrap(err, "list due common instances")
	}
	if len(instances) == 0 {
		return nil
	}

	instancesByJob := map[string]*models.CommonWorkInstance{}
	jobIDs := []string{}
	for _, instance := range instances {
		if instance.ScheduleEngineJobID == "" {
			continue
		}
		if _, ok := instancesByJob[instance.ScheduleEngineJobID]; ok {
			continue
		}
		instancesByJob[instance.ScheduleEngineJobID] = instance
		jobIDs = append(jobIDs, instance.ScheduleEngineJobID)
	}
	if len(jobIDs) == 0 {
		return nil
	}

	r.resumePausedJobs(ctx, instancesByJob)

	runs, err := r.scheduler.ListDAGRunsBatch(ctx, jobIDs)
	if err != nil {
		return errors.Wrap(err, "list scheduler runs")
	}
	if len(runs) == 0 {
		return nil
	}

	return session.Transaction(func(tx *gorm.DB) error {
		return r.materializeRuns(tx, instancesByJob, runs)
	})
}

// resumePausedJobs unpauses every tracked job the scheduler reports paused.
// A resume failure is logged and the job is still polled, a paused job that
// produces no runs is indistinguishable from one not yet scheduled.
func (r *Reconciler) resumePausedJobs(ctx context.Context, instancesByJob map[string]*models.CommonWorkInstance) {
	dags, err := r.scheduler.ListDAGs(ctx)
	if err != nil {
		entityErrorsTotal.WithLabelValues(ProcedureSyncSchedulerRuns).Inc()
		r.logger.Error(err, "list scheduler jobs")
		return
	}
	for _, dag := range dags {
		if !dag.IsPaused {
			continue
		}
		if _, tracked := instancesByJob[dag.DAGID]; !tracked {
			continue
		}
		if err := r.scheduler.ResumeDAG(ctx, dag.DAGID); err != nil {
			entityErrorsTotal.WithLabelValues(ProcedureSyncSchedulerRuns).Inc()
			r.logger.Error(err, "resume scheduler job", "job", dag.DAGID)
			continue
		}
		r.logger.Info("resumed paused scheduler job", "job", dag.DAGID)
	}
}

// materializeRuns inserts tasks for newly observed runs and refreshes
// timing and state for all of them. Insertion happens before the state
// refresh so a new task is never visible without a status.
func (r *Reconciler) materializeRuns(tx *gorm.DB, instancesByJob map[string]*models.CommonWorkInstance, runs []airflow.DAGRun) error {
	tasks := repository.NewTaskRegistry(tx)

	keys := make([]string, 0, len(runs))
	for _, run := range runs {
		keys = append(keys, models.AirflowRunKey(run.DAGID, run.DAGRunID))
	}
	existing, err := tasks.ListByResourceTaskIDs(keys)
	if err != nil {
		return errors.Wrap(err, "load tracked tasks")
	}
	byKey := map[string]*models.Task{}
	for _, task := range existing {
		byKey[task.ResourceTaskID] = task
	}

	for _, run := range runs {
		instance, ok := instancesByJob[run.DAGID]
		if !ok {
			continue
		}
		key := models.AirflowRunKey(run.DAGID, run.DAGRunID)
		task, tracked := byKey[key]
		if !tracked {
			task = &models.Task{
				UUID:               uuid.NewString(),
				Name:               instance.Name,
				WorkID:             instance.ID,
				WorkspaceID:        instance.WorkspaceID,
				TaskType:           models.TaskTypeForCategory(instance.Category),
				Status:             models.TaskStatusWaiting,
				ResourceTaskID:     key,
				ScheduleEngineType: models.ScheduleEngineAirflow,
				Nodes:              instance.Nodes,
			}
			if err := tasks.Create(task); err != nil {
				return errors.Wrapf(err, "create task for run %s", key)
			}
			byKey[key] = task
		}

		task.ScheduleEngineStartedAt = utils.TimeZeroToNull(run.StartDate)
		// an absent end date means the run has not ended yet
		task.ScheduleEngineEndedAt = utils.TimeZeroToNull(run.EndDate)

		before := task.Status
		if !task.ApplyEngineState(run.State) {
			r.logger.Info("unknown scheduler run state", "run", key, "state", run.State)
		}
		if task.Status != before {
			transitionsTotal.WithLabelValues(ProcedureSyncSchedulerRuns, string(task.Status)).Inc()
		}
		if err := tasks.Save(task); err != nil {
			return errors.Wrapf(err, "save task for run %s", key)
		}
	}
	return nil
}
