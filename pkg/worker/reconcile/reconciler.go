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

// Package reconcile keeps locally tracked work and task state consistent
// with the external executors. Four periodic procedures each own a disjoint
// slice of the task table and walk it against the remote source of truth.
package reconcile

import (
	"context"
	"os"
	"time"

	"chuhe.io/workservice/pkg/log"
	"chuhe.io/workservice/pkg/utils/airflow"
	"chuhe.io/workservice/pkg/utils/taskqueue"
	"chuhe.io/workservice/pkg/utils/workspace"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SchedulerGateway is the slice of the dag scheduler api the loop needs.
type SchedulerGateway interface {
	ListDAGs(ctx context.Context) ([]airflow.DAG, error)
	ResumeDAG(ctx context.Context, dagID string) error
	ListDAGRunsBatch(ctx context.Context, dagIDs []string) ([]airflow.DAGRun, error)
}

// QueueGateway submits import jobs and reports their queue side state.
type QueueGateway interface {
	SubmitImport(job taskqueue.ImportJob) (string, error)
	Status(id string) (taskqueue.JobState, error)
}

// WarehouseGateway resolves where an import job loads its data.
type WarehouseGateway interface {
	GetWarehouseInfo(ctx context.Context, workspaceID uint) (*workspace.Warehouse, error)
}

type Reconciler struct {
	db        *gorm.DB
	scheduler SchedulerGateway
	queue     QueueGateway
	warehouse WarehouseGateway
	options   *Options
	logger    logr.Logger

	// statSize is swapped in tests, production uses the local filesystem.
	statSize func(path string) (int64, error)

	// now is swapped in tests to pin staleness cutoffs.
	now func() time.Time
}

func NewReconciler(db *gorm.DB, scheduler SchedulerGateway, queue QueueGateway, warehouse WarehouseGateway, options *Options) *Reconciler {
	return &Reconciler{
		db:        db,
		scheduler: scheduler,
		queue:     queue,
		warehouse: warehouse,
		options:   options,
		logger:    log.WithName("reconcile"),
		statSize: func(path string) (int64, error) {
			info, err := os.Stat(path)
			if err != nil {
				return 0, err
			}
			return info.Size(), nil
		},
		now: time.Now,
	}
}

var ErrUnknownProcedure = errors.New("unknown procedure")

// Procedure names, used for on demand triggering and metric labels.
const (
	ProcedureStartImportTasks    = "start-import-tasks"
	ProcedureSyncQueueTaskState  = "sync-queue-task-state"
	ProcedureSyncImportWorkState = "sync-import-work-state"
	ProcedureSyncSchedulerRuns   = "sync-scheduler-task-runs"
)

// RunProcedure triggers one procedure by name, on demand.
func (r *Reconciler) RunProcedure(ctx context.Context, name string) error {
	switch name {
	case ProcedureStartImportTasks:
		return r.StartImportTasks(ctx)
	case ProcedureSyncQueueTaskState:
		return r.SyncQueueTaskState(ctx)
	case ProcedureSyncImportWorkState:
		return r.SyncImportWorkState(ctx)
	case ProcedureSyncSchedulerRuns:
		return r.SyncSchedulerTaskRuns(ctx)
	default:
		return ErrUnknownProcedure
	}
}

// Run schedules the four procedures on their own timers and blocks until the
// context is cancelled. A procedure whose previous invocation is still
// running is skipped, never overlapped, overlapping would double submit
// externally visible work.
func (r *Reconciler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	schedule := func(name string, interval time.Duration, procedure func(context.Context) error) error {
		_, err := c.AddFunc("@every "+interval.String(), func() {
			r.invoke(ctx, name, procedure)
		})
		return err
	}
	if err := schedule(ProcedureStartImportTasks, r.options.StartImportInterval, r.StartImportTasks); err != nil {
		return err
	}
	if err := schedule(ProcedureSyncQueueTaskState, r.options.SyncQueueInterval, r.SyncQueueTaskState); err != nil {
		return err
	}
	if err := schedule(ProcedureSyncImportWorkState, r.options.SyncImportWorkInterval, r.SyncImportWorkState); err != nil {
		return err
	}
	if err := schedule(ProcedureSyncSchedulerRuns, r.options.SyncSchedulerInterval, r.SyncSchedulerTaskRuns); err != nil {
		return err
	}
	c.Start()
	r.logger.Info("reconciliation loop started",
		"start-import-interval", r.options.StartImportInterval.String(),
		"sync-queue-interval", r.options.SyncQueueInterval.String(),
		"sync-import-work-interval", r.options.SyncImportWorkInterval.String(),
		"sync-scheduler-interval", r.options.SyncSchedulerInterval.String(),
	)
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return ctx.Err()
}

// invoke wraps a procedure run with panic recovery and metrics. The loop
// must outlive any single bad cycle.
func (r *Reconciler) invoke(ctx context.Context, name string, procedure func(context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			cyclesTotal.WithLabelValues(name, "panic").Inc()
			r.logger.Error(nil, "procedure panicked", "procedure", name, "panic", rec)
		}
	}()
	start := time.Now()
	err := procedure(ctx)
	cycleDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		cyclesTotal.WithLabelValues(name, "error").Inc()
		r.logger.Error(err, "procedure failed", "procedure", name)
		return
	}
	cyclesTotal.WithLabelValues(name, "ok").Inc()
}

// session returns the scoped database handle a single procedure invocation
// works on. Nothing is cached across cycles.
func (r *Reconciler) session(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}
