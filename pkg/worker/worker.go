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

// Package worker assembles and runs the reconciliation worker process.
package worker

import (
	"context"
	"net/http"
	"strings"

	"chuhe.io/workservice/pkg/log"
	"chuhe.io/workservice/pkg/services/works"
	"chuhe.io/workservice/pkg/utils/airflow"
	"chuhe.io/workservice/pkg/utils/database"
	"chuhe.io/workservice/pkg/utils/pprof"
	"chuhe.io/workservice/pkg/utils/redis"
	"chuhe.io/workservice/pkg/utils/resourceservice"
	"chuhe.io/workservice/pkg/utils/system"
	"chuhe.io/workservice/pkg/utils/taskqueue"
	"chuhe.io/workservice/pkg/utils/workspace"
	"chuhe.io/workservice/pkg/worker/reconcile"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type Dependencies struct {
	Redis     *redis.Client
	Database  *database.Database
	Scheduler *airflow.Client
	Executor  *resourceservice.Client
	Workspace *workspace.Client
	Queue     *taskqueue.Client
	Logger    logr.Logger
}

func prepareDependencies(ctx context.Context, options *Options) (*Dependencies, error) {
	log.SetLevel(options.LogLevel)

	rediscli, err := redis.NewClient(options.Redis)
	if err != nil {
		return nil, err
	}
	databasecli, err := database.NewDatabase(options.Mysql)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(databasecli.DB()); err != nil {
		return nil, err
	}
	return &Dependencies{
		Redis:     rediscli,
		Database:  databasecli,
		Scheduler: airflow.NewClient(options.Airflow),
		Executor:  resourceservice.NewClient(options.Resource),
		Workspace: workspace.NewClient(options.Workspace),
		Queue:     taskqueue.NewClient(options.Redis, options.Queue),
	}, nil
}

func Run(ctx context.Context, options *Options) error {
	ctx = logr.NewContext(ctx, log.LogrLogger)
	deps, err := prepareDependencies(ctx, options)
	if err != nil {
		return err
	}

	reconciler := reconcile.NewReconciler(
		deps.Database.DB(),
		deps.Scheduler,
		deps.Queue,
		deps.Workspace,
		options.Reconcile,
	)

	service := works.NewService(deps.Database.DB(), deps.Executor, deps.Queue)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	// procedures stay invokable on demand, the timer normally drives them
	mux.HandleFunc("/reconcile/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/reconcile/")
		if err := reconciler.RunProcedure(r.Context(), name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Write([]byte("ok"))
	})
	registerWorkRoutes(mux, service)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return pprof.Run(ctx)
	})
	eg.Go(func() error {
		return system.ListenAndServeContext(ctx, options.Listen, mux)
	})
	eg.Go(func() error {
		return reconciler.Run(ctx)
	})
	return eg.Wait()
}
