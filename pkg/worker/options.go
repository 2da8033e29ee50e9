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
	"chuhe.io/workservice/pkg/utils"
	"chuhe.io/workservice/pkg/utils/airflow"
	"chuhe.io/workservice/pkg/utils/database"
	"chuhe.io/workservice/pkg/utils/redis"
	"chuhe.io/workservice/pkg/utils/resourceservice"
	"chuhe.io/workservice/pkg/utils/taskqueue"
	"chuhe.io/workservice/pkg/utils/workspace"
	"chuhe.io/workservice/pkg/worker/reconcile"
	"github.com/spf13/pflag"
)

type Options struct {
	Mysql     *database.Options        `json:"mysql"`
	Redis     *redis.Options           `json:"redis"`
	Airflow   *airflow.Options         `json:"airflow"`
	Resource  *resourceservice.Options `json:"resource"`
	Workspace *workspace.Options       `json:"workspace"`
	Queue     *taskqueue.Options       `json:"queue"`
	Reconcile *reconcile.Options       `json:"reconcile"`
	Listen    string                   `json:"listen"`
	LogLevel  string                   `json:"loglevel"`
}

func DefaultOptions() *Options {
	return &Options{
		Mysql:     database.NewDefaultOptions(),
		Redis:     redis.NewDefaultOptions(),
		Airflow:   airflow.NewDefaultOptions(),
		Resource:  resourceservice.NewDefaultOptions(),
		Workspace: workspace.NewDefaultOptions(),
		Queue:     taskqueue.NewDefaultOptions(),
		Reconcile: reconcile.NewDefaultOptions(),
		Listen:    ":8080",
		LogLevel:  "info",
	}
}

func (o *Options) RegistFlags(prefix string, fs *pflag.FlagSet) {
	fs.StringVar(&o.Listen, utils.JoinFlagName(prefix, "listen"), o.Listen, "listen address")
	fs.StringVar(&o.LogLevel, utils.JoinFlagName(prefix, "loglevel"), o.LogLevel, "log level")
	o.Mysql.RegistFlags("mysql", fs)
	o.Redis.RegistFlags("redis", fs)
	o.Airflow.RegistFlags("airflow", fs)
	o.Resource.RegistFlags("resource", fs)
	o.Workspace.RegistFlags("workspace", fs)
	o.Queue.RegistFlags("queue", fs)
	o.Reconcile.RegistFlags("reconcile", fs)
}
