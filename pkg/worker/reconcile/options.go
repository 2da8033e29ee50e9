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
	"time"

	"chuhe.io/workservice/pkg/utils"
	"github.com/spf13/pflag"
)

type Options struct {
	StartImportInterval    time.Duration `json:"startImportInterval" description:"interval between import start cycles"`
	SyncQueueInterval      time.Duration `json:"syncQueueInterval" description:"interval between queue state sync cycles"`
	SyncImportWorkInterval time.Duration `json:"syncImportWorkInterval" description:"interval between import work state sync cycles"`
	SyncSchedulerInterval  time.Duration `json:"syncSchedulerInterval" description:"interval between scheduler run sync cycles"`
	QueueStaleAfter        time.Duration `json:"queueStaleAfter" description:"age after which a started import task with no outcome is failed"`
	DataReadyMaxAge        time.Duration `json:"dataReadyMaxAge" description:"age after which an import task still waiting on its source file is failed"`
}

func NewDefaultOptions() *Options {
	return &Options{
		StartImportInterval:    30 * time.Second,
		SyncQueueInterval:      30 * time.Second,
		SyncImportWorkInterval: 30 * time.Second,
		SyncSchedulerInterval:  30 * time.Second,
		QueueStaleAfter:        24 * time.Hour,
		DataReadyMaxAge:        24 * time.Hour,
	}
}

func (o *Options) RegistFlags(prefix string, fs *pflag.FlagSet) {
	fs.DurationVar(&o.StartImportInterval, utils.JoinFlagName(prefix, "startimportinterval"), o.StartImportInterval, "interval between import start cycles")
	fs.DurationVar(&o.SyncQueueInterval, utils.JoinFlagName(prefix, "syncqueueinterval"), o.SyncQueueInterval, "interval between queue state sync cycles")
	fs.DurationVar(&o.SyncImportWorkInterval, utils.JoinFlagName(prefix, "syncimportworkinterval"), o.SyncImportWorkInterval, "interval between import work state sync cycles")
	fs.DurationVar(&o.SyncSchedulerInterval, utils.JoinFlagName(prefix, "syncschedulerinterval"), o.SyncSchedulerInterval, "interval between scheduler run sync cycles")
	fs.DurationVar(&o.QueueStaleAfter, utils.JoinFlagName(prefix, "queuestaleafter"), o.QueueStaleAfter, "age after which a started import task with no outcome is failed")
	fs.DurationVar(&o.DataReadyMaxAge, utils.JoinFlagName(prefix, "datareadymaxage"), o.DataReadyMaxAge, "age after which an import task still waiting on its source file is failed")
}
