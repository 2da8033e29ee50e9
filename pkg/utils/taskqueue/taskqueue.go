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

// Package taskqueue enqueues import jobs on the redis backed task queue and
// tracks their lifecycle through the queue inspector.
package taskqueue

import (
	"encoding/json"
	"fmt"

	"chuhe.io/workservice/pkg/utils"
	"chuhe.io/workservice/pkg/utils/redis"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const TypeImportCSV = "import:csv"

// JobState is the queue side lifecycle of an import job. States of unknown
// origin pass through unchanged so callers can at least log them.
type JobState string

const (
	JobStatePending JobState = "PENDING"
	JobStateStarted JobState = "STARTED"
	JobStateSuccess JobState = "SUCCESS"
	JobStateFailure JobState = "FAILURE"
)

func (s JobState) Finished() bool {
	return s == JobStateSuccess || s == JobStateFailure
}

type Options struct {
	Queue       string `json:"queue" description:"queue name import jobs are enqueued on"`
	MaxRetry    int    `json:"maxRetry" description:"max retry count per job"`
	Concurrency int    `json:"concurrency" description:"reserved worker concurrency, informational for ops"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Queue:       "imports",
		MaxRetry:    0,
		Concurrency: 4,
	}
}

func (o *Options) RegistFlags(prefix string, fs *pflag.FlagSet) {
	fs.StringVar(&o.Queue, utils.JoinFlagName(prefix, "queue"), o.Queue, "queue name import jobs are enqueued on")
	fs.IntVar(&o.MaxRetry, utils.JoinFlagName(prefix, "maxretry"), o.MaxRetry, "max retry count per job")
	fs.IntVar(&o.Concurrency, utils.JoinFlagName(prefix, "concurrency"), o.Concurrency, "reserved worker concurrency")
}

// ImportJob is the payload handed to the import worker over the queue.
type ImportJob struct {
	FilePath      string `json:"file_path"`
	WarehouseHost string `json:"warehouse_host"`
	Database      string `json:"database"`
	Table         string `json:"table"`
	TableInfo     string `json:"table_info,omitempty"`
	WriteType     string `json:"write_type,omitempty"`
}

type Client struct {
	queue     string
	maxRetry  int
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewClient(redisOptions *redis.Options, options *Options) *Client {
	opt := asynq.RedisClientOpt{
		Addr:     redisOptions.Addr,
		Password: redisOptions.Password,
		DB:       redisOptions.DB,
	}
	return &Client{
		queue:     options.Queue,
		maxRetry:  options.MaxRetry,
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

// SubmitImport enqueues the job and returns the queue side task id.
func (c *Client) SubmitImport(job ImportJob) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", errors.Wrap(err, "marshal import job")
	}
	info, err := c.client.Enqueue(
		asynq.NewTask(TypeImportCSV, payload),
		asynq.Queue(c.queue),
		asynq.MaxRetry(c.maxRetry),
	)
	if err != nil {
		return "", errors.Wrap(err, "enqueue import job")
	}
	return info.ID, nil
}

// Status reports the lifecycle state of a previously submitted job.
func (c *Client) Status(id string) (JobState, error) {
	info, err := c.inspector.GetTaskInfo(c.queue, id)
	if err != nil {
		return "", errors.Wrapf(err, "inspect import job %s", id)
	}
	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateRetry:
		return JobStatePending, nil
	case asynq.TaskStateActive:
		return JobStateStarted, nil
	case asynq.TaskStateCompleted:
		return JobStateSuccess, nil
	case asynq.TaskStateArchived:
		return JobStateFailure, nil
	default:
		return JobState(info.State.String()), nil
	}
}

// Revoke takes a job off the queue. An active job is cancelled first, then
// the pending record is deleted if one still exists.
func (c *Client) Revoke(id string) error {
	if err := c.inspector.CancelProcessing(id); err != nil {
		return errors.Wrapf(err, "cancel import job %s", id)
	}
	if err := c.inspector.DeleteTask(c.queue, id); err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil
		}
		return fmt.Errorf("delete import job %s: %w", id, err)
	}
	return nil
}

func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return err
	}
	return c.inspector.Close()
}
