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

// Package works implements the operator facing work and task actions:
// submitting a work for execution and manually starting or stopping a task.
// Everything else about a task's lifecycle belongs to the reconcile loop.
package works

import (
	"context"

	"chuhe.io/workservice/pkg/log"
	"chuhe.io/workservice/pkg/utils/resourceservice"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExecutorGateway is the slice of the resource execution service the manual
// actions need.
type ExecutorGateway interface {
	SubmitTask(ctx context.Context, spec resourceservice.TaskSpec) (string, error)
	CancelTask(ctx context.Context, taskID string) error
}

// QueueGateway revokes queued import jobs.
type QueueGateway interface {
	Revoke(id string) error
}

type Service struct {
	db       *gorm.DB
	executor ExecutorGateway
	queue    QueueGateway
	logger   logr.Logger
}

func NewService(db *gorm.DB, executor ExecutorGateway, queue QueueGateway) *Service {
	return &Service{
		db:       db,
		executor: executor,
		queue:    queue,
		logger:   log.WithName("works"),
	}
}

func newUUID() string {
	return uuid.NewString()
}
