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

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Task is one concrete execution attempt tracked against an external
// executor. ResourceTaskID is the correlation key: the execution service
// task id, the queue job id, or the composite scheduler run key, at most
// one row per distinct value.
type Task struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	UUID        string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Name        string     `gorm:"type:varchar(128)" json:"name"`
	WorkID      uint       `gorm:"index" json:"workID"`
	WorkspaceID uint       `json:"workspaceID"`
	TaskType    TaskType   `gorm:"type:varchar(32);index" json:"taskType"`
	Status      TaskStatus `gorm:"type:varchar(32);default:WAITING" json:"status"`
	IsTemporary bool       `json:"isTemporary"`

	ResourceTaskID string `gorm:"type:varchar(191);index" json:"resourceTaskID"`

	ScheduleEngineType      string     `gorm:"type:varchar(32)" json:"scheduleEngineType"`
	ScheduleEngineStartedAt *time.Time `json:"scheduleEngineStartedAt"`
	ScheduleEngineEndedAt   *time.Time `json:"scheduleEngineEndedAt"`

	// Nodes snapshots the dag layout the run was materialized from, empty
	// for single step tasks.
	Nodes datatypes.JSON `json:"nodes"`

	StartedAt *time.Time `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`

	SubmittedBy string         `gorm:"type:varchar(64)" json:"submittedBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

// apply advances the status and runs the transition's timestamp effects.
// StartedAt is stamped on entering STARTING, EndedAt exactly once on
// entering a terminal state. Re-applying a terminal trigger is a no-op and
// leaves EndedAt untouched.
func (t *Task) apply(trigger Trigger) bool {
	current := t.Status
	if current == "" {
		current = TaskStatusWaiting
	}
	next, ok := taskTransitions.next(current, trigger)
	if !ok {
		return false
	}
	t.Status = next
	now := time.Now()
	if next == TaskStatusStarting && t.StartedAt == nil {
		t.StartedAt = &now
	}
	if next.Terminal() && t.EndedAt == nil {
		t.EndedAt = &now
	}
	return true
}

func (t *Task) ManuallyStart() bool     { return t.apply(TriggerManuallyStart) }
func (t *Task) SystemicallyStart() bool { return t.apply(TriggerSystemicallyStart) }
func (t *Task) Run() bool               { return t.apply(TriggerRun) }
func (t *Task) Succeed() bool           { return t.apply(TriggerSucceed) }
func (t *Task) Fail() bool              { return t.apply(TriggerFail) }

func (t *Task) ManuallyTerminate() bool {
	return t.apply(TriggerManuallyTerminate)
}

func (t *Task) SystemicallyTerminate() bool {
	return t.apply(TriggerSystemicallyTerminate)
}

// ApplyEngineState maps a scheduler reported run state onto local triggers.
// Earlier lifecycle triggers are replayed first so a run first observed in a
// late state still walks the machine forward, already passed stages drop
// out as no-ops. Returns false for states it does not recognize, the caller
// decides whether that is worth a warning.
func (t *Task) ApplyEngineState(state string) bool {
	switch state {
	case "queued":
		return true
	case "running":
		t.SystemicallyStart()
		t.Run()
		return true
	case "success":
		t.SystemicallyStart()
		t.Run()
		t.Succeed()
		return true
	case "failed":
		t.SystemicallyStart()
		t.Fail()
		return true
	default:
		return false
	}
}
