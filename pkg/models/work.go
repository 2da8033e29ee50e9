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

// WorkBase carries the identity, lifecycle and scheduling metadata every
// work entity shares. Rows are soft deleted only.
type WorkBase struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	UUID            string          `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Name            string          `gorm:"type:varchar(128)" json:"name"`
	WorkspaceID     uint            `gorm:"index" json:"workspaceID"`
	UserID          uint            `json:"userID"`
	Status          WorkStatus      `gorm:"type:varchar(32);default:WAITING" json:"status"`
	Category        WorkCategory    `gorm:"type:varchar(32)" json:"category"`
	RetryCount      int             `json:"retryCount"`
	RetryInterval   int             `json:"retryInterval"`
	Delay           int             `json:"delay"`
	TimeoutSeconds  int             `json:"timeoutSeconds"`
	TimeoutStrategy TimeoutStrategy `gorm:"type:varchar(32);default:NONE" json:"timeoutStrategy"`
	NoticeStrategy  NoticeStrategy  `gorm:"type:varchar(32);default:NONE" json:"noticeStrategy"`
	CronExpression  string          `gorm:"type:varchar(64)" json:"cronExpression"`
	StartTime       *time.Time      `json:"startTime"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ExecutionConfig is the executable unit of a SQL/SPARK_JAR/DAG work. DAG
// category carries Nodes, the other categories a single executable.
type ExecutionConfig struct {
	WorkDirectory  string         `gorm:"type:varchar(255)" json:"workDirectory"`
	MainClass      string         `gorm:"type:varchar(255)" json:"mainClass"`
	ExtraParams    string         `gorm:"type:text" json:"extraParams"`
	JavaVersion    string         `gorm:"type:varchar(32)" json:"javaVersion"`
	ExecutableFile string         `gorm:"type:varchar(255)" json:"executableFile"`
	SQL            string         `gorm:"type:text" json:"sql"`
	Nodes          datatypes.JSON `json:"nodes"`
}

// DAGNode is one entry of ExecutionConfig.Nodes. Parents define execution
// order between the referenced sub works.
type DAGNode struct {
	NodeID    string   `json:"nodeId"`
	WorkID    uint     `json:"workId"`
	ParentIDs []string `json:"parentIds"`
}

// CommonWork is the user defined template of a SQL/SPARK_JAR/DAG job.
type CommonWork struct {
	WorkBase
	ExecutionConfig
}

func (CommonWork) TableName() string {
	return "common_works"
}

// CommonWorkInstance is the append only snapshot taken of a CommonWork at
// submission time. Later edits to the template never touch it.
type CommonWorkInstance struct {
	WorkBase
	ExecutionConfig
	WorkID uint `gorm:"index" json:"workID"`
	// ScheduleEngineJobID names the scheduler job backing this instance,
	// runs observed under it are materialized as tasks.
	ScheduleEngineJobID string `gorm:"type:varchar(191);index" json:"scheduleEngineJobID"`
	SubmittedBy         string `gorm:"type:varchar(64)" json:"submittedBy"`
}

func (CommonWorkInstance) TableName() string {
	return "common_work_instances"
}

func (w *CommonWorkInstance) Execute() bool {
	return applyWorkTrigger(&w.Status, TriggerExecute)
}

func (w *CommonWorkInstance) Finish() bool {
	return applyWorkTrigger(&w.Status, TriggerFinish)
}

// InstanceOf snapshots the template into a fresh instance. The copy carries
// no identity of its own yet, the registry assigns it on create.
func (w *CommonWork) InstanceOf(uuid, jobID, submittedBy string) *CommonWorkInstance {
	instance := &CommonWorkInstance{
		WorkBase:            w.WorkBase,
		ExecutionConfig:     w.ExecutionConfig,
		WorkID:              w.ID,
		ScheduleEngineJobID: jobID,
		SubmittedBy:         submittedBy,
	}
	instance.ID = 0
	instance.UUID = uuid
	instance.Status = WorkStatusWaiting
	instance.CreatedAt = time.Time{}
	instance.UpdatedAt = time.Time{}
	return instance
}
