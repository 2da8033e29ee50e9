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

import "fmt"

type WorkStatus string

const (
	WorkStatusWaiting   WorkStatus = "WAITING"
	WorkStatusExecuting WorkStatus = "EXECUTING"
	WorkStatusFinished  WorkStatus = "FINISHED"
)

type TaskStatus string

const (
	TaskStatusWaiting          TaskStatus = "WAITING"
	TaskStatusStarting         TaskStatus = "STARTING"
	TaskStatusRunning          TaskStatus = "RUNNING"
	TaskStatusSucceeded        TaskStatus = "SUCCEEDED"
	TaskStatusFailed           TaskStatus = "FAILED"
	TaskStatusTerminating      TaskStatus = "TERMINATING"
	TaskStatusManualTerminated TaskStatus = "MANUAL_TERMINATED"
	TaskStatusSystemTerminated TaskStatus = "SYSTEM_TERMINATED"
)

// Terminal reports whether no further transition can leave the status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusManualTerminated, TaskStatusSystemTerminated:
		return true
	default:
		return false
	}
}

type WorkCategory string

const (
	WorkCategorySQL      WorkCategory = "SQL"
	WorkCategorySparkJar WorkCategory = "SPARK_JAR"
	WorkCategoryDAG      WorkCategory = "DAG"
	WorkCategoryImport   WorkCategory = "IMPORT"
)

type TaskType string

const (
	TaskTypeCommon TaskType = "COMMON"
	TaskTypeImport TaskType = "IMPORT"
	TaskTypeSQL    TaskType = "SQL"
	TaskTypeDAG    TaskType = "DAG"
)

// TaskTypeForCategory selects the reconciliation path owning tasks spawned
// from a work of the given category.
func TaskTypeForCategory(category WorkCategory) TaskType {
	switch category {
	case WorkCategorySQL:
		return TaskTypeSQL
	case WorkCategoryDAG:
		return TaskTypeDAG
	case WorkCategoryImport:
		return TaskTypeImport
	default:
		return TaskTypeCommon
	}
}

type TimeoutStrategy string

const (
	TimeoutStrategyMarkFailed TimeoutStrategy = "MARK_FAILED"
	TimeoutStrategyNotify     TimeoutStrategy = "NOTIFY"
	TimeoutStrategyNone       TimeoutStrategy = "NONE"
)

type FileSource string

const (
	FileSourceFTP    FileSource = "FTP"
	FileSourceUpload FileSource = "UPLOAD"
)

type WriteType string

const (
	WriteTypeAppend    WriteType = "APPEND"
	WriteTypeOverwrite WriteType = "OVERWRITE"
)

type SyncType string

const (
	SyncTypeFull        SyncType = "FULL"
	SyncTypeIncremental SyncType = "INCREMENTAL"
)

type NoticeStrategy string

const (
	NoticeStrategyNone      NoticeStrategy = "NONE"
	NoticeStrategyOnFailure NoticeStrategy = "ON_FAILURE"
	NoticeStrategyAlways    NoticeStrategy = "ALWAYS"
)

const ScheduleEngineAirflow = "airflow"

// AirflowRunKey builds the correlation key a scheduler run is deduplicated
// by, at most one task row may carry it.
func AirflowRunKey(dagID, dagRunID string) string {
	return fmt.Sprintf("%s::%s::%s", ScheduleEngineAirflow, dagID, dagRunID)
}
