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
)

// ImportSource describes the data artifact an import work ingests. FTP
// sourced files record the size observed at definition time so the loop can
// tell a fully transferred file from one still being written.
type ImportSource struct {
	FilePath     string     `gorm:"type:varchar(255)" json:"filePath"`
	FileSource   FileSource `gorm:"type:varchar(32)" json:"fileSource"`
	FileSize     int64      `json:"fileSize"`
	DatabaseName string     `gorm:"type:varchar(128)" json:"databaseName"`
	// named Table rather than TableName so it cannot be shadowed by the
	// gorm TableName method of the embedding models
	Table     string         `gorm:"column:table_name;type:varchar(128)" json:"tableName"`
	TableInfo datatypes.JSON `json:"tableInfo"`
	WriteType WriteType      `gorm:"type:varchar(32);default:APPEND" json:"writeType"`
	SyncType  SyncType       `gorm:"type:varchar(32);default:FULL" json:"syncType"`
}

// ImportWork is the user defined template of a CSV ingestion job.
type ImportWork struct {
	WorkBase
	ImportSource
}

func (ImportWork) TableName() string {
	return "import_works"
}

// ImportWorkInstance is the submission time snapshot of an ImportWork.
type ImportWorkInstance struct {
	WorkBase
	ImportSource
	WorkID      uint   `gorm:"index" json:"workID"`
	SubmittedBy string `gorm:"type:varchar(64)" json:"submittedBy"`
}

func (ImportWorkInstance) TableName() string {
	return "import_work_instances"
}

// Execute is guarded by the configured start time, an import scheduled for
// the future stays WAITING until the time has passed.
func (w *ImportWorkInstance) Execute() bool {
	if w.StartTime != nil && w.StartTime.After(time.Now()) {
		return false
	}
	return applyWorkTrigger(&w.Status, TriggerExecute)
}

func (w *ImportWorkInstance) Finish() bool {
	return applyWorkTrigger(&w.Status, TriggerFinish)
}

func (w *ImportWork) InstanceOf(uuid, submittedBy string) *ImportWorkInstance {
	instance := &ImportWorkInstance{
		WorkBase:     w.WorkBase,
		ImportSource: w.ImportSource,
		WorkID:       w.ID,
		SubmittedBy:  submittedBy,
	}
	instance.ID = 0
	instance.UUID = uuid
	instance.Status = WorkStatusWaiting
	instance.CreatedAt = time.Time{}
	instance.UpdatedAt = time.Time{}
	return instance
}
