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

package repository

import (
	"time"

	"chuhe.io/workservice/pkg/models"
	"gorm.io/gorm"
)

// WorkRegistry persists work templates and their submission snapshots.
type WorkRegistry struct {
	db *gorm.DB
}

func NewWorkRegistry(db *gorm.DB) *WorkRegistry {
	return &WorkRegistry{db: db}
}

func (r *WorkRegistry) GetCommonWork(id uint) (*models.CommonWork, error) {
	work := &models.CommonWork{}
	if err := r.db.First(work, id).Error; err != nil {
		return nil, translate(err)
	}
	return work, nil
}

func (r *WorkRegistry) GetImportWork(id uint) (*models.ImportWork, error) {
	work := &models.ImportWork{}
	if err := r.db.First(work, id).Error; err != nil {
		return nil, translate(err)
	}
	return work, nil
}

func (r *WorkRegistry) GetImportInstance(id uint) (*models.ImportWorkInstance, error) {
	instance := &models.ImportWorkInstance{}
	if err := r.db.First(instance, id).Error; err != nil {
		return nil, translate(err)
	}
	return instance, nil
}

func (r *WorkRegistry) GetCommonInstance(id uint) (*models.CommonWorkInstance, error) {
	instance := &models.CommonWorkInstance{}
	if err := r.db.First(instance, id).Error; err != nil {
		return nil, translate(err)
	}
	return instance, nil
}

// ListUnfinishedImportInstances returns every import instance that might
// still own live tasks.
func (r *WorkRegistry) ListUnfinishedImportInstances() ([]*models.ImportWorkInstance, error) {
	instances := []*models.ImportWorkInstance{}
	err := r.db.
		Where("status <> ?", models.WorkStatusFinished).
		Find(&instances).Error
	return instances, err
}

// ListDueCommonInstances returns common instances in WAITING or EXECUTING
// whose start time has passed (or was never set).
func (r *WorkRegistry) ListDueCommonInstances(now time.Time) ([]*models.CommonWorkInstance, error) {
	instances := []*models.CommonWorkInstance{}
	err := r.db.
		Where("status IN ?", []models.WorkStatus{models.WorkStatusWaiting, models.WorkStatusExecuting}).
		Where("start_time IS NULL OR start_time <= ?", now).
		Find(&instances).Error
	return instances, err
}

func (r *WorkRegistry) CreateCommonInstance(instance *models.CommonWorkInstance) error {
	return r.db.Create(instance).Error
}

func (r *WorkRegistry) CreateImportInstance(instance *models.ImportWorkInstance) error {
	return r.db.Create(instance).Error
}

func (r *WorkRegistry) SaveCommonInstance(instance *models.CommonWorkInstance) error {
	return r.db.Save(instance).Error
}

func (r *WorkRegistry) SaveImportInstance(instance *models.ImportWorkInstance) error {
	return r.db.Save(instance).Error
}
