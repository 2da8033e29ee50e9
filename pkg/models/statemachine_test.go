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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStartAndFail(t *testing.T) {
	task := &Task{Status: TaskStatusWaiting}

	assert.True(t, task.SystemicallyStart())
	assert.Equal(t, TaskStatusStarting, task.Status)
	require.NotNil(t, task.StartedAt)

	assert.True(t, task.Fail())
	assert.Equal(t, TaskStatusFailed, task.Status)
	require.NotNil(t, task.EndedAt)

	// a late run event must not resurrect a failed task
	assert.False(t, task.Run())
	assert.Equal(t, TaskStatusFailed, task.Status)
}

func TestTaskEndedAtSetOnce(t *testing.T) {
	task := &Task{Status: TaskStatusRunning}

	require.True(t, task.Succeed())
	require.NotNil(t, task.EndedAt)
	first := *task.EndedAt

	time.Sleep(5 * time.Millisecond)
	assert.False(t, task.Succeed())
	assert.Equal(t, first, *task.EndedAt)
}

func TestTaskEndedAtOnlyOnTerminal(t *testing.T) {
	task := &Task{Status: TaskStatusWaiting}
	task.ManuallyStart()
	assert.Nil(t, task.EndedAt)
	task.Run()
	assert.Nil(t, task.EndedAt)
	task.ManuallyTerminate()
	assert.Equal(t, TaskStatusManualTerminated, task.Status)
	assert.NotNil(t, task.EndedAt)
}

func TestTaskInvalidTriggersAreNoops(t *testing.T) {
	for _, status := range []TaskStatus{
		TaskStatusSucceeded, TaskStatusFailed, TaskStatusManualTerminated, TaskStatusSystemTerminated,
	} {
		task := &Task{Status: status}
		for _, apply := range []func() bool{
			task.ManuallyStart, task.SystemicallyStart, task.Run,
			task.Succeed, task.Fail, task.ManuallyTerminate, task.SystemicallyTerminate,
		} {
			assert.False(t, apply())
			assert.Equal(t, status, task.Status)
		}
	}
}

func TestTaskEmptyStatusDefaultsToWaiting(t *testing.T) {
	task := &Task{}
	assert.True(t, task.SystemicallyStart())
	assert.Equal(t, TaskStatusStarting, task.Status)
}

func TestApplyEngineState(t *testing.T) {
	task := &Task{Status: TaskStatusWaiting}
	assert.True(t, task.ApplyEngineState("queued"))
	assert.Equal(t, TaskStatusWaiting, task.Status)

	assert.True(t, task.ApplyEngineState("running"))
	assert.Equal(t, TaskStatusRunning, task.Status)

	assert.True(t, task.ApplyEngineState("success"))
	assert.Equal(t, TaskStatusSucceeded, task.Status)
}

func TestApplyEngineStateFirstSeenLate(t *testing.T) {
	// a run first observed already failed walks straight to FAILED
	task := &Task{Status: TaskStatusWaiting}
	assert.True(t, task.ApplyEngineState("failed"))
	assert.Equal(t, TaskStatusFailed, task.Status)
	assert.NotNil(t, task.EndedAt)
}

func TestApplyEngineStateUnknown(t *testing.T) {
	task := &Task{Status: TaskStatusRunning}
	assert.False(t, task.ApplyEngineState("up_for_retry"))
	assert.Equal(t, TaskStatusRunning, task.Status)
}

func TestWorkTransitions(t *testing.T) {
	instance := &CommonWorkInstance{}
	instance.Status = WorkStatusWaiting

	assert.True(t, instance.Execute())
	assert.Equal(t, WorkStatusExecuting, instance.Status)
	// execute is re-entrant for an already executing instance
	assert.True(t, instance.Execute())

	assert.True(t, instance.Finish())
	assert.Equal(t, WorkStatusFinished, instance.Status)

	// finished is terminal without a fresh instance
	assert.False(t, instance.Execute())
	assert.False(t, instance.Finish())
	assert.Equal(t, WorkStatusFinished, instance.Status)
}

func TestImportExecuteGuardedByStartTime(t *testing.T) {
	future := time.Now().Add(time.Hour)
	instance := &ImportWorkInstance{}
	instance.Status = WorkStatusWaiting
	instance.StartTime = &future

	assert.False(t, instance.Execute())
	assert.Equal(t, WorkStatusWaiting, instance.Status)

	past := time.Now().Add(-time.Hour)
	instance.StartTime = &past
	assert.True(t, instance.Execute())
	assert.Equal(t, WorkStatusExecuting, instance.Status)
}
