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

type Trigger string

const (
	TriggerExecute Trigger = "execute"
	TriggerFinish  Trigger = "finish"

	TriggerManuallyStart         Trigger = "manually_start"
	TriggerSystemicallyStart     Trigger = "systemically_start"
	TriggerRun                   Trigger = "run"
	TriggerSucceed               Trigger = "succeed"
	TriggerFail                  Trigger = "fail"
	TriggerManuallyTerminate     Trigger = "manually_terminate"
	TriggerSystemicallyTerminate Trigger = "systemically_terminate"
)

type transition[S comparable] struct {
	sources []S
	dest    S
}

// transitionTable maps a trigger to its legal source states and destination.
// A trigger applied from a state not listed as a source is dropped, external
// systems deliver status events with no ordering guarantee and a stale event
// must never regress an already advanced entity.
type transitionTable[S comparable] map[Trigger]transition[S]

func (t transitionTable[S]) next(current S, trigger Trigger) (S, bool) {
	tr, ok := t[trigger]
	if !ok {
		return current, false
	}
	for _, src := range tr.sources {
		if src == current {
			return tr.dest, true
		}
	}
	return current, false
}

var workTransitions = transitionTable[WorkStatus]{
	TriggerExecute: {
		sources: []WorkStatus{WorkStatusWaiting, WorkStatusExecuting},
		dest:    WorkStatusExecuting,
	},
	TriggerFinish: {
		sources: []WorkStatus{WorkStatusWaiting, WorkStatusExecuting},
		dest:    WorkStatusFinished,
	},
}

var taskTransitions = transitionTable[TaskStatus]{
	TriggerManuallyStart: {
		sources: []TaskStatus{TaskStatusWaiting},
		dest:    TaskStatusStarting,
	},
	TriggerSystemicallyStart: {
		sources: []TaskStatus{TaskStatusWaiting},
		dest:    TaskStatusStarting,
	},
	TriggerRun: {
		sources: []TaskStatus{TaskStatusStarting},
		dest:    TaskStatusRunning,
	},
	TriggerSucceed: {
		sources: []TaskStatus{TaskStatusStarting, TaskStatusRunning},
		dest:    TaskStatusSucceeded,
	},
	TriggerFail: {
		sources: []TaskStatus{TaskStatusWaiting, TaskStatusStarting, TaskStatusRunning},
		dest:    TaskStatusFailed,
	},
	TriggerManuallyTerminate: {
		sources: []TaskStatus{TaskStatusWaiting, TaskStatusStarting, TaskStatusRunning},
		dest:    TaskStatusManualTerminated,
	},
	TriggerSystemicallyTerminate: {
		sources: []TaskStatus{TaskStatusWaiting, TaskStatusStarting, TaskStatusRunning},
		dest:    TaskStatusSystemTerminated,
	},
}

// applyWorkTrigger advances a work status in place. An empty status counts
// as WAITING so rows reconstructed from storage before their first save
// behave like fresh ones. Returns false when the trigger is not legal from
// the current state.
func applyWorkTrigger(status *WorkStatus, trigger Trigger) bool {
	current := *status
	if current == "" {
		current = WorkStatusWaiting
	}
	next, ok := workTransitions.next(current, trigger)
	if !ok {
		return false
	}
	*status = next
	return true
}
