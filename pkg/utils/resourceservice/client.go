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

// Package resourceservice submits and cancels executions on the resource service.
package resourceservice

import (
	"context"
	"fmt"

	"chuhe.io/workservice/pkg/utils/remote"
	"github.com/go-resty/resty/v2"
)

// TaskSpec is the execution request handed to the resource service. It
// carries everything the remote side needs to launch the work, the caller
// keeps no session with it afterwards besides the returned task id.
type TaskSpec struct {
	WorkspaceID    uint   `json:"workspace_id"`
	WorkID         uint   `json:"work_id"`
	TaskID         string `json:"task_id"`
	Name           string `json:"name"`
	WorkDirectory  string `json:"work_directory,omitempty"`
	MainClass      string `json:"main_class,omitempty"`
	ExtraParams    string `json:"extra_params,omitempty"`
	JavaVersion    string `json:"java_version,omitempty"`
	Category       string `json:"category"`
	ExecutableFile string `json:"executable_file,omitempty"`
	SQL            string `json:"sql,omitempty"`
	SubmittedBy    string `json:"submitted_by,omitempty"`
}

type Client struct {
	client *resty.Client
}

func NewClient(options *Options) *Client {
	return &Client{
		client: resty.New().SetBaseURL(options.Addr).SetTimeout(options.Timeout),
	}
}

// SubmitTask launches an execution and returns the remote task id used to
// cancel or query it later.
func (c *Client) SubmitTask(ctx context.Context, spec TaskSpec) (string, error) {
	into := &struct {
		TaskID string `json:"task_id"`
	}{}
	resp, err := c.client.R().SetContext(ctx).SetBody(spec).SetResult(into).Post("/tasks")
	if err != nil {
		return "", remote.Classify("resourceservice.SubmitTask", 0, err)
	}
	if err := remote.Classify("resourceservice.SubmitTask", resp.StatusCode(), nil); err != nil {
		return "", err
	}
	if into.TaskID == "" {
		return "", fmt.Errorf("resource service returned no task id for %s", spec.TaskID)
	}
	return into.TaskID, nil
}

func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	resp, err := c.client.R().SetContext(ctx).Delete("/tasks/" + taskID)
	if err != nil {
		return remote.Classify("resourceservice.CancelTask", 0, err)
	}
	return remote.Classify("resourceservice.CancelTask", resp.StatusCode(), nil)
}
