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

// Package airflow is the outbound client of the dag scheduler rest api.
package airflow

import (
	"context"
	"fmt"
	"time"

	"chuhe.io/workservice/pkg/utils/remote"
	"github.com/go-resty/resty/v2"
)

// pageLimit bounds every listing call; the scheduler caps responses anyway,
// an explicit limit keeps the contract visible.
const pageLimit = 1000

type DAG struct {
	DAGID    string `json:"dag_id"`
	IsPaused bool   `json:"is_paused"`
	IsActive bool   `json:"is_active"`
}

type DAGRun struct {
	DAGID     string     `json:"dag_id"`
	DAGRunID  string     `json:"dag_run_id"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	State     string     `json:"state"`
}

type TaskInstance struct {
	TaskID    string     `json:"task_id"`
	DAGID     string     `json:"dag_id"`
	DAGRunID  string     `json:"dag_run_id"`
	State     string     `json:"state"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type Client struct {
	client *resty.Client
}

func NewClient(options *Options) *Client {
	cli := resty.New().
		SetBaseURL(options.Addr).
		SetBasicAuth(options.Username, options.Password).
		SetTimeout(options.Timeout)
	return &Client{client: cli}
}

func (c *Client) ListDAGs(ctx context.Context) ([]DAG, error) {
	into := &struct {
		DAGs []DAG `json:"dags"`
	}{}
	resp, err := c.client.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":       fmt.Sprint(pageLimit),
			"only_active": "false",
		}).
		SetResult(into).
		Get("/dags")
	if err := classify("airflow.ListDAGs", resp, err); err != nil {
		return nil, err
	}
	return into.DAGs, nil
}

// ResumeDAG unpauses a dag and verifies the scheduler reports it unpaused
// and active afterwards.
func (c *Client) ResumeDAG(ctx context.Context, dagID string) error {
	into := &DAG{}
	resp, err := c.client.R().SetContext(ctx).
		SetBody(map[string]interface{}{"is_paused": false}).
		SetResult(into).
		Patch("/dags/" + dagID)
	if err := classify("airflow.ResumeDAG", resp, err); err != nil {
		return err
	}
	if into.IsPaused || !into.IsActive {
		return fmt.Errorf("can not resume dag %s", dagID)
	}
	return nil
}

func (c *Client) ListDAGRuns(ctx context.Context, dagID string) ([]DAGRun, error) {
	into := &struct {
		DAGRuns []DAGRun `json:"dag_runs"`
	}{}
	resp, err := c.client.R().SetContext(ctx).
		SetQueryParam("limit", fmt.Sprint(pageLimit)).
		SetResult(into).
		Get(fmt.Sprintf("/dags/%s/dagRuns", dagID))
	if err := classify("airflow.ListDAGRuns", resp, err); err != nil {
		return nil, err
	}
	return into.DAGRuns, nil
}

// ListDAGRunsBatch fetches runs for many dags in one request; polling per dag
// does not scale with the tracked job count.
func (c *Client) ListDAGRunsBatch(ctx context.Context, dagIDs []string) ([]DAGRun, error) {
	if len(dagIDs) == 0 {
		return nil, nil
	}
	into := &struct {
		DAGRuns []DAGRun `json:"dag_runs"`
	}{}
	resp, err := c.client.R().SetContext(ctx).
		SetBody(map[string]interface{}{
			"page_limit": pageLimit,
			"dag_ids":    dagIDs,
		}).
		SetResult(into).
		Post("/dags/~/dagRuns/list")
	if err := classify("airflow.ListDAGRunsBatch", resp, err); err != nil {
		return nil, err
	}
	return into.DAGRuns, nil
}

func (c *Client) ListTaskInstances(ctx context.Context, dagID, dagRunID string) ([]TaskInstance, error) {
	into := &struct {
		TaskInstances []TaskInstance `json:"task_instances"`
	}{}
	resp, err := c.client.R().SetContext(ctx).
		SetQueryParam("limit", fmt.Sprint(pageLimit)).
		SetResult(into).
		Get(fmt.Sprintf("/dags/%s/dagRuns/%s/taskInstances", dagID, dagRunID))
	if err := classify("airflow.ListTaskInstances", resp, err); err != nil {
		return nil, err
	}
	return into.TaskInstances, nil
}

func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return remote.Classify(op, 0, err)
	}
	return remote.Classify(op, resp.StatusCode(), nil)
}
