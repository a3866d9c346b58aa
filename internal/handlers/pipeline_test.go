package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/flowboard/flowboard/db"
	"github.com/flowboard/flowboard/internal/models"
	"github.com/flowboard/flowboard/internal/types"
)

type pipelineView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	IsActive bool   `json:"isActive"`
	Tasks    []struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	} `json:"tasks"`
}

type pipelineListResponse struct {
	Pipelines []pipelineView `json:"pipelines"`
}

type pipelineResponse struct {
	Pipeline pipelineView `json:"pipeline"`
}

func TestListPipelinesSeededBoard(t *testing.T) {
	r := setupTest(t)

	token := identityToken(t, "idp_alice")
	syncUser(t, r, token, "alice@example.com", "alice")
	projectID := createProject(t, r, token, "Acme")

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/pipelines", projectID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp pipelineListResponse
	decodeBody(t, w, &resp)

	wantNames := []string{"To Do", "In Progress", "Done"}
	if len(resp.Pipelines) != 3 {
		t.Fatalf("got %d pipelines, want 3", len(resp.Pipelines))
	}
	for i, p := range resp.Pipelines {
		if p.Name != wantNames[i] || p.Position != i {
			t.Errorf("pipeline %d = %q@%d, want %q@%d", i, p.Name, p.Position, wantNames[i], i)
		}
		if p.Tasks == nil || len(p.Tasks) != 0 {
			t.Errorf("pipeline %q should start with an empty task list", p.Name)
		}
	}
}

func TestCreatePipelineAppendsPosition(t *testing.T) {
	r := setupTest(t)

	token := identityToken(t, "idp_alice")
	syncUser(t, r, token, "alice@example.com", "alice")
	projectID := createProject(t, r, token, "Acme")

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/pipelines", projectID), token,
		map[string]interface{}{"name": "Review"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp pipelineResponse
	decodeBody(t, w, &resp)
	if resp.Pipeline.Position != 3 {
		t.Errorf("position = %d, want 3 after seeded 0..2", resp.Pipeline.Position)
	}

	w = doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/pipelines", projectID), token,
		map[string]interface{}{"name": "Blocked"})
	decodeBody(t, w, &resp)
	if resp.Pipeline.Position != 4 {
		t.Errorf("second position = %d, want 4", resp.Pipeline.Position)
	}
}

func TestCreatePipelineRequiresAdmin(t *testing.T) {
	r := setupTest(t)

	ownerToken := identityToken(t, "idp_alice")
	syncUser(t, r, ownerToken, "alice@example.com", "alice")
	projectID := createProject(t, r, ownerToken, "Acme")

	memberToken := identityToken(t, "idp_bob")
	bob := syncUser(t, r, memberToken, "bob@example.com", "bob")

	member := models.ProjectMember{
		UserID:    uint(bob["id"].(float64)),
		ProjectID: projectID,
		Role:      types.RoleMember,
	}
	if err := db.DB.Create(&member).Error; err != nil {
		t.Fatalf("add membership: %v", err)
	}

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/pipelines", projectID), memberToken,
		map[string]interface{}{"name": "Review"})

	// Lack of admin rights reads as not found, never forbidden.
	if w.Code != http.StatusNotFound {
		t.Errorf("member create: status = %d, want 404", w.Code)
	}

	// The same member can still read the board.
	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/pipelines", projectID), memberToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("member list: status = %d, want 200", w.Code)
	}
}

func TestPipelinesHiddenFromNonMembers(t *testing.T) {
	r := setupTest(t)

	ownerToken := identityToken(t, "idp_alice")
	syncUser(t, r, ownerToken, "alice@example.com", "alice")
	projectID := createProject(t, r, ownerToken, "Acme")

	strangerToken := identityToken(t, "idp_eve")
	syncUser(t, r, strangerToken, "eve@example.com", "eve")

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/pipelines", projectID), strangerToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("stranger list: status = %d, want 404", w.Code)
	}
}

func TestUpdatePipelinePartial(t *testing.T) {
	r := setupTest(t)

	token := identityToken(t, "idp_alice")
	syncUser(t, r, token, "alice@example.com", "alice")
	projectID := createProject(t, r, token, "Acme")

	var pipeline models.Pipeline
	if err := db.DB.Where("project_id = ? AND position = ?", projectID, 0).First(&pipeline).Error; err != nil {
		t.Fatalf("load seeded pipeline: %v", err)
	}

	w := doRequest(t, r, http.MethodPut,
		fmt.Sprintf("/api/projects/%d/pipelines/%d", projectID, pipeline.ID), token,
		map[string]interface{}{"name": "Backlog"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp pipelineResponse
	decodeBody(t, w, &resp)

	if resp.Pipeline.Name != "Backlog" {
		t.Errorf("name = %q, want Backlog", resp.Pipeline.Name)
	}
	if resp.Pipeline.Position != 0 {
		t.Errorf("position changed to %d on a name-only update", resp.Pipeline.Position)
	}
	if !resp.Pipeline.IsActive {
		t.Error("isActive flipped on a name-only update")
	}
}

func TestDeletePipelineSoft(t *testing.T) {
	r := setupTest(t)

	token := identityToken(t, "idp_alice")
	syncUser(t, r, token, "alice@example.com", "alice")
	projectID := createProject(t, r, token, "Acme")

	var pipeline models.Pipeline
	if err := db.DB.Where("project_id = ? AND position = ?", projectID, 2).First(&pipeline).Error; err != nil {
		t.Fatalf("load seeded pipeline: %v", err)
	}

	// A task sits in the column being archived.
	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), token,
		map[string]interface{}{"title": "Ship it", "pipelineId": pipeline.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("create task: status = %d, body %s", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodDelete,
		fmt.Sprintf("/api/projects/%d/pipelines/%d", projectID, pipeline.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
	}
	decodeBody(t, w, &resp)
	if !resp.Success {
		t.Error("delete response success = false")
	}

	// Row stays, flagged inactive.
	var reloaded models.Pipeline
	if err := db.DB.First(&reloaded, pipeline.ID).Error; err != nil {
		t.Fatalf("pipeline row removed on soft delete: %v", err)
	}
	if reloaded.IsActive {
		t.Error("pipeline still active after delete")
	}

	// The task keeps its reference to the archived column.
	var task models.Task
	if err := db.DB.Where("project_id = ?", projectID).First(&task).Error; err != nil {
		t.Fatalf("load task: %v", err)
	}
	if task.PipelineID == nil || *task.PipelineID != pipeline.ID {
		t.Errorf("task pipelineId = %v, want %d", task.PipelineID, pipeline.ID)
	}

	// Gone from the active list.
	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/pipelines", projectID), token, nil)
	var list pipelineListResponse
	decodeBody(t, w, &list)
	for _, p := range list.Pipelines {
		if p.ID == pipeline.ID {
			t.Error("archived pipeline still in active list")
		}
	}

	// But still reachable by id.
	w = doRequest(t, r, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/pipelines/%d", projectID, pipeline.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get archived pipeline: status = %d, want 200", w.Code)
	}
}

func TestGetPipelineNotFound(t *testing.T) {
	r := setupTest(t)

	token := identityToken(t, "idp_alice")
	syncUser(t, r, token, "alice@example.com", "alice")
	projectID := createProject(t, r, token, "Acme")

	w := doRequest(t, r, http.MethodGet,
		fmt.Sprintf("/api/projects/%d/pipelines/%d", projectID, 9999), token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
