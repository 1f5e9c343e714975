package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevPanatec/InfoPanama-sub001/internal/resolver"
	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

func TestResolveEntityEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/api/entities/resolve", ResolveRequest{
		Name:      "Dr. Juan Pérez",
		Type:      "PERSON",
		ArticleID: "art-1",
	})
	rec := httptest.NewRecorder()
	env.entities.ResolveEntity(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var first resolver.Resolution
	decode(t, rec, &first)
	assert.True(t, first.Created)
	assert.NotEmpty(t, first.EntityID)

	// A second surface form of the same name matches instead of creating.
	req = jsonRequest(t, http.MethodPost, "/api/entities/resolve", ResolveRequest{
		Name: "Juan Perez",
	})
	rec = httptest.NewRecorder()
	env.entities.ResolveEntity(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var second resolver.Resolution
	decode(t, rec, &second)
	assert.False(t, second.Created)
	assert.Equal(t, first.EntityID, second.EntityID)
}

func TestResolveEntityRequiresName(t *testing.T) {
	env := newTestEnv(t)

	req := jsonRequest(t, http.MethodPost, "/api/entities/resolve", ResolveRequest{Name: "   "})
	rec := httptest.NewRecorder()
	env.entities.ResolveEntity(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEntitiesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createEntity(t, "Ana Díaz", types.EntityPerson)
	env.createEntity(t, "ACME Corp", types.EntityOrganization)

	req := httptest.NewRequest(http.MethodGet, "/api/entities?type=person", nil)
	rec := httptest.NewRecorder()
	env.entities.ListEntities(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entities []*types.Entity `json:"entities"`
		Count    int             `json:"count"`
	}
	decode(t, rec, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Ana Díaz", resp.Entities[0].Name)
}

func TestListEntitiesRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/entities?type=ALIEN", nil)
	rec := httptest.NewRecorder()
	env.entities.ListEntities(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEntityEndpoint(t *testing.T) {
	env := newTestEnv(t)
	e := env.createEntity(t, "Ana Díaz", types.EntityPerson)

	req := httptest.NewRequest(http.MethodGet, "/api/entities/"+e.ID, nil)
	req.SetPathValue("id", e.ID)
	rec := httptest.NewRecorder()
	env.entities.GetEntity(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got types.Entity
	decode(t, rec, &got)
	assert.Equal(t, e.ID, got.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/entities/missing", nil)
	req.SetPathValue("id", "missing")
	rec = httptest.NewRecorder()
	env.entities.GetEntity(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTopEntitiesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	busy := env.createEntity(t, "Ana Díaz", types.EntityPerson)
	busy.MentionCount = 10
	require.NoError(t, env.store.Entities().Update(context.Background(), busy))
	env.createEntity(t, "ACME Corp", types.EntityOrganization)

	req := httptest.NewRequest(http.MethodGet, "/api/entities/top?limit=1", nil)
	rec := httptest.NewRecorder()
	env.entities.TopEntities(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entities []*types.Entity `json:"entities"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Entities, 1)
	assert.Equal(t, busy.ID, resp.Entities[0].ID)
}

func TestEntityStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createEntity(t, "Ana Díaz", types.EntityPerson)
	env.createEntity(t, "ACME Corp", types.EntityOrganization)

	req := httptest.NewRequest(http.MethodGet, "/api/entities/stats", nil)
	rec := httptest.NewRecorder()
	env.entities.EntityStats(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats storage.EntityStats
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByType[types.EntityPerson])
}

func TestMergeEntitiesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	primary := env.createEntity(t, "Ricardo Martinelli", types.EntityPerson)
	dup := env.createEntity(t, "Ricardo Martinelli Berrocal", types.EntityPerson)

	req := jsonRequest(t, http.MethodPost, "/api/entities/merge", MergeRequest{
		PrimaryID:   primary.ID,
		DuplicateID: dup.ID,
	})
	rec := httptest.NewRecorder()
	env.entities.MergeEntities(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report resolver.MergeReport
	decode(t, rec, &report)
	assert.Equal(t, primary.ID, report.PrimaryID)

	req = httptest.NewRequest(http.MethodGet, "/api/entities/"+dup.ID, nil)
	req.SetPathValue("id", dup.ID)
	rec = httptest.NewRecorder()
	env.entities.GetEntity(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewEndpoints(t *testing.T) {
	env := newTestEnv(t)
	e := env.createEntity(t, "Ana Díaz", types.EntityPerson)

	req := jsonRequest(t, http.MethodPost, "/api/entities/"+e.ID+"/review", map[string]string{
		"requested_by": "analyst",
	})
	req.SetPathValue("id", e.ID)
	rec := httptest.NewRecorder()
	env.entities.MarkReview(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The review filter now returns it.
	req = httptest.NewRequest(http.MethodGet, "/api/entities?review=true", nil)
	rec = httptest.NewRecorder()
	env.entities.ListEntities(rec, req)
	var resp struct {
		Count int `json:"count"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Count)

	req = httptest.NewRequest(http.MethodDelete, "/api/entities/"+e.ID+"/review", nil)
	req.SetPathValue("id", e.ID)
	rec = httptest.NewRecorder()
	env.entities.UnmarkReview(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/entities?review=true", nil)
	rec = httptest.NewRecorder()
	env.entities.ListEntities(rec, req)
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.Count)
}
