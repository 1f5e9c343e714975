package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/DevPanatec/InfoPanama-sub001/internal/storage"
	"github.com/DevPanatec/InfoPanama-sub001/pkg/types"
)

// Hand-curated noise that the extraction step keeps producing: foreign
// heads of state, international airlines and grocery staples from price
// reports. None of them belong in a Panamanian actor graph.
var irrelevantPersons = []string{
	"nicolás maduro",
	"rey carlos iii",
	"rey charles iii",
	"su alteza real, la princesa ana",
	"princesa ana",
	"donald trump",
	"joe biden",
	"nayib bukele",
}

var irrelevantOrganizations = []string{
	"iberia",
	"plus ultra",
	"tap",
	"air europa",
	"turkish airlines",
	"avianca",
	"latam",
	"united airlines",
	"american airlines",
	"delta",
	"spirit",
	"jetblue",
	"cebolla",
	"tomate",
	"arroz",
	"papa",
	"yuca",
	"pan",
	"leche",
}

// protectedFragments shield Panamanian institutions from every cleanup
// rule, including the generic-location one.
var protectedFragments = []string{
	"panamá",
	"panama",
	"autoridad del canal",
	"superintendencia",
	"universidad de panamá",
	"cámara de comercio",
	"caja de seguro social",
	"css",
}

// CleanupEntity is one entity slated for removal.
type CleanupEntity struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         types.EntityType `json:"type"`
	MentionCount int              `json:"mentionCount"`
}

// CleanupPlan lists what RunCleanup would remove.
type CleanupPlan struct {
	Total    int             `json:"total"`
	ToDelete int             `json:"toDelete"`
	Entities []CleanupEntity `json:"entities"`
}

// CleanupResult counts what RunCleanup removed.
type CleanupResult struct {
	DeletedByType        map[types.EntityType]int `json:"deletedByType"`
	Deleted              int                      `json:"deleted"`
	RelationsDeactivated int                      `json:"relationsDeactivated"`
}

// PlanCleanup is the dry run: it returns the entities the irrelevance rules
// select without touching anything.
func (a *Auditor) PlanCleanup(ctx context.Context) (*CleanupPlan, error) {
	entities, err := a.entities.List(ctx, storage.EntityListOptions{})
	if err != nil {
		return nil, fmt.Errorf("audit: failed to load entities: %w", err)
	}

	plan := &CleanupPlan{Total: len(entities)}
	for _, e := range entities {
		if isIrrelevant(e) {
			plan.Entities = append(plan.Entities, CleanupEntity{
				ID:           e.ID,
				Name:         e.Name,
				Type:         e.Type,
				MentionCount: e.MentionCount,
			})
		}
	}
	plan.ToDelete = len(plan.Entities)
	return plan, nil
}

// RunCleanup deletes the entities PlanCleanup selects. Their active
// relations are deactivated first so no dangling edges survive; the edge
// rows themselves stay as audit trail.
func (a *Auditor) RunCleanup(ctx context.Context) (*CleanupResult, error) {
	plan, err := a.PlanCleanup(ctx)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{DeletedByType: make(map[types.EntityType]int)}
	for _, victim := range plan.Entities {
		n, err := a.relations.DeactivateByEndpoint(ctx, types.EntityRef(victim.ID))
		if err != nil {
			return result, fmt.Errorf("audit: failed to deactivate relations of %s: %w", victim.ID, err)
		}
		result.RelationsDeactivated += n

		if err := a.entities.Delete(ctx, victim.ID); err != nil {
			return result, fmt.Errorf("audit: failed to delete entity %s: %w", victim.ID, err)
		}
		result.DeletedByType[victim.Type]++
		result.Deleted++
	}
	return result, nil
}

func isIrrelevant(e *types.Entity) bool {
	name := strings.ToLower(e.Name)

	for _, fragment := range protectedFragments {
		if strings.Contains(name, fragment) {
			return false
		}
	}

	for _, p := range irrelevantPersons {
		if name == p || strings.Contains(name, p) {
			return true
		}
	}
	for _, o := range irrelevantOrganizations {
		if name == o || strings.Contains(name, o) {
			return true
		}
	}

	if e.Type == types.EntityDate {
		return true
	}

	// Generic locations add noise; municipal and provincial ones stay.
	if e.Type == types.EntityLocation &&
		!strings.Contains(name, "alcaldía") &&
		!strings.Contains(name, "municipio") &&
		!strings.Contains(name, "provincia") {
		return true
	}

	return false
}
