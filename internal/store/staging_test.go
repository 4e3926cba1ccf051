package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profscope/hub/internal/models"
)

// seededBase builds a store with one known professor and review, the starting
// state shared by the agreement tests.
func seededBase(t *testing.T) *Memory {
	t.Helper()

	m := NewMemory()
	ctx := context.Background()

	prof, _, err := m.UpsertProfessor(ctx, &models.UpsertProfessorRequest{
		Name:        "Ada Lee",
		Department:  strPtr("CMPT"),
		CourseCodes: []string{"CMPT110"},
	})
	require.NoError(t, err)

	_, _, err = m.UpsertReview(ctx, &models.UpsertReviewRequest{
		ProfessorID: prof.ID,
		Text:        "clear lectures",
		SourceKind:  models.SourceForum,
		ExternalID:  strPtr("abc1"),
	})
	require.NoError(t, err)

	return m
}

// replay runs a fixed batch of upserts against any SyncStore and returns the
// outcome sequence.
func replay(t *testing.T, s SyncStore) []Outcome {
	t.Helper()

	ctx := context.Background()

	var outcomes []Outcome

	prof, outcome, err := s.UpsertProfessor(ctx, &models.UpsertProfessorRequest{
		Name:        "Ada Lee",
		CourseCodes: []string{"CMPT225"},
	})
	require.NoError(t, err)
	outcomes = append(outcomes, outcome)

	_, outcome, err = s.UpsertReview(ctx, &models.UpsertReviewRequest{
		ProfessorID: prof.ID,
		Text:        "clear lectures",
		SourceKind:  models.SourceForum,
		ExternalID:  strPtr("abc1"),
	})
	require.NoError(t, err)
	outcomes = append(outcomes, outcome)

	_, outcome, err = s.UpsertReview(ctx, &models.UpsertReviewRequest{
		ProfessorID: prof.ID,
		Text:        "heavy workload",
		SourceKind:  models.SourceForum,
		ExternalID:  strPtr("abc2"),
	})
	require.NoError(t, err)
	outcomes = append(outcomes, outcome)

	newProf, outcome, err := s.UpsertProfessor(ctx, &models.UpsertProfessorRequest{Name: "Grace Ho"})
	require.NoError(t, err)
	outcomes = append(outcomes, outcome)

	_, outcome, err = s.UpsertReview(ctx, &models.UpsertReviewRequest{
		ProfessorID: newProf.ID,
		Text:        "fair grading",
		SourceKind:  models.SourceReviewSite,
		ContentHash: strPtr("deadbeef"),
	})
	require.NoError(t, err)
	outcomes = append(outcomes, outcome)

	return outcomes
}

func TestStaging_AgreesWithCommit(t *testing.T) {
	stagingOutcomes := replay(t, NewStaging(seededBase(t)))
	commitOutcomes := replay(t, seededBase(t))

	assert.Equal(t, commitOutcomes, stagingOutcomes)
	assert.Equal(t, []Outcome{
		OutcomeUpdated,   // known professor gains a course code
		OutcomeUnchanged, // known review, identical content
		OutcomeAdded,     // new review for known professor
		OutcomeAdded,     // new professor
		OutcomeAdded,     // new review for new professor
	}, stagingOutcomes)
}

func TestStaging_NeverWritesBase(t *testing.T) {
	ctx := context.Background()
	base := seededBase(t)

	replay(t, NewStaging(base))

	profs, err := base.ListProfessors(ctx)
	require.NoError(t, err)
	require.Len(t, profs, 1)
	assert.Equal(t, []string{"CMPT110"}, profs[0].CourseCodes)

	reviews, err := base.ListReviewsByProfessor(ctx, profs[0].ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestStaging_ReadsFallThrough(t *testing.T) {
	ctx := context.Background()
	base := seededBase(t)
	staging := NewStaging(base)

	prof, err := staging.GetProfessorByName(ctx, "Ada Lee")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lee", prof.Name)

	rev, err := staging.GetReviewByKey(ctx, models.SourceForum, strPtr("abc1"), nil)
	require.NoError(t, err)
	assert.Equal(t, "clear lectures", rev.Text)

	// a staged write is visible through the overlay but layered over live rows
	_, _, err = staging.UpsertReview(ctx, &models.UpsertReviewRequest{
		ProfessorID: prof.ID,
		Text:        "new one",
		SourceKind:  models.SourceForum,
		ExternalID:  strPtr("abc9"),
	})
	require.NoError(t, err)

	all, err := staging.ListReviewsByProfessor(ctx, prof.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
