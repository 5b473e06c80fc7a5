package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/burs-api/internal/models"
	appErrors "github.com/noah-isme/burs-api/pkg/errors"
)

type mockCommitmentRepo struct {
	commitments map[string]models.MemberCommitment
	existing    map[string]bool
	created     *models.MemberCommitment
	deleted     []string
}

func (m *mockCommitmentRepo) ListByTerm(ctx context.Context, termID string) ([]models.MemberCommitment, error) {
	var list []models.MemberCommitment
	for _, c := range m.commitments {
		if c.TermID == termID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (m *mockCommitmentRepo) ListByMember(ctx context.Context, memberID string) ([]models.MemberCommitment, error) {
	var list []models.MemberCommitment
	for _, c := range m.commitments {
		if c.MemberID == memberID {
			list = append(list, c)
		}
	}
	return list, nil
}

func (m *mockCommitmentRepo) FindByID(ctx context.Context, id string) (*models.MemberCommitment, error) {
	if c, ok := m.commitments[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCommitmentRepo) ExistsForMemberAndTerm(ctx context.Context, memberID, termID, excludeID string) (bool, error) {
	return m.existing[memberID+"|"+termID], nil
}

func (m *mockCommitmentRepo) Create(ctx context.Context, commitment *models.MemberCommitment) error {
	if m.commitments == nil {
		m.commitments = make(map[string]models.MemberCommitment)
	}
	commitment.ID = "cmt-new"
	m.commitments[commitment.ID] = *commitment
	m.created = commitment
	return nil
}

func (m *mockCommitmentRepo) Update(ctx context.Context, commitment *models.MemberCommitment) error {
	m.commitments[commitment.ID] = *commitment
	return nil
}

func (m *mockCommitmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.commitments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockMemberLookup struct {
	members map[string]*models.Member
}

func (m *mockMemberLookup) FindByID(ctx context.Context, id string) (*models.Member, error) {
	if mem, ok := m.members[id]; ok {
		return mem, nil
	}
	return nil, sql.ErrNoRows
}

func newCommitmentFixture(repo *mockCommitmentRepo) *CommitmentService {
	members := &mockMemberLookup{members: map[string]*models.Member{
		"mem-1": {ID: "mem-1", FullName: "Donor One", ScholarshipProvider: true},
	}}
	return NewCommitmentService(repo, members, nil, nil, 8)
}

func TestCommitmentServiceCreate(t *testing.T) {
	repo := &mockCommitmentRepo{}
	svc := newCommitmentFixture(repo)

	view, err := svc.Create(context.Background(), CreateCommitmentRequest{
		MemberID:     "mem-1",
		TermID:       "term-1",
		PledgedCount: 3,
		YearlyAmount: 36000,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, view.RemainingCount)
	assert.Equal(t, 108000.0, view.TotalYearlyAmount)
	assert.Equal(t, 13500.0, view.TotalMonthlyAmount)
}

func TestCommitmentServiceCreateRejectsSecondPledgeSameTerm(t *testing.T) {
	repo := &mockCommitmentRepo{existing: map[string]bool{"mem-1|term-1": true}}
	svc := newCommitmentFixture(repo)

	_, err := svc.Create(context.Background(), CreateCommitmentRequest{
		MemberID:     "mem-1",
		TermID:       "term-1",
		PledgedCount: 1,
		YearlyAmount: 36000,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestCommitmentServiceCreateUnknownMember(t *testing.T) {
	svc := newCommitmentFixture(&mockCommitmentRepo{})

	_, err := svc.Create(context.Background(), CreateCommitmentRequest{
		MemberID:     "mem-ghost",
		TermID:       "term-1",
		PledgedCount: 1,
		YearlyAmount: 36000,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCommitmentServiceUpdateCapsGivenCount(t *testing.T) {
	repo := &mockCommitmentRepo{commitments: map[string]models.MemberCommitment{
		"cmt-1": {ID: "cmt-1", MemberID: "mem-1", TermID: "term-1", PledgedCount: 2, YearlyAmount: 36000},
	}}
	svc := newCommitmentFixture(repo)

	_, err := svc.Update(context.Background(), "cmt-1", UpdateCommitmentRequest{
		PledgedCount: 2,
		GivenCount:   3,
		YearlyAmount: 36000,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCommitmentServiceUpdateRecomputesDerivedTotals(t *testing.T) {
	repo := &mockCommitmentRepo{commitments: map[string]models.MemberCommitment{
		"cmt-1": {ID: "cmt-1", MemberID: "mem-1", TermID: "term-1", PledgedCount: 2, YearlyAmount: 36000},
	}}
	svc := newCommitmentFixture(repo)

	view, err := svc.Update(context.Background(), "cmt-1", UpdateCommitmentRequest{
		PledgedCount: 4,
		GivenCount:   1,
		YearlyAmount: 40000,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, view.RemainingCount)
	assert.Equal(t, 160000.0, view.TotalYearlyAmount)
	assert.Equal(t, 20000.0, view.TotalMonthlyAmount)
}
