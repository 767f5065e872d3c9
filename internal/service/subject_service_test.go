package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

type mockSubjectStore struct {
	subjects map[string]*models.Subject
	created  []*models.Subject
	deleted  []string
}

func (m *mockSubjectStore) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	var result []models.Subject
	for _, s := range m.subjects {
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (m *mockSubjectStore) FindByID(ctx context.Context, schoolID, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok && s.SchoolID == schoolID {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectStore) ExistsByName(ctx context.Context, schoolID, name string) (bool, error) {
	for _, s := range m.subjects {
		if s.SchoolID == schoolID && strings.EqualFold(s.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectStore) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "subj-new"
	m.created = append(m.created, subject)
	return nil
}

func (m *mockSubjectStore) Delete(ctx context.Context, schoolID, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newSubjectFixture() (*SubjectService, *mockSubjectStore) {
	store := &mockSubjectStore{subjects: map[string]*models.Subject{}}
	return NewSubjectService(store, nil, nil), store
}

func TestCreateSubjectTrimsName(t *testing.T) {
	svc, store := newSubjectFixture()

	subject, err := svc.Create(context.Background(), "school-1", dto.CreateSubjectRequest{Name: "  Mathematics  "})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", subject.Name)
	assert.Equal(t, "school-1", subject.SchoolID)
	assert.Len(t, store.created, 1)
}

func TestCreateSubjectRejectsDuplicateName(t *testing.T) {
	svc, store := newSubjectFixture()
	store.subjects["subj-1"] = &models.Subject{ID: "subj-1", Name: "Mathematics", SchoolID: "school-1"}

	_, err := svc.Create(context.Background(), "school-1", dto.CreateSubjectRequest{Name: "mathematics"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateSubjectAllowsSameNameInAnotherSchool(t *testing.T) {
	svc, store := newSubjectFixture()
	store.subjects["subj-1"] = &models.Subject{ID: "subj-1", Name: "Mathematics", SchoolID: "school-2"}

	_, err := svc.Create(context.Background(), "school-1", dto.CreateSubjectRequest{Name: "Mathematics"})
	require.NoError(t, err)
}

func TestDeleteSubjectUnknown(t *testing.T) {
	svc, store := newSubjectFixture()

	err := svc.Delete(context.Background(), "school-1", "subj-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.deleted)
}

func TestDeleteSubject(t *testing.T) {
	svc, store := newSubjectFixture()
	store.subjects["subj-1"] = &models.Subject{ID: "subj-1", Name: "Mathematics", SchoolID: "school-1"}

	require.NoError(t, svc.Delete(context.Background(), "school-1", "subj-1"))
	assert.Equal(t, []string{"subj-1"}, store.deleted)
}

func TestListSubjectsAppliesPaginationDefaults(t *testing.T) {
	svc, store := newSubjectFixture()
	store.subjects["subj-1"] = &models.Subject{ID: "subj-1", Name: "Mathematics", SchoolID: "school-1"}

	_, pagination, err := svc.List(context.Background(), models.SubjectFilter{SchoolID: "school-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
