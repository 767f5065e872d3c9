package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzati-dev/eduspace-portal-backend/internal/dto"
	"github.com/mzati-dev/eduspace-portal-backend/internal/models"
	appErrors "github.com/mzati-dev/eduspace-portal-backend/pkg/errors"
)

type mockClassStore struct {
	classes      map[string]*models.Class
	studentCount map[string]int
	created      []*models.Class
	deleted      []string
}

func (m *mockClassStore) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	var result []models.ClassDetail
	for _, c := range m.classes {
		result = append(result, models.ClassDetail{Class: *c, StudentCount: m.studentCount[c.ID]})
	}
	return result, len(result), nil
}

func (m *mockClassStore) FindByID(ctx context.Context, schoolID, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok && c.SchoolID == schoolID {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassStore) ExistsByNameYearTerm(ctx context.Context, schoolID, name, academicYear, term string) (bool, error) {
	for _, c := range m.classes {
		if c.SchoolID == schoolID && c.Name == name && c.AcademicYear == academicYear && c.Term == term {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClassStore) CountStudents(ctx context.Context, classID string) (int, error) {
	return m.studentCount[classID], nil
}

func (m *mockClassStore) Create(ctx context.Context, class *models.Class) error {
	class.ID = "class-new"
	m.created = append(m.created, class)
	return nil
}

func (m *mockClassStore) Delete(ctx context.Context, schoolID, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockClassRoster struct {
	roster map[string][]models.Student
}

func (m *mockClassRoster) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return m.roster[classID], nil
}

func newClassFixture() (*ClassService, *mockClassStore, *mockClassRoster) {
	store := &mockClassStore{classes: map[string]*models.Class{}, studentCount: map[string]int{}}
	roster := &mockClassRoster{roster: map[string][]models.Student{}}
	svc := NewClassService(store, roster, nil, nil)
	svc.randomID = func(n int) string { return "X4J9" }
	return svc, store, roster
}

func TestCreateClassGeneratesCode(t *testing.T) {
	svc, store, _ := newClassFixture()

	class, err := svc.Create(context.Background(), "school-1", dto.CreateClassRequest{
		Name:         "Form 1",
		AcademicYear: "2025/2026",
		Term:         "Term 1, 2025/2026",
	})
	require.NoError(t, err)

	assert.Equal(t, "FORM1-2025-2026-TE-X4J9", class.ClassCode)
	assert.Equal(t, "school-1", class.SchoolID)
	assert.Len(t, store.created, 1)
}

func TestCreateClassRejectsDuplicateTerm(t *testing.T) {
	svc, store, _ := newClassFixture()
	store.classes["class-1"] = &models.Class{
		ID: "class-1", Name: "Form 1", AcademicYear: "2025/2026", Term: "Term 1, 2025/2026", SchoolID: "school-1",
	}

	_, err := svc.Create(context.Background(), "school-1", dto.CreateClassRequest{
		Name:         "Form 1",
		AcademicYear: "2025/2026",
		Term:         "Term 1, 2025/2026",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, `"Form 1"`)
}

func TestCreateClassAllowsSameNameAcrossTerms(t *testing.T) {
	svc, store, _ := newClassFixture()
	store.classes["class-1"] = &models.Class{
		ID: "class-1", Name: "Form 1", AcademicYear: "2025/2026", Term: "Term 1, 2025/2026", SchoolID: "school-1",
	}

	_, err := svc.Create(context.Background(), "school-1", dto.CreateClassRequest{
		Name:         "Form 1",
		AcademicYear: "2025/2026",
		Term:         "Term 2, 2025/2026",
	})
	require.NoError(t, err)
}

func TestDeleteClassRefusedWhenNotEmpty(t *testing.T) {
	svc, store, _ := newClassFixture()
	store.classes["class-1"] = &models.Class{ID: "class-1", SchoolID: "school-1"}
	store.studentCount["class-1"] = 3

	err := svc.Delete(context.Background(), "school-1", "class-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClassNotEmpty.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.deleted)
}

func TestDeleteEmptyClass(t *testing.T) {
	svc, store, _ := newClassFixture()
	store.classes["class-1"] = &models.Class{ID: "class-1", SchoolID: "school-1"}

	require.NoError(t, svc.Delete(context.Background(), "school-1", "class-1"))
	assert.Equal(t, []string{"class-1"}, store.deleted)
}

func TestClassStudentsRequiresClassInSchool(t *testing.T) {
	svc, store, roster := newClassFixture()
	store.classes["class-1"] = &models.Class{ID: "class-1", SchoolID: "school-1"}
	roster.roster["class-1"] = []models.Student{{ID: "stu-1"}, {ID: "stu-2"}}

	students, err := svc.Students(context.Background(), "school-1", "class-1")
	require.NoError(t, err)
	assert.Len(t, students, 2)

	_, err = svc.Students(context.Background(), "school-2", "class-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
