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

type mockTeacherStore struct {
	teachers map[string]*models.Teacher
	created  []*models.Teacher
	deleted  []string
}

func (m *mockTeacherStore) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var result []models.Teacher
	for _, t := range m.teachers {
		result = append(result, *t)
	}
	return result, len(result), nil
}

func (m *mockTeacherStore) FindByID(ctx context.Context, schoolID, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok && t.SchoolID == schoolID {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, t := range m.teachers {
		if t.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherStore) Create(ctx context.Context, teacher *models.Teacher) error {
	teacher.ID = "teach-new"
	m.created = append(m.created, teacher)
	return nil
}

func (m *mockTeacherStore) Delete(ctx context.Context, schoolID, id string) error {
	if t, ok := m.teachers[id]; !ok || t.SchoolID != schoolID {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockAssignmentStore struct {
	existing map[string]bool
	created  []*models.TeacherAssignment
	deleted  []string
}

func assignmentTriple(teacherID, classID, subjectID string) string {
	return teacherID + "|" + classID + "|" + subjectID
}

func (m *mockAssignmentStore) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	var result []models.TeacherAssignmentDetail
	for _, a := range m.created {
		if a.TeacherID == teacherID {
			result = append(result, models.TeacherAssignmentDetail{TeacherAssignment: *a})
		}
	}
	return result, nil
}

func (m *mockAssignmentStore) Exists(ctx context.Context, teacherID, classID, subjectID string) (bool, error) {
	return m.existing[assignmentTriple(teacherID, classID, subjectID)], nil
}

func (m *mockAssignmentStore) Create(ctx context.Context, assignment *models.TeacherAssignment) error {
	assignment.ID = "assign-new"
	m.created = append(m.created, assignment)
	return nil
}

func (m *mockAssignmentStore) Delete(ctx context.Context, teacherID, classID, subjectID string) error {
	key := assignmentTriple(teacherID, classID, subjectID)
	if !m.existing[key] {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, key)
	return nil
}

type mockClassTeacherStore struct {
	classes map[string]*models.Class
	set     map[string]*string
}

func (m *mockClassTeacherStore) FindByID(ctx context.Context, schoolID, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok && c.SchoolID == schoolID {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassTeacherStore) SetClassTeacher(ctx context.Context, classID string, teacherID *string) error {
	if m.set == nil {
		m.set = make(map[string]*string)
	}
	m.set[classID] = teacherID
	if c, ok := m.classes[classID]; ok {
		c.ClassTeacherID = teacherID
	}
	return nil
}

func (m *mockClassTeacherStore) FindByClassTeacher(ctx context.Context, teacherID string) (*models.Class, error) {
	for _, c := range m.classes {
		if c.ClassTeacherID != nil && *c.ClassTeacherID == teacherID {
			return c, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockSubjectLookup struct {
	subjects map[string]*models.Subject
}

func (m *mockSubjectLookup) FindByID(ctx context.Context, schoolID, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok && s.SchoolID == schoolID {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func newTeacherFixture() (*TeacherService, *mockTeacherStore, *mockAssignmentStore, *mockClassTeacherStore) {
	teachers := &mockTeacherStore{teachers: map[string]*models.Teacher{
		"teach-1": {ID: "teach-1", Name: "Grace Mvula", Email: "grace@school.test", SchoolID: "school-1", IsActive: true},
	}}
	assignments := &mockAssignmentStore{existing: map[string]bool{}}
	classes := &mockClassTeacherStore{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", Name: "Form 1", SchoolID: "school-1"},
	}}
	subjects := &mockSubjectLookup{subjects: map[string]*models.Subject{
		"subj-1": {ID: "subj-1", Name: "Mathematics", SchoolID: "school-1"},
	}}
	svc := NewTeacherService(teachers, assignments, classes, subjects, nil, nil)
	return svc, teachers, assignments, classes
}

func TestCreateTeacherNormalisesEmail(t *testing.T) {
	svc, store, _, _ := newTeacherFixture()

	teacher, err := svc.Create(context.Background(), "school-1", dto.CreateTeacherRequest{
		Name:  "John Zulu",
		Email: "  John.Zulu@School.Test ",
	})
	require.NoError(t, err)
	assert.Equal(t, "john.zulu@school.test", teacher.Email)
	assert.True(t, teacher.IsActive)
	assert.Len(t, store.created, 1)
}

func TestCreateTeacherDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTeacherFixture()

	_, err := svc.Create(context.Background(), "school-1", dto.CreateTeacherRequest{
		Name:  "Grace Clone",
		Email: "grace@school.test",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignCreatesAssignment(t *testing.T) {
	svc, _, assignments, _ := newTeacherFixture()

	assignment, err := svc.Assign(context.Background(), "school-1", dto.AssignClassSubjectRequest{
		TeacherID: "teach-1",
		ClassID:   "class-1",
		SubjectID: "subj-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "teach-1", assignment.TeacherID)
	assert.Len(t, assignments.created, 1)
}

func TestAssignDuplicateIsConflict(t *testing.T) {
	svc, _, assignments, _ := newTeacherFixture()
	assignments.existing[assignmentTriple("teach-1", "class-1", "subj-1")] = true

	_, err := svc.Assign(context.Background(), "school-1", dto.AssignClassSubjectRequest{
		TeacherID: "teach-1",
		ClassID:   "class-1",
		SubjectID: "subj-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignChecksReferences(t *testing.T) {
	svc, _, _, _ := newTeacherFixture()

	cases := []dto.AssignClassSubjectRequest{
		{TeacherID: "teach-404", ClassID: "class-1", SubjectID: "subj-1"},
		{TeacherID: "teach-1", ClassID: "class-404", SubjectID: "subj-1"},
		{TeacherID: "teach-1", ClassID: "class-1", SubjectID: "subj-404"},
	}
	for _, req := range cases {
		_, err := svc.Assign(context.Background(), "school-1", req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	}
}

func TestUnassignUnknownAssignment(t *testing.T) {
	svc, _, _, _ := newTeacherFixture()

	err := svc.Unassign(context.Background(), "teach-1", "class-1", "subj-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignClassTeacherReplacesCurrent(t *testing.T) {
	svc, teachers, _, classes := newTeacherFixture()
	previous := "teach-0"
	classes.classes["class-1"].ClassTeacherID = &previous
	teachers.teachers["teach-1"].SchoolID = "school-1"

	err := svc.AssignClassTeacher(context.Background(), "school-1", dto.AssignClassTeacherRequest{
		TeacherID: "teach-1",
		ClassID:   "class-1",
	})
	require.NoError(t, err)
	require.NotNil(t, classes.set["class-1"])
	assert.Equal(t, "teach-1", *classes.set["class-1"])
}

func TestRemoveClassTeacher(t *testing.T) {
	svc, _, _, classes := newTeacherFixture()
	current := "teach-1"
	classes.classes["class-1"].ClassTeacherID = &current

	require.NoError(t, svc.RemoveClassTeacher(context.Background(), "school-1", "class-1"))
	set, ok := classes.set["class-1"]
	require.True(t, ok)
	assert.Nil(t, set)
}

func TestClassTeacherLookup(t *testing.T) {
	svc, _, _, classes := newTeacherFixture()

	teacher, err := svc.ClassTeacher(context.Background(), "school-1", "class-1")
	require.NoError(t, err)
	assert.Nil(t, teacher)

	current := "teach-1"
	classes.classes["class-1"].ClassTeacherID = &current
	teacher, err = svc.ClassTeacher(context.Background(), "school-1", "class-1")
	require.NoError(t, err)
	require.NotNil(t, teacher)
	assert.Equal(t, "Grace Mvula", teacher.Name)

	ok, err := svc.IsClassTeacher(context.Background(), "school-1", "teach-1", "class-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteTeacherScopedToSchool(t *testing.T) {
	svc, store, _, _ := newTeacherFixture()

	err := svc.Delete(context.Background(), "school-2", "teach-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.deleted)

	require.NoError(t, svc.Delete(context.Background(), "school-1", "teach-1"))
	assert.Equal(t, []string{"teach-1"}, store.deleted)
}
