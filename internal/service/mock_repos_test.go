package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"classhub/backend/internal/model"
	"classhub/backend/internal/repository"
	pkgerrors "classhub/backend/pkg/errors"
)

// ── in-memory store shared by the mock repositories ──
//
// Mirrors the database constraints the services rely on: partial unique indexes
// surface as gorm.ErrDuplicatedKey, soft-deleted rows are invisible, versioned
// updates fail with ErrOptimisticLock, and the Preloads of the gorm repositories
// are reproduced on read.

type memStore struct {
	mu sync.Mutex

	users            map[string]*model.User
	assistants       map[string]*model.TeacherAssistant
	companies        map[string]*model.Company
	branches         map[string]*model.Branch
	invitations      map[string]*model.Invitation
	courses          map[string]*model.Course
	enrollments      map[string]*model.StudentCourseRecord
	slots            map[string]*model.ClinicSlot
	sessions         map[string]*model.ClinicSession
	attendances      map[string]*model.ClinicAttendance
	records          map[string]*model.ClinicRecord
	runs             []*model.ClinicBatchRun
	courseProgress   map[string]*model.CourseProgress
	personalProgress map[string]*model.PersonalProgress

	seq time.Duration // strictly increasing CreatedAt offsets
}

func newMemStore() *memStore {
	return &memStore{
		users:            make(map[string]*model.User),
		assistants:       make(map[string]*model.TeacherAssistant),
		companies:        make(map[string]*model.Company),
		branches:         make(map[string]*model.Branch),
		invitations:      make(map[string]*model.Invitation),
		courses:          make(map[string]*model.Course),
		enrollments:      make(map[string]*model.StudentCourseRecord),
		slots:            make(map[string]*model.ClinicSlot),
		sessions:         make(map[string]*model.ClinicSession),
		attendances:      make(map[string]*model.ClinicAttendance),
		records:          make(map[string]*model.ClinicRecord),
		courseProgress:   make(map[string]*model.CourseProgress),
		personalProgress: make(map[string]*model.PersonalProgress),
	}
}

var mockEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func (s *memStore) stamp() time.Time {
	s.seq += time.Second
	return mockEpoch.Add(s.seq)
}

func newID() string { return uuid.NewString() }

func deletedNow() *time.Time {
	now := time.Now()
	return &now
}

// newMockRepository wires every repository interface onto one memStore
func newMockRepository() (*repository.Repository, *memStore) {
	st := newMemStore()
	return &repository.Repository{
		User:             &mockUserRepo{st},
		TeacherAssistant: &mockTeacherAssistantRepo{st},
		Company:          &mockCompanyRepo{st},
		Branch:           &mockBranchRepo{st},
		Invitation:       &mockInvitationRepo{st},
		Course:           &mockCourseRepo{st},
		Enrollment:       &mockEnrollmentRepo{st},
		ClinicSlot:       &mockClinicSlotRepo{st},
		ClinicSession:    &mockClinicSessionRepo{st},
		ClinicAttendance: &mockClinicAttendanceRepo{st},
		ClinicRecord:     &mockClinicRecordRepo{st},
		ClinicBatchRun:   &mockClinicBatchRunRepo{st},
		CourseProgress:   &mockCourseProgressRepo{st},
		PersonalProgress: &mockPersonalProgressRepo{st},
	}, st
}

// ── User ──

type mockUserRepo struct{ st *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, u := range m.st.users {
		if u.DeletedAt == nil && u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = newID()
	}
	user.CreatedAt = m.st.stamp()
	user.Version = 1
	c := *user
	m.st.users[user.UserID] = &c
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if u, ok := m.st.users[id]; ok && u.DeletedAt == nil {
		c := *u
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, u := range m.st.users {
		if u.DeletedAt == nil && u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.User
	for _, id := range ids {
		if u, ok := m.st.users[id]; ok && u.DeletedAt == nil {
			list = append(list, *u)
		}
	}
	return list, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

// ── TeacherAssistant ──

type mockTeacherAssistantRepo struct{ st *memStore }

func (m *mockTeacherAssistantRepo) Create(_ context.Context, ta *model.TeacherAssistant) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.assistants {
		if x.DeletedAt == nil && x.TeacherID == ta.TeacherID && x.AssistantID == ta.AssistantID {
			return gorm.ErrDuplicatedKey
		}
	}
	if ta.TeacherAssistantID == "" {
		ta.TeacherAssistantID = newID()
	}
	ta.CreatedAt = m.st.stamp()
	c := *ta
	m.st.assistants[ta.TeacherAssistantID] = &c
	return nil
}

func (m *mockTeacherAssistantRepo) Exists(_ context.Context, teacherID, assistantID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.assistants {
		if x.DeletedAt == nil && x.TeacherID == teacherID && x.AssistantID == assistantID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherAssistantRepo) ListTeacherIDs(_ context.Context, assistantID string) ([]string, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var ids []string
	for _, x := range m.st.assistants {
		if x.DeletedAt == nil && x.AssistantID == assistantID {
			ids = append(ids, x.TeacherID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockTeacherAssistantRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.TeacherAssistant, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.TeacherAssistant
	for _, x := range m.st.assistants {
		if x.DeletedAt == nil && x.TeacherID == teacherID {
			list = append(list, *x)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// ── Company / Branch ──

type mockCompanyRepo struct{ st *memStore }

func (m *mockCompanyRepo) Create(_ context.Context, company *model.Company) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if company.CompanyID == "" {
		company.CompanyID = newID()
	}
	company.CreatedAt = m.st.stamp()
	c := *company
	m.st.companies[company.CompanyID] = &c
	return nil
}

func (m *mockCompanyRepo) GetByID(_ context.Context, id string) (*model.Company, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.companies[id]; ok && x.DeletedAt == nil {
		c := *x
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCompanyRepo) List(_ context.Context, ownerID string) ([]model.Company, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.Company
	for _, x := range m.st.companies {
		if x.DeletedAt == nil && (ownerID == "" || x.OwnerID == ownerID) {
			list = append(list, *x)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (m *mockCompanyRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.companies[id]; ok {
		x.DeletedAt = deletedNow()
	}
	return nil
}

type mockBranchRepo struct{ st *memStore }

func (m *mockBranchRepo) Create(_ context.Context, branch *model.Branch) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if branch.BranchID == "" {
		branch.BranchID = newID()
	}
	branch.CreatedAt = m.st.stamp()
	c := *branch
	c.Company = nil
	m.st.branches[branch.BranchID] = &c
	return nil
}

func (m *mockBranchRepo) GetByID(_ context.Context, id string) (*model.Branch, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	x, ok := m.st.branches[id]
	if !ok || x.DeletedAt != nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *x
	if co, ok := m.st.companies[x.CompanyID]; ok {
		cc := *co
		c.Company = &cc
	}
	return &c, nil
}

func (m *mockBranchRepo) ListByCompany(_ context.Context, companyID string) ([]model.Branch, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.Branch
	for _, x := range m.st.branches {
		if x.DeletedAt == nil && x.CompanyID == companyID {
			list = append(list, *x)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (m *mockBranchRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.branches[id]; ok {
		x.DeletedAt = deletedNow()
	}
	return nil
}

// ── Invitation ──

type mockInvitationRepo struct{ st *memStore }

func (m *mockInvitationRepo) Create(_ context.Context, inv *model.Invitation) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.invitations {
		if x.DeletedAt == nil && x.Code == inv.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	if inv.InvitationID == "" {
		inv.InvitationID = newID()
	}
	inv.CreatedAt = m.st.stamp()
	inv.Version = 1
	c := *inv
	m.st.invitations[inv.InvitationID] = &c
	return nil
}

func (m *mockInvitationRepo) GetByCode(_ context.Context, code string) (*model.Invitation, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.invitations {
		if x.DeletedAt == nil && x.Code == code {
			c := *x
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvitationRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.Invitation, error) {
	return m.GetByCode(ctx, code)
}

func (m *mockInvitationRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.Invitation, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.Invitation
	for _, x := range m.st.invitations {
		if x.DeletedAt == nil && x.TeacherID == teacherID {
			list = append(list, *x)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *mockInvitationRepo) MarkUsed(_ context.Context, invitationID, userID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.invitations[invitationID]; ok {
		now := time.Now()
		uid := userID
		x.UsedAt = &now
		x.UsedBy = &uid
		x.Version++
	}
	return nil
}

// ── Course ──

type mockCourseRepo struct{ st *memStore }

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if course.CourseID == "" {
		course.CourseID = newID()
	}
	course.CreatedAt = m.st.stamp()
	course.Version = 1
	c := *course
	c.Teacher = nil
	m.st.courses[course.CourseID] = &c
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	x, ok := m.st.courses[id]
	if !ok || x.DeletedAt != nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *x
	if u, ok := m.st.users[x.TeacherID]; ok {
		uc := *u
		c.Teacher = &uc
	}
	return &c, nil
}

func (m *mockCourseRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.Course, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.Course
	for _, x := range m.st.courses {
		if x.DeletedAt == nil && x.TeacherID == teacherID {
			list = append(list, *x)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartDate.After(list[j].StartDate) })
	return list, nil
}

func (m *mockCourseRepo) ListByIDs(_ context.Context, ids []string) ([]model.Course, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.Course
	for _, id := range ids {
		if x, ok := m.st.courses[id]; ok && x.DeletedAt == nil {
			list = append(list, *x)
		}
	}
	return list, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	x, ok := m.st.courses[course.CourseID]
	if !ok || x.DeletedAt != nil || x.Version != course.Version {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version++
	c := *course
	c.Teacher = nil
	m.st.courses[course.CourseID] = &c
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.courses[id]; ok {
		x.DeletedAt = deletedNow()
	}
	return nil
}

// ── StudentCourseRecord ──

type mockEnrollmentRepo struct{ st *memStore }

func (m *mockEnrollmentRepo) Create(_ context.Context, rec *model.StudentCourseRecord) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.enrollments {
		if x.DeletedAt == nil && x.StudentID == rec.StudentID && x.CourseID == rec.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	if rec.StudentCourseRecordID == "" {
		rec.StudentCourseRecordID = newID()
	}
	rec.CreatedAt = m.st.stamp()
	c := *rec
	c.Student, c.Course = nil, nil
	m.st.enrollments[rec.StudentCourseRecordID] = &c
	return nil
}

// withRelations reproduces Preload("Student").Preload("Course"); caller holds the lock
func (m *mockEnrollmentRepo) withRelations(x *model.StudentCourseRecord) model.StudentCourseRecord {
	c := *x
	if u, ok := m.st.users[x.StudentID]; ok {
		uc := *u
		c.Student = &uc
	}
	if co, ok := m.st.courses[x.CourseID]; ok {
		cc := *co
		c.Course = &cc
	}
	return c
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.StudentCourseRecord, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	x, ok := m.st.enrollments[id]
	if !ok || x.DeletedAt != nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := m.withRelations(x)
	return &c, nil
}

func (m *mockEnrollmentRepo) GetByStudentAndCourse(_ context.Context, studentID, courseID string) (*model.StudentCourseRecord, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.enrollments {
		if x.DeletedAt == nil && x.StudentID == studentID && x.CourseID == courseID {
			c := *x
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) list(match func(*model.StudentCourseRecord) bool) []model.StudentCourseRecord {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.StudentCourseRecord
	for _, x := range m.st.enrollments {
		if x.DeletedAt == nil && match(x) {
			list = append(list, m.withRelations(x))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

func (m *mockEnrollmentRepo) ListByCourse(_ context.Context, courseID string) ([]model.StudentCourseRecord, error) {
	return m.list(func(x *model.StudentCourseRecord) bool { return x.CourseID == courseID }), nil
}

// courseAlive mirrors the join on alive courses; caller holds the lock
func (m *mockEnrollmentRepo) courseAlive(x *model.StudentCourseRecord) bool {
	co, ok := m.st.courses[x.CourseID]
	return ok && co.DeletedAt == nil
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.StudentCourseRecord, error) {
	return m.list(func(x *model.StudentCourseRecord) bool { return x.StudentID == studentID && m.courseAlive(x) }), nil
}

func (m *mockEnrollmentRepo) ListWithDefaultSlot(_ context.Context) ([]model.StudentCourseRecord, error) {
	return m.list(func(x *model.StudentCourseRecord) bool { return x.DefaultClinicSlotID != nil && m.courseAlive(x) }), nil
}

func (m *mockEnrollmentRepo) ExistsForTeacher(_ context.Context, teacherID, studentID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.enrollments {
		if x.DeletedAt != nil || x.StudentID != studentID {
			continue
		}
		if co, ok := m.st.courses[x.CourseID]; ok && co.DeletedAt == nil && co.TeacherID == teacherID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEnrollmentRepo) UpdateDefaultSlot(_ context.Context, id string, slotID *string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.enrollments[id]; ok && x.DeletedAt == nil {
		x.DefaultClinicSlotID = slotID
	}
	return nil
}

func (m *mockEnrollmentRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.enrollments[id]; ok {
		x.DeletedAt = deletedNow()
	}
	return nil
}

func (m *mockEnrollmentRepo) DeleteByCourse(_ context.Context, courseID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.enrollments {
		if x.DeletedAt == nil && x.CourseID == courseID {
			x.DeletedAt = deletedNow()
		}
	}
	return nil
}

// ── ClinicSlot ──

type mockClinicSlotRepo struct{ st *memStore }

func (m *mockClinicSlotRepo) Create(_ context.Context, slot *model.ClinicSlot) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if slot.ClinicSlotID == "" {
		slot.ClinicSlotID = newID()
	}
	slot.CreatedAt = m.st.stamp()
	slot.Version = 1
	c := *slot
	m.st.slots[slot.ClinicSlotID] = &c
	return nil
}

func (m *mockClinicSlotRepo) GetByID(_ context.Context, id string) (*model.ClinicSlot, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.slots[id]; ok && x.DeletedAt == nil {
		c := *x
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// branchAlive mirrors the branch subquery of ActiveOnly; caller holds the lock
func (m *mockClinicSlotRepo) branchAlive(id string) bool {
	b, ok := m.st.branches[id]
	return ok && b.DeletedAt == nil
}

func (m *mockClinicSlotRepo) List(_ context.Context, f repository.ClinicSlotFilter) ([]model.ClinicSlot, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.ClinicSlot
	for _, x := range m.st.slots {
		if x.DeletedAt != nil ||
			(f.TeacherID != "" && x.TeacherID != f.TeacherID) ||
			(f.BranchID != "" && x.BranchID != f.BranchID) ||
			(f.ActiveOnly && (!x.IsActive || !m.branchAlive(x.BranchID))) {
			continue
		}
		list = append(list, *x)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].DayOfWeek != list[j].DayOfWeek {
			return list[i].DayOfWeek < list[j].DayOfWeek
		}
		return list[i].StartTime < list[j].StartTime
	})
	return list, nil
}

func (m *mockClinicSlotRepo) Update(_ context.Context, slot *model.ClinicSlot) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	x, ok := m.st.slots[slot.ClinicSlotID]
	if !ok || x.DeletedAt != nil || x.Version != slot.Version {
		return pkgerrors.ErrOptimisticLock
	}
	slot.Version++
	c := *slot
	m.st.slots[slot.ClinicSlotID] = &c
	return nil
}

func (m *mockClinicSlotRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.slots[id]; ok {
		x.IsActive = false
		x.DeletedAt = deletedNow()
	}
	return nil
}

// ── ClinicSession ──

type mockClinicSessionRepo struct{ st *memStore }

// conflict reproduces uq_clinic_sessions_slot_date; caller holds the lock
func (m *mockClinicSessionRepo) conflict(s *model.ClinicSession) bool {
	if s.SessionType != model.SessionTypeRegular || s.ClinicSlotID == nil {
		return false
	}
	for _, x := range m.st.sessions {
		if x.DeletedAt == nil && x.SessionType == model.SessionTypeRegular &&
			x.ClinicSlotID != nil && *x.ClinicSlotID == *s.ClinicSlotID &&
			x.SessionDate.Equal(s.SessionDate) {
			return true
		}
	}
	return false
}

func (m *mockClinicSessionRepo) insert(s *model.ClinicSession) {
	if s.ClinicSessionID == "" {
		s.ClinicSessionID = newID()
	}
	s.CreatedAt = m.st.stamp()
	c := *s
	m.st.sessions[s.ClinicSessionID] = &c
}

func (m *mockClinicSessionRepo) Create(_ context.Context, session *model.ClinicSession) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.conflict(session) {
		return gorm.ErrDuplicatedKey
	}
	m.insert(session)
	return nil
}

func (m *mockClinicSessionRepo) CreateIfAbsent(_ context.Context, session *model.ClinicSession) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.conflict(session) {
		return false, nil
	}
	m.insert(session)
	return true, nil
}

func (m *mockClinicSessionRepo) GetByID(_ context.Context, id string) (*model.ClinicSession, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.sessions[id]; ok && x.DeletedAt == nil {
		c := *x
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClinicSessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ClinicSession, error) {
	return m.GetByID(ctx, id)
}

func (m *mockClinicSessionRepo) List(_ context.Context, f repository.ClinicSessionFilter) ([]model.ClinicSession, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.ClinicSession
	for _, x := range m.st.sessions {
		if x.DeletedAt != nil ||
			(f.TeacherID != "" && x.TeacherID != f.TeacherID) ||
			(f.BranchID != "" && x.BranchID != f.BranchID) ||
			(f.SessionType != "" && x.SessionType != f.SessionType) ||
			(f.From != nil && x.SessionDate.Before(*f.From)) ||
			(f.To != nil && x.SessionDate.After(*f.To)) ||
			(!f.IncludeCanceled && x.Canceled) {
			continue
		}
		list = append(list, *x)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].SessionDate.Equal(list[j].SessionDate) {
			return list[i].SessionDate.Before(list[j].SessionDate)
		}
		return list[i].StartTime < list[j].StartTime
	})
	return list, nil
}

func (m *mockClinicSessionRepo) Cancel(_ context.Context, id string, at time.Time) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.sessions[id]; ok && x.DeletedAt == nil {
		t := at
		x.Canceled = true
		x.CanceledAt = &t
	}
	return nil
}

// ── ClinicAttendance ──

type mockClinicAttendanceRepo struct{ st *memStore }

func (m *mockClinicAttendanceRepo) conflict(sessionID, recordID, exceptID string) bool {
	for _, x := range m.st.attendances {
		if x.DeletedAt == nil && x.ClinicAttendanceID != exceptID &&
			x.ClinicSessionID == sessionID && x.StudentCourseRecordID == recordID {
			return true
		}
	}
	return false
}

func (m *mockClinicAttendanceRepo) insert(att *model.ClinicAttendance) {
	if att.ClinicAttendanceID == "" {
		att.ClinicAttendanceID = newID()
	}
	att.CreatedAt = m.st.stamp()
	c := *att
	c.Session, c.StudentCourseRecord = nil, nil
	m.st.attendances[att.ClinicAttendanceID] = &c
}

func (m *mockClinicAttendanceRepo) Create(_ context.Context, att *model.ClinicAttendance) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.conflict(att.ClinicSessionID, att.StudentCourseRecordID, "") {
		return gorm.ErrDuplicatedKey
	}
	m.insert(att)
	return nil
}

func (m *mockClinicAttendanceRepo) CreateIfAbsent(_ context.Context, att *model.ClinicAttendance) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.conflict(att.ClinicSessionID, att.StudentCourseRecordID, "") {
		return false, nil
	}
	m.insert(att)
	return true, nil
}

func (m *mockClinicAttendanceRepo) GetByID(_ context.Context, id string) (*model.ClinicAttendance, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	x, ok := m.st.attendances[id]
	if !ok || x.DeletedAt != nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *x
	if s, ok := m.st.sessions[x.ClinicSessionID]; ok {
		sc := *s
		c.Session = &sc
	}
	if r, ok := m.st.enrollments[x.StudentCourseRecordID]; ok {
		rc := *r
		c.StudentCourseRecord = &rc
	}
	return &c, nil
}

func (m *mockClinicAttendanceRepo) Exists(_ context.Context, sessionID, recordID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return m.conflict(sessionID, recordID, ""), nil
}

func (m *mockClinicAttendanceRepo) CountBySession(_ context.Context, sessionID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for _, x := range m.st.attendances {
		if x.DeletedAt == nil && x.ClinicSessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (m *mockClinicAttendanceRepo) CountBySessions(ctx context.Context, sessionIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(sessionIDs))
	for _, id := range sessionIDs {
		n, _ := m.CountBySession(ctx, id)
		if n > 0 {
			result[id] = n
		}
	}
	return result, nil
}

func (m *mockClinicAttendanceRepo) ListBySession(ctx context.Context, sessionID string) ([]model.ClinicAttendance, error) {
	return m.ListBySessions(ctx, []string{sessionID})
}

func (m *mockClinicAttendanceRepo) ListBySessions(_ context.Context, sessionIDs []string) ([]model.ClinicAttendance, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	var list []model.ClinicAttendance
	for _, x := range m.st.attendances {
		if x.DeletedAt != nil || !want[x.ClinicSessionID] {
			continue
		}
		c := *x
		if r, ok := m.st.enrollments[x.StudentCourseRecordID]; ok {
			rc := *r
			if u, ok := m.st.users[r.StudentID]; ok {
				uc := *u
				rc.Student = &uc
			}
			c.StudentCourseRecord = &rc
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (m *mockClinicAttendanceRepo) ListByRecordsInRange(_ context.Context, recordIDs []string, from, to time.Time) ([]model.ClinicAttendance, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	want := make(map[string]bool, len(recordIDs))
	for _, id := range recordIDs {
		want[id] = true
	}
	var list []model.ClinicAttendance
	for _, x := range m.st.attendances {
		if x.DeletedAt != nil || !want[x.StudentCourseRecordID] {
			continue
		}
		s, ok := m.st.sessions[x.ClinicSessionID]
		if !ok || s.DeletedAt != nil || s.SessionDate.Before(from) || s.SessionDate.After(to) {
			continue
		}
		c := *x
		sc := *s
		c.Session = &sc
		list = append(list, c)
	}
	// reverse creation order so the service's own sort is what is observed
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *mockClinicAttendanceRepo) MoveToSession(_ context.Context, id, sessionID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	x, ok := m.st.attendances[id]
	if !ok || x.DeletedAt != nil {
		return nil
	}
	if m.conflict(sessionID, x.StudentCourseRecordID, id) {
		return gorm.ErrDuplicatedKey
	}
	x.ClinicSessionID = sessionID
	return nil
}

func (m *mockClinicAttendanceRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.attendances[id]; ok {
		x.DeletedAt = deletedNow()
	}
	return nil
}

// ── ClinicRecord ──

type mockClinicRecordRepo struct{ st *memStore }

func (m *mockClinicRecordRepo) Create(_ context.Context, rec *model.ClinicRecord) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.records {
		if x.DeletedAt == nil && x.ClinicAttendanceID == rec.ClinicAttendanceID {
			return gorm.ErrDuplicatedKey
		}
	}
	if rec.ClinicRecordID == "" {
		rec.ClinicRecordID = newID()
	}
	rec.CreatedAt = m.st.stamp()
	rec.Version = 1
	c := *rec
	m.st.records[rec.ClinicRecordID] = &c
	return nil
}

func (m *mockClinicRecordRepo) GetByID(_ context.Context, id string) (*model.ClinicRecord, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.records[id]; ok && x.DeletedAt == nil {
		c := *x
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClinicRecordRepo) GetByAttendance(_ context.Context, attendanceID string) (*model.ClinicRecord, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.records {
		if x.DeletedAt == nil && x.ClinicAttendanceID == attendanceID {
			c := *x
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClinicRecordRepo) ListByAttendances(_ context.Context, attendanceIDs []string) ([]model.ClinicRecord, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	want := make(map[string]bool, len(attendanceIDs))
	for _, id := range attendanceIDs {
		want[id] = true
	}
	var list []model.ClinicRecord
	for _, x := range m.st.records {
		if x.DeletedAt == nil && want[x.ClinicAttendanceID] {
			list = append(list, *x)
		}
	}
	return list, nil
}

func (m *mockClinicRecordRepo) Update(_ context.Context, rec *model.ClinicRecord) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	x, ok := m.st.records[rec.ClinicRecordID]
	if !ok || x.DeletedAt != nil || x.Version != rec.Version {
		return pkgerrors.ErrOptimisticLock
	}
	rec.Version++
	c := *rec
	m.st.records[rec.ClinicRecordID] = &c
	return nil
}

func (m *mockClinicRecordRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.records[id]; ok {
		x.DeletedAt = deletedNow()
	}
	return nil
}

func (m *mockClinicRecordRepo) DeleteByAttendance(_ context.Context, attendanceID string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, x := range m.st.records {
		if x.DeletedAt == nil && x.ClinicAttendanceID == attendanceID {
			x.DeletedAt = deletedNow()
		}
	}
	return nil
}

// ── ClinicBatchRun ──

type mockClinicBatchRunRepo struct{ st *memStore }

func (m *mockClinicBatchRunRepo) Create(_ context.Context, run *model.ClinicBatchRun) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if run.ClinicBatchRunID == "" {
		run.ClinicBatchRunID = newID()
	}
	run.CreatedAt = m.st.stamp()
	c := *run
	m.st.runs = append(m.st.runs, &c)
	return nil
}

func (m *mockClinicBatchRunRepo) ListRecent(_ context.Context, limit int) ([]model.ClinicBatchRun, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var list []model.ClinicBatchRun
	for i := len(m.st.runs) - 1; i >= 0 && (limit <= 0 || len(list) < limit); i-- {
		list = append(list, *m.st.runs[i])
	}
	return list, nil
}

// ── Progress ──

type mockCourseProgressRepo struct{ st *memStore }

func (m *mockCourseProgressRepo) Create(_ context.Context, p *model.CourseProgress) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if p.CourseProgressID == "" {
		p.CourseProgressID = newID()
	}
	p.CreatedAt = m.st.stamp()
	c := *p
	m.st.courseProgress[p.CourseProgressID] = &c
	return nil
}

func (m *mockCourseProgressRepo) GetByID(_ context.Context, id string) (*model.CourseProgress, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.courseProgress[id]; ok && x.DeletedAt == nil {
		c := *x
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseProgressRepo) ListByCourses(_ context.Context, courseIDs []string, from, to time.Time) ([]model.CourseProgress, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	want := make(map[string]bool, len(courseIDs))
	for _, id := range courseIDs {
		want[id] = true
	}
	var list []model.CourseProgress
	for _, x := range m.st.courseProgress {
		if x.DeletedAt == nil && want[x.CourseID] && !x.ProgressDate.Before(from) && !x.ProgressDate.After(to) {
			list = append(list, *x)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *mockCourseProgressRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.courseProgress[id]; ok {
		x.DeletedAt = deletedNow()
	}
	return nil
}

type mockPersonalProgressRepo struct{ st *memStore }

func (m *mockPersonalProgressRepo) Create(_ context.Context, p *model.PersonalProgress) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if p.PersonalProgressID == "" {
		p.PersonalProgressID = newID()
	}
	p.CreatedAt = m.st.stamp()
	c := *p
	m.st.personalProgress[p.PersonalProgressID] = &c
	return nil
}

func (m *mockPersonalProgressRepo) GetByID(_ context.Context, id string) (*model.PersonalProgress, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.personalProgress[id]; ok && x.DeletedAt == nil {
		c := *x
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonalProgressRepo) ListByRecords(_ context.Context, recordIDs []string, from, to time.Time) ([]model.PersonalProgress, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	want := make(map[string]bool, len(recordIDs))
	for _, id := range recordIDs {
		want[id] = true
	}
	var list []model.PersonalProgress
	for _, x := range m.st.personalProgress {
		if x.DeletedAt == nil && want[x.StudentCourseRecordID] && !x.ProgressDate.Before(from) && !x.ProgressDate.After(to) {
			list = append(list, *x)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *mockPersonalProgressRepo) Delete(_ context.Context, id string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if x, ok := m.st.personalProgress[id]; ok {
		x.DeletedAt = deletedNow()
	}
	return nil
}
