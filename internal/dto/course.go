package dto

// ── course / enrollment DTO ──

// CreateCourseRequest create a course
type CreateCourseRequest struct {
	BranchID    string `json:"branch_id"   binding:"required,uuid"`
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	StartDate   string `json:"start_date"  binding:"required,date"`
	EndDate     string `json:"end_date"    binding:"required,date"`
}

// UpdateCourseRequest partial update
type UpdateCourseRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	StartDate   *string `json:"start_date"  binding:"omitempty,date"`
	EndDate     *string `json:"end_date"    binding:"omitempty,date"`
}

// CourseResponse course
type CourseResponse struct {
	ID          string     `json:"id"`
	TeacherID   string     `json:"teacher_id"`
	Teacher     *UserBrief `json:"teacher,omitempty"`
	BranchID    string     `json:"branch_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Version     int        `json:"version"`
}

// EnrollRequest enroll a student into a course
type EnrollRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}

// SetDefaultSlotRequest set or clear (null) the default clinic slot
type SetDefaultSlotRequest struct {
	ClinicSlotID *string `json:"clinic_slot_id" binding:"omitempty,uuid"`
}

// EnrollmentResponse student course record
type EnrollmentResponse struct {
	ID                  string     `json:"id"`
	StudentID           string     `json:"student_id"`
	Student             *UserBrief `json:"student,omitempty"`
	CourseID            string     `json:"course_id"`
	CourseName          string     `json:"course_name,omitempty"`
	DefaultClinicSlotID *string    `json:"default_clinic_slot_id,omitempty"`
	CreatedAt           string     `json:"created_at"`
}
