package dto

// ── progress journal DTO ──

// CreateProgressRequest course or personal progress entry
type CreateProgressRequest struct {
	Date    string `json:"date"    binding:"required,date"`
	Title   string `json:"title"   binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"omitempty,max=10000"`
}

// DateRangeRequest inclusive [from, to]
type DateRangeRequest struct {
	From string `form:"from" binding:"required,date"`
	To   string `form:"to"   binding:"required,date"`
}

// CourseProgressResponse course journal entry
type CourseProgressResponse struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	Date      string `json:"date"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	WriterID  string `json:"writer_id"`
	CreatedAt string `json:"created_at"`
}

// PersonalProgressResponse per-student journal entry
type PersonalProgressResponse struct {
	ID                    string `json:"id"`
	StudentCourseRecordID string `json:"student_course_record_id"`
	Date                  string `json:"date"`
	Title                 string `json:"title"`
	Content               string `json:"content"`
	WriterID              string `json:"writer_id"`
	CreatedAt             string `json:"created_at"`
}
