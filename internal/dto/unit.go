package dto

// ComplementPointsResponse pairs a point value with the counterpart completing 100.
type ComplementPointsResponse struct {
	Value      int `json:"value"`
	Complement int `json:"complement"`
}

// AssignmentQuery filters the assignment catalog.
type AssignmentQuery struct {
	Year      int `form:"year" binding:"omitempty,min=2000,max=2100"`
	TeacherID int `form:"teacherId" binding:"omitempty,gt=0"`
}

// GradingQuery carries the assignment a grading sheet belongs to.
type GradingQuery struct {
	AssignmentID int `form:"assignmentId" binding:"required,gt=0"`
}

// ExportQuery selects the closure report format.
type ExportQuery struct {
	Format string `form:"format"`
}

// AuditQuery filters the unit audit trail.
type AuditQuery struct {
	Action string `form:"action"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
}
