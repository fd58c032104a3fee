package dto

// SelectionClassRequest switches the class a selection belongs to.
type SelectionClassRequest struct {
	ClassID string `json:"classId" validate:"required,max=64"`
}

// SelectStudentRequest adds or removes one student.
type SelectStudentRequest struct {
	StudentID string `json:"studentId" validate:"required,max=64"`
}

// SelectAllRequest adds many students at once.
type SelectAllRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,max=500,dive,required,max=64"`
}
