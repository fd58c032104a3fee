package models

// Student is one enrollee of a class as seen by the report pipeline.
type Student struct {
	ID        string `db:"id" json:"id"`
	NIS       string `db:"nis" json:"nis"`
	FullName  string `db:"full_name" json:"full_name"`
	ClassID   string `db:"class_id" json:"class_id"`
	ClassName string `db:"class_name" json:"class_name"`
}
