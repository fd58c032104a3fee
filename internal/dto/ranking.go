package dto

// RankingQuery narrows a class ranking to specific subjects.
type RankingQuery struct {
	Subjects []string `form:"subject" validate:"omitempty,max=40,dive,required,max=64"`
}

// BroadsheetQuery selects the export format of a class broadsheet.
type BroadsheetQuery struct {
	Format   string   `form:"format" validate:"required,oneof=csv pdf"`
	Subjects []string `form:"subject" validate:"omitempty,max=40,dive,required,max=64"`
}
