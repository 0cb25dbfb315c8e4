package model

// UserPreference 学习偏好，推荐合成的可选输入
// swagger:model
type UserPreference struct {
	BaseModel
	UserID               uint        `gorm:"uniqueIndex;not null" json:"userId"`
	PreferredTimes       []string    `gorm:"serializer:json" json:"preferredTimes,omitempty"` // morning / afternoon / evening
	SessionLengthMinutes int         `gorm:"default:0" json:"sessionLengthMinutes"`
	SessionsPerWeek      int         `gorm:"default:0" json:"sessionsPerWeek"`
	MaxWeeklyHours       float64     `gorm:"default:0" json:"maxWeeklyHours"`
	Flexibility          string      `gorm:"size:20" json:"flexibility,omitempty"` // rigid / moderate / flexible
	Difficulty           string      `gorm:"size:20" json:"difficulty,omitempty"`  // gentle / standard / intensive
	FocusComponents      []Component `gorm:"serializer:json" json:"focusComponents,omitempty"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}
