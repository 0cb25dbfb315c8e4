package model

// StudyResource 备考学习资源（题库、范文、音频等）
// swagger:model
type StudyResource struct {
	BaseModel
	Title       string    `gorm:"size:200;not null" json:"title"`
	Type        string    `gorm:"size:30;not null" json:"type"` // practice_set / article / audio / video / sample_answer
	Component   Component `gorm:"type:enum('reading','writing','listening','speaking');index" json:"component"`
	Level       string    `gorm:"size:20;default:'intermediate'" json:"level"` // beginner / intermediate / advanced
	Description string    `gorm:"type:text" json:"description,omitempty"`
	URL         string    `gorm:"size:500" json:"url,omitempty"`
	Duration    float64   `gorm:"default:0" json:"duration,omitempty"` // 音视频时长（秒），上传时探测
	CreatorID   uint      `json:"creatorId"`
}

func (StudyResource) TableName() string {
	return "study_resources"
}
