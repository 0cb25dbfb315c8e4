package database

import (
	"fmt"
	"log"

	"ielts_prep_backend/internal/config"
	"ielts_prep_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.ExamSession{},
		&model.QuestionResult{},
		&model.UserProgress{},
		&model.UserPreference{},
		&model.StudyResource{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认学习资源（空库时种入各技能的入门材料）
	var count int64
	db.Model(&model.StudyResource{}).Count(&count)
	if count == 0 {
		defaultResources := []model.StudyResource{
			{Title: "学术阅读入门题组", Type: "practice_set", Component: model.Reading, Level: "beginner", Description: "短篇学术文章配套选择与判断题"},
			{Title: "图表作文范文精选", Type: "sample_answer", Component: model.Writing, Level: "intermediate", Description: "Task 1 高分范文与结构拆解"},
			{Title: "日常对话听力材料", Type: "audio", Component: model.Listening, Level: "beginner", Description: "语速适中的情景对话，带逐句文本"},
			{Title: "口语第二部分话题卡", Type: "practice_set", Component: model.Speaking, Level: "intermediate", Description: "常考话题卡与参考提纲"},
		}
		for _, r := range defaultResources {
			db.Create(&r)
		}
	}

	return db, nil
}
