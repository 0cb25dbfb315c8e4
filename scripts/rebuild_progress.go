// 手动重建全量用户进度快照脚本
//
// 进度快照在每次会话完成时增量更新。此脚本用于批量导入历史会话
// 或统计口径调整之后，对所有用户一次性重算。
//
// 用法: go run scripts/rebuild_progress.go
package main

import (
	"context"
	"log"

	"ielts_prep_backend/internal/config"
	"ielts_prep_backend/internal/repository"
	"ielts_prep_backend/internal/service"
	"ielts_prep_backend/pkg/database"
	"ielts_prep_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	logger.InitLogger(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewExamSessionRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	// 缓存与推荐引擎在脚本场景下不需要，Analytics 留空即可
	sessions := service.NewExamSessionService(sessionRepo, progressRepo, nil)

	ctx := context.Background()
	const pageSize = 200
	var rebuilt, failed int

	for page := 1; ; page++ {
		users, _, err := userRepo.List(page, pageSize, "")
		if err != nil {
			log.Fatalf("读取用户列表失败: %v", err)
		}
		if len(users) == 0 {
			break
		}

		for _, u := range users {
			if err := sessions.RecomputeProgress(ctx, u.ID); err != nil {
				log.Printf("用户 %d 进度重建失败: %v", u.ID, err)
				failed++
				continue
			}
			rebuilt++
		}
	}

	log.Printf("进度快照重建完成: 成功 %d, 失败 %d", rebuilt, failed)
}
