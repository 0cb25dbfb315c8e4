package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"ielts_prep_backend/internal/model"
	"ielts_prep_backend/internal/repository"
	"ielts_prep_backend/internal/util"
	"ielts_prep_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StudyResourceService struct {
	ResourceRepo *repository.StudyResourceRepository
	Storage      *StorageService
}

func NewStudyResourceService(resourceRepo *repository.StudyResourceRepository, storage *StorageService) *StudyResourceService {
	return &StudyResourceService{
		ResourceRepo: resourceRepo,
		Storage:      storage,
	}
}

func (s *StudyResourceService) Create(resource *model.StudyResource) error {
	return s.ResourceRepo.Create(resource)
}

func (s *StudyResourceService) Get(id uint) (*model.StudyResource, error) {
	resource, err := s.ResourceRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResourceNotFound
		}
		return nil, err
	}
	return resource, nil
}

func (s *StudyResourceService) List(component model.Component, level string, page, pageSize int) ([]model.StudyResource, int64, error) {
	return s.ResourceRepo.List(component, level, page, pageSize)
}

func (s *StudyResourceService) Delete(id uint) error {
	return s.ResourceRepo.Delete(id)
}

// UploadAudio 听力/口语音频上传：先落临时文件做 MIME 校验和时长探测，
// 通过后再推到对象存储
func (s *StudyResourceService) UploadAudio(ctx context.Context, resource *model.StudyResource, file *multipart.FileHeader) error {
	ext := filepath.Ext(file.Filename)
	allowed := false
	for _, e := range util.AllowedAudioExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("unsupported audio format: %s", ext)
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeAudio})
	if err != nil {
		return err
	}
	if _, err := src.Seek(0, 0); err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.ReadFrom(src); err != nil {
		return err
	}

	info, err := util.ProbeMedia(tmp.Name())
	if err != nil {
		logger.Log.Warn("media probe failed, storing without duration",
			zap.String("file", file.Filename), zap.Error(err))
	} else {
		resource.Duration = info.Duration
	}

	filename := fmt.Sprintf("audio/%d_%s", time.Now().UnixNano(), filepath.Base(file.Filename))
	url, err := s.Storage.UploadFile(ctx, filename, tmp.Name(), mimeType)
	if err != nil {
		return err
	}

	resource.URL = url
	if resource.Type == "" {
		resource.Type = "audio"
	}
	return s.ResourceRepo.Create(resource)
}
