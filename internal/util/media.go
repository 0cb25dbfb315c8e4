package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MediaInfo 音视频文件的探测结果
type MediaInfo struct {
	Duration float64 `json:"duration"` // 秒
	Format   string  `json:"format"`
	Size     int64   `json:"size"`
}

// ProbeMedia 使用 ffmpeg 探测上传的听力/口语音频时长等元数据
func ProbeMedia(path string) (*MediaInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("媒体文件不存在: %v", err)
	}

	jsonOutput, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("获取媒体信息失败: %v", err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
			Size     string `json:"size"`
			Format   string `json:"format_name"`
		} `json:"format"`
	}

	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, fmt.Errorf("解析媒体信息失败: %v", err)
	}

	duration, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		duration = 0
	}

	size, err := strconv.ParseInt(result.Format.Size, 10, 64)
	if err != nil {
		size = fileInfo.Size()
	}

	format := "unknown"
	if len(result.Format.Format) > 0 {
		formatParts := strings.Split(result.Format.Format, ",")
		if len(formatParts) > 0 {
			format = formatParts[0]
		}
	}

	return &MediaInfo{
		Duration: duration,
		Format:   format,
		Size:     size,
	}, nil
}

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "audio/", "application/pdf"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

// IsAudio 检测是否为音频
func IsAudio(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeAudio)
}
