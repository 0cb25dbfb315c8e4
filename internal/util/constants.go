package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 资源上传相关常量
const (
	MimeAudio       = "audio/"
	MimeVideo       = "video/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedAudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac"}
)
