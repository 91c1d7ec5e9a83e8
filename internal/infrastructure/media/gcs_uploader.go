package media

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/streamtube-backend/pkg/helpers"
)

// GCSUploader pushes buffered upload files into a Cloud Storage bucket and
// returns their public URLs. The local temp file is removed after the
// attempt, whether or not the upload succeeded.
type GCSUploader struct {
	Client *storage.Client
	Bucket string
	Folder string // object prefix, e.g. "media"
	Logger *logrus.Logger
}

func NewGCSUploader(client *storage.Client, bucket, folder string, logger *logrus.Logger) *GCSUploader {
	return &GCSUploader{Client: client, Bucket: bucket, Folder: folder, Logger: logger}
}

func (g *GCSUploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer g.cleanup(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	ext := strings.ToLower(filepath.Ext(localPath))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectPath := filepath.ToSlash(filepath.Join(g.Folder, uuid.NewString()+ext))

	return helpers.UploadObject(ctx, g.Client, g.Bucket, objectPath, contentType, f)
}

func (g *GCSUploader) cleanup(localPath string) {
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) && g.Logger != nil {
		g.Logger.WithError(err).WithField("path", localPath).Warn("temp file cleanup failed")
	}
}
