package utils

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var ErrUnsupportedFileType = errors.New("File type not supported. Please upload a valid image file.")

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

// StoreImage validates the extension allow-list, writes the file under the
// upload directory with a random name and returns the public URL path.
func StoreImage(ctx *gin.Context, file *multipart.FileHeader, subdir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))

	if !allowedImageExts[ext] {
		return "", ErrUnsupportedFileType
	}

	dir := filepath.Join(UploadDir(), subdir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext

	if err := ctx.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		return "", err
	}

	return "/uploads/" + subdir + "/" + name, nil
}
