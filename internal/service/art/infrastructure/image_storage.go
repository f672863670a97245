package infrastructure

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// UploadURLPrefix 是图片引用的前缀，HTTP 层在同一路径下提供静态文件
const UploadURLPrefix = "/uploads/"

// DiskImageStorage 把上传的图片保存到本地目录
type DiskImageStorage struct {
	dir string
}

func NewDiskImageStorage(dir string) (*DiskImageStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %s", dir)
	}
	return &DiskImageStorage{dir: dir}, nil
}

func (s *DiskImageStorage) Dir() string {
	return s.dir
}

// Save 以随机文件名保存图片，保留原始扩展名
func (s *DiskImageStorage) Save(_ context.Context, originalName string, content io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", errors.Wrap(err, "create image file")
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "write image file")
	}
	return UploadURLPrefix + name, nil
}

// Delete 删除引用对应的文件；文件已不存在时视为成功
func (s *DiskImageStorage) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	// 只取文件名部分，防止引用中带有路径穿越
	name := filepath.Base(strings.TrimPrefix(ref, UploadURLPrefix))
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete image %s", ref)
	}
	return nil
}
