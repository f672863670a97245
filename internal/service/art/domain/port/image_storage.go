package port

import (
	"context"
	"io"
)

// ImageStorage 保存上传的图片并返回稳定的引用（如 /uploads/xxx.jpg）
type ImageStorage interface {
	Save(ctx context.Context, originalName string, content io.Reader) (string, error)
	// Delete 删除引用对应的文件；文件不存在不算错误
	Delete(ctx context.Context, ref string) error
}
