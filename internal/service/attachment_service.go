package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
)

// AttachmentService 明细行附件上传到对象存储
type AttachmentService struct {
	warranty *WarrantyService
	repo     *repository.WarrantyRepository
	client   *minio.Client
	bucket   string
}

func NewAttachmentService(warranty *WarrantyService, repo *repository.WarrantyRepository, client *minio.Client, bucket string) *AttachmentService {
	return &AttachmentService{warranty: warranty, repo: repo, client: client, bucket: bucket}
}

// Upload 上传附件并登记在明细行上
func (s *AttachmentService) Upload(ctx context.Context, caseLineID, fileName, contentType string, size int64, reader io.Reader, actor Identity) (*entity.CaseLineAttachment, error) {
	if s.client == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}
	line, err := s.warranty.GetCaseLine(ctx, caseLineID)
	if err != nil {
		return nil, err
	}

	objectKey := fmt.Sprintf("caselines/%s/%s-%s", line.ID, time.Now().Format("20060102150405"), uuid.New().String()+path.Ext(fileName))
	_, err = s.client.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}

	att := &entity.CaseLineAttachment{
		CaseLineID:  line.ID,
		FileName:    fileName,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   size,
		UploadedBy:  actor.UserID,
	}
	if err := s.repo.CreateAttachment(ctx, att); err != nil {
		return nil, err
	}
	return att, nil
}

// PresignedURL 生成限时下载链接
func (s *AttachmentService) PresignedURL(ctx context.Context, objectKey string, expire time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expire, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return u.String(), nil
}
