package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/synqlikk/internal/dbx"
	"github.com/dmitrijs2005/synqlikk/internal/logging"
	"github.com/dmitrijs2005/synqlikk/internal/models"
	sc "github.com/dmitrijs2005/synqlikk/internal/server/config"
	"github.com/dmitrijs2005/synqlikk/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const archiveBatchSize = 500

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}

	archiveNow = time.Now
)

// ArchiveDocument is the JSON object written to the bucket for one batch.
type ArchiveDocument struct {
	Kind       models.Kind      `json:"kind"`
	ArchivedAt time.Time        `json:"archived_at"`
	Cutoff     time.Time        `json:"cutoff"`
	Records    []*models.Record `json:"records"`
}

// ArchiveService moves tombstones older than the retention window out of
// PostgreSQL into S3. Devices that have not synced for longer than the
// window will not learn about those deletions.
type ArchiveService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
	client      objectPutter
}

func NewArchiveService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *ArchiveService {
	return &ArchiveService{db: db, repomanager: m, config: cfg, logger: logger.With("module", "archive")}
}

func (s *ArchiveService) getClient(ctx context.Context) (objectPutter, error) {
	if s.client != nil {
		return s.client, nil
	}
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	s.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return s.client, nil
}

// Run archives once per ArchiveInterval until ctx is done. Failed passes
// are logged and retried on the next tick.
func (s *ArchiveService) Run(ctx context.Context) error {
	if !s.config.ArchiveEnabled() {
		s.logger.Info(ctx, "tombstone archiving disabled")
		return nil
	}

	ticker := time.NewTicker(s.config.ArchiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n, err := s.ArchiveOnce(ctx); err != nil {
				s.logger.Error(ctx, "archive pass failed", "error", err)
			} else if n > 0 {
				s.logger.Info(ctx, "tombstones archived", "count", n)
			}
		}
	}
}

// ArchiveOnce uploads and removes one batch of old tombstones per kind.
// Rows are deleted only after their batch is stored.
func (s *ArchiveService) ArchiveOnce(ctx context.Context) (int64, error) {
	now := archiveNow().UTC()
	cutoff := now.Add(-s.config.TombstoneRetention)

	var total int64
	for _, kind := range models.Kinds {
		recs, err := s.repomanager.Records(s.db).ListTombstones(ctx, kind, cutoff, archiveBatchSize)
		if err != nil {
			return total, fmt.Errorf("error listing %s tombstones: %w", kind, err)
		}
		if len(recs) == 0 {
			continue
		}

		key, err := s.upload(ctx, &ArchiveDocument{Kind: kind, ArchivedAt: now, Cutoff: cutoff, Records: recs})
		if err != nil {
			return total, err
		}

		ids := make([]string, len(recs))
		for i, r := range recs {
			ids[i] = r.ID
		}

		var n int64
		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			n, err = s.repomanager.Records(tx).DeleteTombstones(ctx, kind, ids)
			return err
		})
		if err != nil {
			return total, fmt.Errorf("error deleting %s tombstones: %w", kind, err)
		}
		s.logger.Debug(ctx, "tombstone batch archived", "kind", kind, "key", key, "listed", len(ids), "deleted", n)
		total += n
	}
	return total, nil
}

func archiveKey(kind models.Kind, at time.Time) string {
	return fmt.Sprintf("tombstones/%s/%04d/%02d/%02d/%s.json", kind, at.Year(), at.Month(), at.Day(), uuid.NewString())
}

func (s *ArchiveService) upload(ctx context.Context, doc *ArchiveDocument) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}

	key := archiveKey(doc.Kind, doc.ArchivedAt)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}
