package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpapad/rangekeeper/internal/reliability"
)

// BackupJob ships a database backup archive to the object store
type BackupJob struct {
	backupSvc *reliability.BackupService
	timeout   time.Duration
	log       zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(backupSvc *reliability.BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backupSvc: backupSvc,
		timeout:   10 * time.Minute,
		log:       log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates and uploads a backup archive
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.backupSvc.CreateAndUpload(ctx)
}
