package backup

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/psicopps/ppsadmin/internal/model"
	"github.com/psicopps/ppsadmin/internal/store"
	"github.com/psicopps/ppsadmin/internal/websocket"
)

// objectStore is an interface for testability.
type objectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, input *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, input *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

const uploadRetries = 3

// Manager runs snapshot backups to S3-compatible storage and restores from
// them. The database policy row (backup_config) decides whether backups run,
// which tables they cover and how many snapshots survive pruning.
type Manager struct {
	mu       sync.RWMutex
	status   Status
	callback StatusCallback

	config  *store.BackupConfigStore
	history *store.BackupHistoryStore
	tables  *store.TableStore
	client  objectStore
	hub     *websocket.Hub
	logger  *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new backup manager. The manager stays disabled when S3
// credentials are missing.
func NewManager(s3cfg S3Config, cs *store.BackupConfigStore, hs *store.BackupHistoryStore, ts *store.TableStore, hub *websocket.Hub, logger *slog.Logger, callback StatusCallback) *Manager {
	m := &Manager{
		config:   cs,
		history:  hs,
		tables:   ts,
		hub:      hub,
		logger:   logger,
		callback: callback,
		status:   Status{State: StateDisabled},
	}

	if s3cfg.AccessKey != "" && s3cfg.SecretKey != "" {
		m.client = newS3Client(s3cfg)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) broadcast(action string, id int64, extra map[string]any) {
	if m.hub != nil {
		m.hub.Broadcast(websocket.NewMessage("backup", action, id, extra))
	}
}

func (m *Manager) checkSchedule(ctx context.Context) {
	cfg, err := m.config.Get()
	if err != nil {
		m.logger.Error("read backup config", "error", err)
		return
	}
	if !cfg.Enabled {
		return
	}

	now := time.Now().UTC()
	if now.Format("15:04") != cfg.BackupTime {
		return
	}
	if cfg.Frequency == "weekly" && now.Weekday() != time.Sunday {
		return
	}
	// The ticker fires more than once per minute boundary on slow hosts;
	// last_backup_at keeps a day from getting two scheduled runs.
	if cfg.LastBackupAt != nil {
		last := cfg.LastBackupAt.UTC()
		if last.Year() == now.Year() && last.YearDay() == now.YearDay() {
			return
		}
	}

	if _, err := m.RunBackup(ctx, model.BackupTypeAutomatic); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
	}
}

// RunBackup exports every configured table to a JSON snapshot, uploads it and
// prunes old snapshots per the retention rules. Exactly one backup or restore
// may run at a time.
func (m *Manager) RunBackup(ctx context.Context, backupType model.BackupType) (*model.BackupHistoryEntry, error) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return nil, fmt.Errorf("%w: storage credentials missing", ErrDisabled)
	}

	cfg, err := m.config.Get()
	if err != nil {
		return nil, fmt.Errorf("read backup config: %w", err)
	}
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if len(cfg.IncludeTables) == 0 {
		return nil, fmt.Errorf("backup config lists no tables")
	}

	running, err := m.history.HasRunning()
	if err != nil {
		return nil, fmt.Errorf("check running backups: %w", err)
	}
	if running {
		return nil, ErrBackupRunning
	}

	uid := uuid.NewString()
	entry, err := m.history.Create(uid, model.BackupActionBackup, backupType, cfg.IncludeTables)
	if err != nil {
		return nil, fmt.Errorf("create history entry: %w", err)
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.broadcast("started", entry.ID, map[string]any{"backup_uid": uid})

	result, err := m.runBackup(ctx, client, cfg, entry)
	if err != nil {
		if markErr := m.history.MarkFailed(entry.ID, err.Error()); markErr != nil {
			m.logger.Error("mark backup failed", "error", markErr)
		}
		m.setStatus(Status{State: StateError, Error: err.Error()})
		m.broadcast("failed", entry.ID, map[string]any{"error": err.Error()})
		return nil, err
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.broadcast("completed", entry.ID, map[string]any{"storage_path": result.StoragePath})
	return result, nil
}

func (m *Manager) runBackup(ctx context.Context, client objectStore, cfg *model.BackupConfig, entry *model.BackupHistoryEntry) (*model.BackupHistoryEntry, error) {
	data := make(map[string][]map[string]any, len(cfg.IncludeTables))
	var dumped []string
	var skipped []string
	for _, table := range cfg.IncludeTables {
		records, err := m.tables.Dump(ctx, table)
		if err != nil {
			m.logger.Warn("skipping table", "table", table, "error", err)
			skipped = append(skipped, table)
			continue
		}
		data[table] = records
		dumped = append(dumped, table)
	}
	if len(dumped) == 0 {
		return nil, fmt.Errorf("no tables could be exported")
	}

	createdAt := time.Now().UTC()
	snap := NewSnapshot(createdAt, data)
	snap.Metadata.Tables = dumped
	payload, err := snap.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := m.ensureBucket(ctx, client, cfg.StorageBucket); err != nil {
		return nil, err
	}

	key := snapshotKey(createdAt)
	if err := m.upload(ctx, client, cfg.StorageBucket, key, payload); err != nil {
		return nil, err
	}

	if err := m.history.MarkCompleted(entry.ID, dumped, key, int64(len(payload)), snap.Metadata.RecordCount); err != nil {
		return nil, fmt.Errorf("finalize history entry: %w", err)
	}
	if len(skipped) > 0 {
		if err := m.history.SetMetadata(entry.ID, map[string]any{"skipped_tables": skipped}); err != nil {
			m.logger.Error("record skipped tables", "error", err)
		}
	}
	if err := m.config.SetLastBackupAt(createdAt); err != nil {
		m.logger.Error("update last backup time", "error", err)
	}

	if err := m.prune(ctx, client, cfg); err != nil {
		// A failed prune never fails the backup that just succeeded.
		m.logger.Error("prune old snapshots", "error", err)
	}

	entry.Status = model.BackupStatusCompleted
	entry.TablesBackedUp = dumped
	entry.StoragePath = key
	entry.FileSizeBytes = int64(len(payload))
	entry.RecordCount = snap.Metadata.RecordCount
	entry.CompletedAt = &createdAt
	return entry, nil
}

func (m *Manager) ensureBucket(ctx context.Context, client objectStore, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

func (m *Manager) upload(ctx context.Context, client objectStore, bucket, key string, payload []byte) error {
	backoff := retry.WithMaxRetries(uploadRetries, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(payload),
			ContentType:   aws.String("application/json"),
			ContentLength: aws.Int64(int64(len(payload))),
		})
		if err != nil {
			m.logger.Warn("snapshot upload attempt failed", "key", key, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the stored snapshots, newest first.
func (m *Manager) ListSnapshots(ctx context.Context) ([]ObjectInfo, error) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return nil, ErrDisabled
	}

	cfg, err := m.config.Get()
	if err != nil {
		return nil, fmt.Errorf("read backup config: %w", err)
	}

	objects, err := m.listObjects(ctx, client, cfg.StorageBucket)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}

func (m *Manager) listObjects(ctx context.Context, client objectStore, bucket string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	var token *string
	for {
		out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String("backup_"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, o := range out.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(o.Key),
				LastModified: aws.ToTime(o.LastModified),
				SizeBytes:    aws.ToInt64(o.Size),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return objects, nil
}

func (m *Manager) prune(ctx context.Context, client objectStore, cfg *model.BackupConfig) error {
	objects, err := m.listObjects(ctx, client, cfg.StorageBucket)
	if err != nil {
		return err
	}

	_, del := PlanRetention(objects, cfg.RetainCount)
	for _, o := range del {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.StorageBucket),
			Key:    aws.String(o.Key),
		}); err != nil {
			m.logger.Error("delete expired snapshot", "key", o.Key, "error", err)
			continue
		}
		m.logger.Info("pruned snapshot", "key", o.Key)
	}
	return nil
}
