package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/psicopps/ppsadmin/internal/database"
	"github.com/psicopps/ppsadmin/internal/model"
	"github.com/psicopps/ppsadmin/internal/store"
)

type fakeObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	bucketOK bool
	putErr   error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects:  make(map[string][]byte),
		modified: make(map[string]time.Time),
	}
}

func (f *fakeObjectStore) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(input.Key)] = data
	f.modified[aws.ToString(input.Key)] = time.Now().UTC()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectStore) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(input.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjectStore) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(input.Key))
	delete(f.modified, aws.ToString(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjectStore) ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key, data := range f.objects {
		modified := f.modified[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			LastModified: aws.Time(modified),
			Size:         aws.Int64(int64(len(data))),
		})
	}
	return out, nil
}

func (f *fakeObjectStore) HeadBucket(ctx context.Context, input *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.bucketOK {
		return nil, errors.New("bucket not found")
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeObjectStore) CreateBucket(ctx context.Context, input *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bucketOK = true
	return &s3.CreateBucketOutput{}, nil
}

type managerEnv struct {
	db      *sql.DB
	manager *Manager
	fake    *fakeObjectStore
	config  *store.BackupConfigStore
	history *store.BackupHistoryStore
	tables  *store.TableStore
}

func setupManager(t *testing.T) *managerEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &managerEnv{
		db:      db,
		fake:    newFakeObjectStore(),
		config:  store.NewBackupConfigStore(db),
		history: store.NewBackupHistoryStore(db),
		tables:  store.NewTableStore(db),
	}
	env.manager = NewManager(S3Config{}, env.config, env.history, env.tables, nil, slog.New(slog.DiscardHandler), nil)
	env.manager.client = env.fake
	env.manager.status.State = StateIdle
	return env
}

func (env *managerEnv) seedStudents(t *testing.T) {
	t.Helper()
	_, err := env.db.Exec(`INSERT INTO estudiantes (nombre, legajo) VALUES ('Ana', 'L1'), ('Bruno', 'L2')`)
	if err != nil {
		t.Fatalf("seed students: %v", err)
	}
}

func (env *managerEnv) setTables(t *testing.T, tables []string) {
	t.Helper()
	cfg, err := env.config.Get()
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	cfg.IncludeTables = tables
	if err := env.config.Update(cfg); err != nil {
		t.Fatalf("update config: %v", err)
	}
}

func TestRunBackupAndRestoreRoundTrip(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()
	env.seedStudents(t)
	env.setTables(t, []string{"estudiantes"})

	entry, err := env.manager.RunBackup(ctx, model.BackupTypeManual)
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	if entry.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", entry.Status)
	}
	if entry.RecordCount != 2 {
		t.Errorf("record_count = %d, want 2", entry.RecordCount)
	}
	if _, ok := env.fake.objects[entry.StoragePath]; !ok {
		t.Fatalf("snapshot %s not uploaded", entry.StoragePath)
	}

	cfg, _ := env.config.Get()
	if cfg.LastBackupAt == nil {
		t.Error("last_backup_at not set")
	}

	// Wreck the table and restore it.
	if _, err := env.db.Exec(`DELETE FROM estudiantes`); err != nil {
		t.Fatalf("delete students: %v", err)
	}

	result, err := env.manager.Restore(ctx, entry.StoragePath, nil, false)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if result.Summary.TotalRecordsRestored != 2 {
		t.Errorf("total_records_restored = %d, want 2", result.Summary.TotalRecordsRestored)
	}

	count, err := env.tables.Count(ctx, "estudiantes")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("estudiantes rows after restore = %d, want 2", count)
	}

	var nombre string
	if err := env.db.QueryRow(`SELECT nombre FROM estudiantes WHERE legajo = 'L1'`).Scan(&nombre); err != nil {
		t.Fatalf("read restored row: %v", err)
	}
	if nombre != "Ana" {
		t.Errorf("restored nombre = %q, want Ana", nombre)
	}
}

func TestRunBackupSkipsFailingTable(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()
	env.seedStudents(t)
	env.setTables(t, []string{"estudiantes", "tabla_fantasma"})

	entry, err := env.manager.RunBackup(ctx, model.BackupTypeAutomatic)
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	if entry.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed despite skipped table", entry.Status)
	}
	if len(entry.TablesBackedUp) != 1 || entry.TablesBackedUp[0] != "estudiantes" {
		t.Errorf("tables_backed_up = %v, want [estudiantes]", entry.TablesBackedUp)
	}
	if entry.RecordCount != 2 {
		t.Errorf("record_count = %d, want 2", entry.RecordCount)
	}
}

func TestRunBackupDisabled(t *testing.T) {
	env := setupManager(t)
	cfg, _ := env.config.Get()
	cfg.Enabled = false
	if err := env.config.Update(cfg); err != nil {
		t.Fatalf("disable backups: %v", err)
	}

	if _, err := env.manager.RunBackup(context.Background(), model.BackupTypeManual); !errors.Is(err, ErrDisabled) {
		t.Errorf("got %v, want ErrDisabled", err)
	}
}

func TestRunBackupSingleFlight(t *testing.T) {
	env := setupManager(t)
	env.seedStudents(t)

	if _, err := env.history.Create("other-run", model.BackupActionBackup, model.BackupTypeManual, []string{"estudiantes"}); err != nil {
		t.Fatalf("seed running entry: %v", err)
	}

	if _, err := env.manager.RunBackup(context.Background(), model.BackupTypeManual); !errors.Is(err, ErrBackupRunning) {
		t.Errorf("got %v, want ErrBackupRunning", err)
	}
}

func TestRunBackupFailureNeverLeavesRunningRow(t *testing.T) {
	env := setupManager(t)
	env.seedStudents(t)
	env.setTables(t, []string{"estudiantes"})
	env.fake.putErr = errors.New("storage unavailable")

	if _, err := env.manager.RunBackup(context.Background(), model.BackupTypeManual); err == nil {
		t.Fatal("expected upload failure")
	}

	running, err := env.history.HasRunning()
	if err != nil {
		t.Fatalf("has running: %v", err)
	}
	if running {
		t.Error("failed backup left a running history row")
	}

	entries, err := env.history.List(1)
	if err != nil || len(entries) == 0 {
		t.Fatalf("list history: %v", err)
	}
	if entries[0].Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want failed", entries[0].Status)
	}
	if entries[0].ErrorMessage == "" {
		t.Error("failed entry has no error message")
	}
}

func TestRestoreDryRunDoesNotMutate(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()
	env.seedStudents(t)
	env.setTables(t, []string{"estudiantes"})

	entry, err := env.manager.RunBackup(ctx, model.BackupTypeManual)
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	if _, err := env.db.Exec(`DELETE FROM estudiantes WHERE legajo = 'L2'`); err != nil {
		t.Fatalf("delete student: %v", err)
	}

	result, err := env.manager.Restore(ctx, entry.StoragePath, nil, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !result.DryRun {
		t.Error("result not marked as dry run")
	}
	if len(result.Tables) != 1 || result.Tables[0].Records != 2 {
		t.Errorf("dry run tables = %+v, want estudiantes with 2 records", result.Tables)
	}

	count, _ := env.tables.Count(ctx, "estudiantes")
	if count != 1 {
		t.Errorf("dry run mutated the table: %d rows, want 1", count)
	}
}

func TestRestoreUnknownSnapshot(t *testing.T) {
	env := setupManager(t)
	if _, err := env.manager.Restore(context.Background(), "backup_nope.json", nil, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRestoreMissingTableReportedSkipped(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()
	env.seedStudents(t)
	env.setTables(t, []string{"estudiantes"})

	entry, err := env.manager.RunBackup(ctx, model.BackupTypeManual)
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	result, err := env.manager.Restore(ctx, entry.StoragePath, []string{"estudiantes", "practicas"}, false)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	statuses := map[string]string{}
	for _, tr := range result.Tables {
		statuses[tr.Table] = tr.Status
	}
	if statuses["estudiantes"] != "restored" {
		t.Errorf("estudiantes status = %q, want restored", statuses["estudiantes"])
	}
	if statuses["practicas"] != "skipped" {
		t.Errorf("practicas status = %q, want skipped (absent from snapshot)", statuses["practicas"])
	}
}

func TestPruneAfterBackupRespectsRetainCount(t *testing.T) {
	env := setupManager(t)
	ctx := context.Background()
	env.seedStudents(t)
	env.setTables(t, []string{"estudiantes"})

	cfg, _ := env.config.Get()
	cfg.RetainCount = 1
	if err := env.config.Update(cfg); err != nil {
		t.Fatalf("update retain count: %v", err)
	}

	// Pre-load stale snapshots on weekdays so only protected ones survive.
	env.fake.objects["backup_old1.json"] = []byte("{}")
	env.fake.modified["backup_old1.json"] = time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC)
	env.fake.objects["backup_old2.json"] = []byte("{}")
	env.fake.modified["backup_old2.json"] = time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC)

	entry, err := env.manager.RunBackup(ctx, model.BackupTypeManual)
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	if _, ok := env.fake.objects[entry.StoragePath]; !ok {
		t.Error("fresh snapshot was pruned")
	}
	if len(env.fake.objects) > 3 {
		t.Errorf("%d snapshots remain, want at most 3", len(env.fake.objects))
	}
}
