// Package reliability keeps the product database safe: scheduled snapshots
// shipped to object storage and routine SQLite maintenance.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/structura/internal/events"
)

const (
	archivePrefix   = "structura-backup-"
	archiveSuffix   = ".tar.gz"
	timestampLayout = "2006-01-02-150405"
	metadataFile    = "backup-metadata.json"
)

// Snapshotter writes a consistent copy of a database to dest.
type Snapshotter interface {
	Name() string
	VacuumInto(ctx context.Context, dest string) error
}

// EventEmitter publishes backup outcomes.
type EventEmitter interface {
	Emit(module string, data events.EventData)
}

// BackupMetadata is stored next to the snapshots inside each archive
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes one snapshot in the archive
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo represents a backup stored remotely
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots databases into a tar.gz archive, uploads it and
// keeps the newest Retention archives.
type BackupService struct {
	store      ObjectStore
	databases  []Snapshotter
	emitter    EventEmitter
	stagingDir string
	prefix     string
	retention  int
	now        func() time.Time
	log        zerolog.Logger
}

// NewBackupService creates a backup service. Archives are staged under
// dataDir and uploaded below prefix.
func NewBackupService(
	store ObjectStore,
	databases []Snapshotter,
	emitter EventEmitter,
	dataDir string,
	prefix string,
	retention int,
	log zerolog.Logger,
) *BackupService {
	if retention < 1 {
		retention = 1
	}
	return &BackupService{
		store:      store,
		databases:  databases,
		emitter:    emitter,
		stagingDir: filepath.Join(dataDir, "backup-staging"),
		prefix:     prefix,
		retention:  retention,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUpload builds an archive of every database, uploads it and prunes
// archives beyond the retention count.
func (s *BackupService) CreateAndUpload(ctx context.Context) (BackupInfo, error) {
	info, pruned, err := s.run(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Backup failed")
		if s.emitter != nil {
			s.emitter.Emit("reliability", &events.ErrorEventData{
				Error:   err.Error(),
				Context: map[string]string{"operation": "backup"},
			})
		}
		return BackupInfo{}, err
	}

	if s.emitter != nil {
		s.emitter.Emit("reliability", &events.BackupCompletedData{Key: info.Key, SizeBytes: info.SizeBytes, Pruned: pruned})
	}
	return info, nil
}

func (s *BackupService) run(ctx context.Context) (BackupInfo, int, error) {
	startTime := time.Now()
	timestamp := s.now()

	stagingDir := filepath.Join(s.stagingDir, timestamp.Format(timestampLayout))
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return BackupInfo{}, 0, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	metadata := BackupMetadata{
		Timestamp: timestamp,
		Version:   "1",
		Databases: make([]DatabaseMetadata, 0, len(s.databases)),
	}
	files := make([]string, 0, len(s.databases)+1)

	for _, db := range s.databases {
		filename := db.Name() + ".db"
		path := filepath.Join(stagingDir, filename)
		if err := db.VacuumInto(ctx, path); err != nil {
			return BackupInfo{}, 0, fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
		}

		stat, err := os.Stat(path)
		if err != nil {
			return BackupInfo{}, 0, fmt.Errorf("failed to stat %s snapshot: %w", db.Name(), err)
		}
		checksum, err := checksumFile(path)
		if err != nil {
			return BackupInfo{}, 0, fmt.Errorf("failed to checksum %s snapshot: %w", db.Name(), err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      db.Name(),
			Filename:  filename,
			SizeBytes: stat.Size(),
			Checksum:  checksum,
		})
		files = append(files, filename)
	}

	if err := writeMetadata(filepath.Join(stagingDir, metadataFile), metadata); err != nil {
		return BackupInfo{}, 0, fmt.Errorf("failed to write metadata: %w", err)
	}
	files = append(files, metadataFile)

	archiveName := archivePrefix + timestamp.Format(timestampLayout) + archiveSuffix
	archivePath := filepath.Join(stagingDir, archiveName)
	if err := createArchive(archivePath, stagingDir, files); err != nil {
		return BackupInfo{}, 0, fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return BackupInfo{}, 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	stat, err := archive.Stat()
	if err != nil {
		return BackupInfo{}, 0, fmt.Errorf("failed to stat archive: %w", err)
	}

	key := s.prefix + archiveName
	if err := s.store.Upload(ctx, key, archive, stat.Size()); err != nil {
		return BackupInfo{}, 0, err
	}

	pruned, err := s.Prune(ctx)
	if err != nil {
		// The upload succeeded; a failed prune is retried on the next run.
		s.log.Warn().Err(err).Msg("Failed to prune old backups")
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("key", key).
		Int64("size_bytes", stat.Size()).
		Int("pruned", pruned).
		Msg("Backup uploaded")

	return BackupInfo{Key: key, Timestamp: timestamp, SizeBytes: stat.Size()}, pruned, nil
}

// ListBackups returns the stored archives, newest first. Objects that do not
// carry an archive name are ignored.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, s.prefix+archivePrefix)
	if err != nil {
		return nil, err
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, s.prefix)
		if !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix) {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix)
		timestamp, err := time.Parse(timestampLayout, raw)
		if err != nil {
			s.log.Warn().Str("key", obj.Key).Msg("Failed to parse timestamp from backup key")
			continue
		}
		backups = append(backups, BackupInfo{
			Key:       obj.Key,
			Timestamp: timestamp,
			SizeBytes: obj.SizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Prune deletes every archive beyond the newest retention ones and returns
// how many were deleted.
func (s *BackupService) Prune(ctx context.Context) (int, error) {
	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= s.retention {
		return 0, nil
	}

	deleted := 0
	for _, backup := range backups[s.retention:] {
		if err := s.store.Delete(ctx, backup.Key); err != nil {
			s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("key", backup.Key).Time("timestamp", backup.Timestamp).Msg("Deleted old backup")
		deleted++
	}
	return deleted, nil
}

func checksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

func createArchive(archivePath, sourceDir string, files []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, name := range files {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, path, nameInArchive string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tarWriter, file)
	return err
}
