package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"previewhub/internal/config"
	"previewhub/internal/database"
	"previewhub/internal/encryption"
	"previewhub/internal/fs"
	"previewhub/internal/hub"
	"previewhub/internal/linkcheck"
	"previewhub/internal/model"
	"previewhub/internal/publish"
	"previewhub/internal/registry"
	"previewhub/internal/site"
)

// Backup file names are registry-<UTC stamp>.json.age, so they sort by age.
const (
	backupPrefix      = "registry-"
	backupSuffix      = ".json.age"
	backupStampLayout = "20060102T150405Z"
)

// Options identify the command being run.
type Options struct {
	// Operation is the command name recorded in the history, e.g. "add-item".
	Operation  string
	Parameters string
	// Verbose sends debug output to stderr as well as the log file.
	Verbose bool
}

// PreviewApp is the application layer between the CLI and HubService.
// It constructs all dependencies from config, records the running command
// in the history, and releases everything on Close.
type PreviewApp struct {
	cfg       *config.Config
	history   *database.SQLiteHistory
	siteFS    *fs.OSSiteFS
	encryptor hub.Encryptor
	service   *hub.HubService
	clock     hub.Clock
	op        *Operation
	logger    *slog.Logger
	logFile   *os.File
}

// NewPreviewApp creates a fully wired PreviewApp from the given config.
// The caller must call Close when done.
func NewPreviewApp(cfg *config.Config, opts Options) (*PreviewApp, error) {
	siteFS, err := fs.NewOSSiteFS(cfg.SiteRoot)
	if err != nil {
		return nil, fmt.Errorf("opening site root: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	clock := hub.RealClock{}
	history, err := database.NewHistoryFromConfig(cfg.Database, clock)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}

	stderrLevel := slog.LevelWarn
	if opts.Verbose {
		stderrLevel = slog.LevelDebug
	}
	logger, logFile, err := newLogger(cfg.LogDir, uuid.NewString(), stderrLevel)
	if err != nil {
		history.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	builder, err := site.NewBuilder(siteFS, clock, logger)
	if err != nil {
		history.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating site builder: %w", err)
	}

	store := registry.NewJSONStore(registryPath(cfg))
	svc := hub.NewHubService(store, builder, history, clock, hub.UUIDGenerator{}, logger)

	a := &PreviewApp{
		cfg:       cfg,
		history:   history,
		siteFS:    siteFS,
		encryptor: enc,
		service:   svc,
		clock:     clock,
		op:        NewOperation(opts.Operation, opts.Parameters),
		logger:    logger,
		logFile:   logFile,
	}
	if err := a.op.record(history); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("command started", "operation", opts.Operation, "params", opts.Parameters)
	return a, nil
}

func registryPath(cfg *config.Config) string {
	if cfg.RegistryPath != "" {
		return cfg.RegistryPath
	}
	return filepath.Join(cfg.SiteRoot, registry.DefaultFileName)
}

// SiteRoot is the absolute directory the site is generated into.
func (a *PreviewApp) SiteRoot() string {
	return a.siteFS.Root()
}

func (a *PreviewApp) CreateClient(req hub.CreateClientRequest) (*model.Preview, error) {
	p, err := a.service.CreateClient(req)
	return p, a.op.Observe(err)
}

func (a *PreviewApp) AddClient(req hub.AddClientRequest) (*model.Preview, error) {
	p, err := a.service.AddClient(req)
	return p, a.op.Observe(err)
}

func (a *PreviewApp) AddItem(req hub.AddItemRequest) (*model.Preview, *model.Item, error) {
	p, it, err := a.service.AddItem(req)
	return p, it, a.op.Observe(err)
}

func (a *PreviewApp) SetStatus(client, status string) (*model.Preview, error) {
	p, err := a.service.SetStatus(client, status)
	return p, a.op.Observe(err)
}

// SetToken assigns token to client, generating one when token is empty.
func (a *PreviewApp) SetToken(client, token string) (*model.Preview, error) {
	p, err := a.service.SetToken(client, token)
	return p, a.op.Observe(err)
}

func (a *PreviewApp) ClearToken(client string) (*model.Preview, error) {
	p, err := a.service.ClearToken(client)
	return p, a.op.Observe(err)
}

// SetShareHome points the bare share link at item; an empty item clears it.
func (a *PreviewApp) SetShareHome(client, item string) (*model.Preview, error) {
	p, err := a.service.SetShareHome(client, item)
	return p, a.op.Observe(err)
}

func (a *PreviewApp) ArchiveClient(client string) (*model.Preview, error) {
	p, err := a.service.ArchiveClient(client)
	return p, a.op.Observe(err)
}

// RemoveClient deletes the preview and returns its slug. Generated item pages are left on disk.
func (a *PreviewApp) RemoveClient(client string) (string, error) {
	removed, err := a.service.RemoveClient(client)
	return removed, a.op.Observe(err)
}

func (a *PreviewApp) Rebuild(force bool) (*hub.BuildReport, error) {
	report, err := a.service.Rebuild(hub.BuildOptions{Force: force})
	return report, a.op.Observe(err)
}

func (a *PreviewApp) ListPreviews() ([]*model.Preview, error) {
	previews, err := a.service.ListPreviews()
	return previews, a.op.Observe(err)
}

// GetHistory returns the most recent commands, newest first. The running command is included.
func (a *PreviewApp) GetHistory(limit int) ([]*model.Operation, error) {
	ops, err := a.service.GetHistory(limit)
	return ops, a.op.Observe(err)
}

// ValidateLinks checks every internal link of the generated site.
// A report is returned alongside a *hub.LinkIntegrityError when links are broken.
func (a *PreviewApp) ValidateLinks() (*linkcheck.Report, error) {
	report, err := linkcheck.Validate(a.siteFS)
	return report, a.op.Observe(err)
}

// Publish uploads the generated site to the named publisher, or to the only
// one configured when name is empty. It returns the publisher used and the
// number of files uploaded.
func (a *PreviewApp) Publish(ctx context.Context, name string) (string, int, error) {
	pcfg, err := a.cfg.FindPublisher(name)
	if err != nil {
		return "", 0, a.op.Observe(err)
	}

	pub, err := publish.NewPublisherFromConfig(ctx, pcfg)
	if err != nil {
		return "", 0, a.op.Observe(fmt.Errorf("creating publisher: %w", err))
	}

	ignore, err := a.ignoreMatcher(pcfg)
	if err != nil {
		return "", 0, a.op.Observe(err)
	}

	n, err := a.service.Publish(a.siteFS, pub, ignore)
	return pub.Name(), n, a.op.Observe(err)
}

func (a *PreviewApp) ignoreMatcher(pcfg config.PublisherConfig) (*fs.IgnoreMatcher, error) {
	filePatterns, err := fs.ParseIgnoreFile(filepath.Join(a.SiteRoot(), fs.IgnoreFileName))
	if err != nil {
		return nil, err
	}

	// a registry kept inside the site under a custom name is never published
	var extra []string
	if abs, err := filepath.Abs(registryPath(a.cfg)); err == nil {
		if rel, err := filepath.Rel(a.SiteRoot(), abs); err == nil && !strings.HasPrefix(rel, "..") {
			extra = append(extra, "/"+filepath.ToSlash(rel))
		}
	}
	return fs.NewIgnoreMatcher(pcfg.Ignore, filePatterns, extra), nil
}

// SetupKeys generates the backup key pair, protecting the private key with passphrase.
func (a *PreviewApp) SetupKeys(passphrase string) error {
	return a.op.Observe(a.encryptor.Setup(passphrase))
}

// Backup writes an encrypted copy of the registry into the backup directory
// and prunes old backups down to backup.keep. It returns the new file's path.
func (a *PreviewApp) Backup() (string, error) {
	path, err := a.backup()
	return path, a.op.Observe(err)
}

func (a *PreviewApp) backup() (string, error) {
	if !a.encryptor.IsConfigured() {
		return "", errors.New("encryption keys not initialized: run `previewhub keys init`")
	}

	dir := a.cfg.Backup.Dir
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	name := backupPrefix + a.clock.Now().UTC().Format(backupStampLayout) + backupSuffix
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}

	if err := a.service.BackupRegistry(a.encryptor, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing backup file: %w", err)
	}

	if err := a.pruneBackups(); err != nil {
		return path, err
	}
	a.logger.Info("backup written", "path", path)
	return path, nil
}

// ListBackups returns backup file names in the backup directory, oldest first.
func (a *PreviewApp) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(a.cfg.Backup.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), backupSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (a *PreviewApp) pruneBackups() error {
	keep := a.cfg.Backup.Keep
	if keep == 0 {
		return nil
	}
	names, err := a.ListBackups()
	if err != nil {
		return err
	}
	for len(names) > keep {
		if err := os.Remove(filepath.Join(a.cfg.Backup.Dir, names[0])); err != nil {
			return fmt.Errorf("pruning backups: %w", err)
		}
		a.logger.Debug("backup pruned", "name", names[0])
		names = names[1:]
	}
	return nil
}

// Restore replaces the registry with the backup at path and rebuilds the site.
func (a *PreviewApp) Restore(path, passphrase string) (*model.Registry, error) {
	reg, err := a.restore(path, passphrase)
	return reg, a.op.Observe(err)
}

func (a *PreviewApp) restore(path, passphrase string) (*model.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening backup: %w", err)
	}
	defer f.Close()

	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	return a.service.RestoreRegistry(dc, f)
}

// Close finalizes the operation record and closes all resources.
func (a *PreviewApp) Close() error {
	var firstErr error

	if err := a.op.finish(a.history); err != nil {
		firstErr = err
	}
	if err := a.history.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing history: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
