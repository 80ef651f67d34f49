// Package container loads container configurations from YAML files and keeps them current.
package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/searchc/internal/domain"
	domcontainer "github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/relevance"
)

type entry struct {
	base      domcontainer.Configuration
	relevance *relevance.Resolver
}

// Repo serves container configurations read from a directory, one container per file.
type Repo struct {
	dir      string
	logger   *zap.Logger
	validate *validator.Validate

	mu         sync.RWMutex
	containers map[string]entry
	onReload   []func(ctx context.Context)
}

// New creates a repository over dir. Call Load before serving.
func New(dir string, logger *zap.Logger) *Repo {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Repo{
		dir:        dir,
		logger:     logger,
		validate:   v,
		containers: map[string]entry{},
	}
}

// OnReload registers fn to run after every successful reload triggered by the watcher.
func (r *Repo) OnReload(fn func(ctx context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = append(r.onReload, fn)
}

// Load reads every *.yaml and *.yml file of the directory. Either all files load and replace
// the current set, or nothing changes.
func (r *Repo) Load(_ context.Context) error {
	files, err := containerFiles(r.dir)
	if err != nil {
		return err
	}
	loaded := make(map[string]entry, len(files))
	for _, path := range files {
		e, err := r.loadFile(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", filepath.Base(path), err)
		}
		name := e.base.Name()
		if _, dup := loaded[name]; dup {
			return fmt.Errorf("load %s: duplicate container %q", filepath.Base(path), name)
		}
		loaded[name] = e
	}

	r.mu.Lock()
	r.containers = loaded
	r.mu.Unlock()
	r.logger.Info("containers loaded", zap.String("dir", r.dir), zap.Int("count", len(loaded)))
	return nil
}

func (r *Repo) reload(ctx context.Context) {
	if err := r.Load(ctx); err != nil {
		r.logger.Error("reload containers", zap.String("dir", r.dir), zap.Error(err))
		return
	}
	r.mu.RLock()
	hooks := slices.Clone(r.onReload)
	r.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

func (r *Repo) loadFile(path string) (entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, fmt.Errorf("read: %w", err)
	}
	var dto fileDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return entry{}, fmt.Errorf("parse: %w", err)
	}
	if err := r.validateDTO(dto); err != nil {
		return entry{}, err
	}
	cfg, res, err := dto.toDomain()
	if err != nil {
		return entry{}, err
	}
	return entry{base: cfg, relevance: res}, nil
}

func (r *Repo) validateDTO(dto fileDTO) error {
	err := r.validate.Struct(dto)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", e.Namespace(), friendlyMessage(e)))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + e.Param() + " items"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid"
	}
}

// Get returns the container serving name, bound to catalog when catalog is set.
func (r *Repo) Get(name, catalog string) (domcontainer.Configuration, error) {
	r.mu.RLock()
	e, ok := r.containers[name]
	r.mu.RUnlock()
	if !ok {
		return domcontainer.Configuration{}, fmt.Errorf("%w: %q", domain.ErrContainerNotFound, name)
	}
	if catalog == "" {
		return e.base, nil
	}
	return e.base.ForCatalog(catalog, e.relevance.Resolve(catalog, name)), nil
}

// Names returns the loaded container names, sorted.
func (r *Repo) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.containers))
	for n := range r.containers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func isContainerFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return !strings.HasPrefix(filepath.Base(path), ".")
	}
	return false
}

func containerFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read containers dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isContainerFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
