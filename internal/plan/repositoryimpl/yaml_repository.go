package repositoryimpl

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/smartplanner/internal/plan"
	"github.com/kazz187/smartplanner/pkg/cerr"
	"github.com/kazz187/smartplanner/pkg/storage"
)

const plansPrefix = "plans"

type YAMLRepository struct {
	storage storage.Storage
}

var _ plan.Repository = (*YAMLRepository)(nil)

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", plansPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, p *plan.Plan) error {
	exists, err := r.storage.Exists(ctx, path(p.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("plan", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "plan already exists", nil)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal plan: %w", err))
	}
	if err := r.storage.Write(ctx, path(p.ID), data); err != nil {
		return cerr.WrapStorageWriteError("plan", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("plan", err)
	}
	var p plan.Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal plan: %w", err))
	}
	return &p, nil
}

func (r *YAMLRepository) List(ctx context.Context, limit, offset int) ([]*plan.Plan, int, error) {
	paths, err := r.storage.List(ctx, plansPrefix)
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("plans", err)
	}

	// ULID file names sort by creation time.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	// Only the requested page is read. total counts every archived file,
	// including ones that later turn out to be unreadable.
	total := len(paths)
	offset = max(offset, 0)
	if offset >= total {
		return nil, total, nil
	}
	page := paths[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}

	plans := make([]*plan.Plan, 0, len(page))
	for _, p := range page {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable plan", "path", p, "error", err)
			continue
		}
		var pl plan.Plan
		if err := yaml.Unmarshal(data, &pl); err != nil {
			slog.WarnContext(ctx, "skipping malformed plan", "path", p, "error", err)
			continue
		}
		plans = append(plans, &pl)
	}
	return plans, total, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("plan", err)
	}
	return nil
}
