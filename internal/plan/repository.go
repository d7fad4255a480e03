package plan

import "context"

type Repository interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	// List returns plans newest first along with the total count.
	List(ctx context.Context, limit, offset int) ([]*Plan, int, error)
	Delete(ctx context.Context, id string) error
}
