package alert

import "context"

type Service interface {
	// Scan evaluates every enabled rule against current operational state and
	// returns the number of newly created alerts. Concurrent calls coalesce
	// into the in-flight scan.
	Scan(ctx context.Context) (int, error)

	List(ctx context.Context, filter Filter) (ListResponse, error)
	Resolve(ctx context.Context, id string, reason *string) error
	Stats(ctx context.Context) (Stats, error)

	GetConfigs(ctx context.Context) ([]ConfigResponse, error)
	UpdateConfig(ctx context.Context, req UpdateConfigRequest) (ConfigResponse, error)
}
