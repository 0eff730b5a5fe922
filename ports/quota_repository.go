package ports

import "context"

// QuotaRepository persists the date-keyed daily request counter for
// the generation client. Dates use YYYY-MM-DD. An absent date reads as
// zero usage; increments must be atomic so multiple worker processes
// can share one counter.
type QuotaRepository interface {
	Usage(ctx context.Context, date string) (int, error)
	Increment(ctx context.Context, date string) (int, error)
}
