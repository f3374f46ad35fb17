package sawmill

// Option configures a Sawmill instance.
type Option func(*options)

type options struct {
	workers  int
	failFast bool
}

func defaultOptions() options {
	return options{}
}

// WithWorkers sets the normalization worker count. Zero or negative means
// one worker per CPU. Worker count never changes the output.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithFailFast aborts a run on the first record error instead of collecting
// errors and continuing.
func WithFailFast() Option {
	return func(o *options) { o.failFast = true }
}
