package signalgraph

// graphOptions holds configuration shared by every node constructor.
type graphOptions struct {
	ctx    ExecutionContext
	logger Logger
}

// Option configures a node constructor (NewInput, NewGenerator,
// NewMergeSet, and the Signal composition methods).
type Option interface {
	applyGraph(*graphOptions)
}

type graphOptionImpl struct {
	fn func(*graphOptions)
}

func (o *graphOptionImpl) applyGraph(opts *graphOptions) { o.fn(opts) }

// WithContext sets the ExecutionContext a constructed node's channel
// dispatches through. Defaults to an immediate context if omitted.
func WithContext(ctx ExecutionContext) Option {
	return &graphOptionImpl{func(opts *graphOptions) { opts.ctx = ctx }}
}

// WithLogger sets the Logger a constructed node's channel reports
// through. Defaults to the package-level default logger if omitted.
func WithLogger(logger Logger) Option {
	return &graphOptionImpl{func(opts *graphOptions) { opts.logger = logger }}
}

// resolveOptions applies opts over a default configuration, skipping any
// nil entries so callers can pass a conditionally-built slice.
func resolveOptions(opts []Option) *graphOptions {
	cfg := &graphOptions{ctx: immediateContext{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyGraph(cfg)
	}
	return cfg
}
