package rewrite

// Option configures a rewrite.
type Option func(*options)

type options struct {
	strict bool
	dryRun bool
}

// WithStrict turns the lenient no-op outcomes into errors: a missing version
// carrier becomes StructuralNotFound and an unreadable token or document
// becomes ParseFailure.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

// WithDryRun computes the rewrite without writing it back. Only file
// variants honour it.
func WithDryRun() Option {
	return func(o *options) { o.dryRun = true }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
