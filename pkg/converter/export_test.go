package converter

// WithDefaults exposes Options.withDefaults to the external test package.
func WithDefaults(o Options) Options { return o.withDefaults() }
