package meter

import (
	"io"
	"math"
	"os"

	"github.com/deepsize/pkg/errors"
	"github.com/deepsize/pkg/filter"
	"github.com/deepsize/pkg/introspect"
	"github.com/deepsize/pkg/sizing"
	"github.com/deepsize/pkg/utils"
)

// Builder assembles a Meter. Options are validated eagerly; the first
// configuration error is recorded and returned from Build, before any
// measurement runs.
type Builder struct {
	guess                     sizing.Guess
	ignoreOuterReferences     bool
	ignoreKnownSingletons     bool
	ignoreNonStrongReferences bool
	omitSharedBufferOverhead  bool
	listenerFactory           ListenerFactory
	treeWriter                io.Writer
	treeDepth                 int
	logger                    utils.Logger
	err                       error
}

// NewBuilder creates a Builder with defaults: strict assisted sizing, no
// filters, no diagnostics.
func NewBuilder() *Builder {
	return &Builder{
		guess:           sizing.GuessAlwaysInstrumentation,
		listenerFactory: NoopListenerFactory{},
		treeWriter:      os.Stdout,
		logger:          &utils.NullLogger{},
	}
}

// WithGuessing selects the sizing mode. See sizing.Guess for the modes.
func (b *Builder) WithGuessing(guess sizing.Guess) *Builder {
	if guess.Info() == nil {
		b.fail(errors.Newf(errors.CodeConfigError,
			"unknown sizing mode: %q (valid: %s)", guess, sizing.ValidGuesses()))
		return b
	}
	b.guess = guess
	return b
}

// IgnoreOuterReferences excludes back-references from nested composite types
// to their enclosing instance.
func (b *Builder) IgnoreOuterReferences() *Builder {
	b.ignoreOuterReferences = true
	return b
}

// IgnoreKnownSingletons excludes well-known process-wide singleton instances
// such as type descriptors from traversal and accounting.
func (b *Builder) IgnoreKnownSingletons() *Builder {
	b.ignoreKnownSingletons = true
	return b
}

// IgnoreNonStrongReferences excludes referents reached only through
// weak-reference indirections.
func (b *Builder) IgnoreNonStrongReferences() *Builder {
	b.ignoreNonStrongReferences = true
	return b
}

// OmitSharedBufferOverhead charges only the unread extent of shared-storage
// buffer views during MeasureDeep, rather than the full backing allocation.
func (b *Builder) OmitSharedBufferOverhead() *Builder {
	b.omitSharedBufferOverhead = true
	return b
}

// WithListenerFactory attaches a custom traversal listener factory,
// replacing any previously requested tree printing.
func (b *Builder) WithListenerFactory(f ListenerFactory) *Builder {
	if f == nil {
		b.fail(errors.New(errors.CodeConfigError, "listener factory must not be nil"))
		return b
	}
	b.listenerFactory = f
	b.treeDepth = 0
	return b
}

// WithLogger sets the logger used during construction.
func (b *Builder) WithLogger(logger utils.Logger) *Builder {
	if logger == nil {
		b.fail(errors.New(errors.CodeConfigError, "logger must not be nil"))
		return b
	}
	b.logger = logger
	return b
}

// PrintVisitedTree prints the visited tree during MeasureDeep.
func (b *Builder) PrintVisitedTree() *Builder {
	return b.PrintVisitedTreeUpTo(math.MaxInt32)
}

// PrintVisitedTreeUpTo prints the visited tree up to the given depth during
// MeasureDeep. The depth must be greater than zero.
func (b *Builder) PrintVisitedTreeUpTo(depth int) *Builder {
	if depth <= 0 {
		b.fail(errors.Newf(errors.CodeConfigError,
			"the depth must be greater than zero (was %d)", depth))
		return b
	}
	b.treeDepth = depth
	return b
}

// PrintVisitedTreeTo redirects tree printing to w. It may be combined with
// PrintVisitedTree or PrintVisitedTreeUpTo in any order.
func (b *Builder) PrintVisitedTreeTo(w io.Writer) *Builder {
	if w == nil {
		b.fail(errors.New(errors.CodeConfigError, "tree writer must not be nil"))
		return b
	}
	b.treeWriter = w
	return b
}

// fail records the first configuration error.
func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates the configuration, resolves the sizing strategy and
// freezes an immutable Meter. Strategy resolution failures under strict
// modes surface here, not mid-traversal.
func (b *Builder) Build() (*Meter, error) {
	if b.err != nil {
		return nil, b.err
	}

	if err := introspect.Relax(); err != nil {
		return nil, err
	}

	strategy, err := sizing.Resolve(b.guess)
	if err != nil {
		return nil, err
	}

	factory := b.listenerFactory
	if b.treeDepth > 0 {
		factory = NewTreePrinterFactory(b.treeWriter, b.treeDepth)
	}

	m := New(
		strategy,
		filter.ClassFilters(b.ignoreKnownSingletons),
		filter.FieldFilters(b.ignoreKnownSingletons, b.ignoreOuterReferences, b.ignoreNonStrongReferences),
		b.omitSharedBufferOverhead,
		factory,
	)
	m.logger = b.logger
	m.logger.Debug("meter built with %s strategy", strategy.Name())
	return m, nil
}
