package jslee

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Analyzer runs the symbolic execution of every function of a file.
type Analyzer struct {
	// Options applied to each executor.
	Options []Option

	// Checks returns the checks for a single file.
	Checks CheckFactory

	// Searcher returns the exploration strategy for a single function.
	// Searchers hold pending states and are never shared between executors.
	Searcher func() Searcher

	Logger *zap.Logger
}

// NewAnalyzer returns a new instance of Analyzer.
func NewAnalyzer(checks CheckFactory, opts ...Option) *Analyzer {
	return &Analyzer{
		Options: opts,
		Checks:  checks,
		Logger:  zap.NewNop(),
	}
}

// AnalyzeFile executes each function of file in order and returns the issues
// reported by a fresh set of checks. A function reaching an execution limit
// is abandoned and the next function proceeds. The context is checked
// between functions.
func (a *Analyzer) AnalyzeFile(ctx context.Context, file *File) ([]Issue, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("file", file.Filename))

	var issues IssueList
	var checks []Check
	if a.Checks != nil {
		checks = a.Checks(&issues)
	}

	for _, fn := range file.Functions {
		if err := ctx.Err(); err != nil {
			return issues.Issues(), err
		}

		opts := make([]Option, 0, len(a.Options)+3)
		opts = append(opts, a.Options...)
		opts = append(opts, WithChecks(checks...), WithLogger(logger))
		if a.Searcher != nil {
			opts = append(opts, WithSearcher(a.Searcher()))
		}

		if _, err := NewExecutor(fn, opts...).Execute(); errors.Is(err, ErrExecutionLimit) {
			logger.Info("[analyze] function skipped",
				zap.Stringer("function", fn),
				zap.Stringer("pos", fn.Pos),
				zap.Error(err),
			)
			continue
		} else if err != nil {
			return issues.Issues(), err
		}
	}
	return issues.Issues(), nil
}
