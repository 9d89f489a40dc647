package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger. Every draw is logged at debug level so a
// disputed fight can be reconstructed from the server log.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn satisfies Source so a Roller can be handed to code that only needs raw draws.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// D100 returns a percentile roll in [1, 100].
//
// Postcondition: 1 <= result <= 100.
func (r *Roller) D100() int {
	v := r.src.Intn(100) + 1
	r.logger.Debug("d100 roll", zap.Int("roll", v))
	return v
}

// Between returns a uniform integer in [lo, hi] and logs it.
func (r *Roller) Between(lo, hi int) int {
	v := Between(r.src, lo, hi)
	r.logger.Debug("range roll",
		zap.Int("lo", lo),
		zap.Int("hi", hi),
		zap.Int("roll", v),
	)
	return v
}

// Roll evaluates expr and logs the result at debug level.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses and rolls expr in one call.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}
