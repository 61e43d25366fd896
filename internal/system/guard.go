package system

import "go.uber.org/zap"

// singletonGuard logs a broken singleton precondition once when it appears
// and once when it clears, instead of once per frame.
type singletonGuard struct {
	system string
	log    *zap.Logger
	last   string
}

func (g *singletonGuard) check(err error) bool {
	if err == nil {
		if g.last != "" {
			g.log.Info("precondition restored", zap.String("system", g.system))
			g.last = ""
		}
		return true
	}
	if msg := err.Error(); msg != g.last {
		g.log.Error("precondition violated, skipping frame work",
			zap.String("system", g.system), zap.Error(err))
		g.last = msg
	}
	return false
}
