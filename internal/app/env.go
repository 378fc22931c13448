package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quizbuilder/internal/config"
)

type envKey struct{}

// Env keeps what every command needs in a single place.
type Env struct {
	Cfg *config.Config
	Log *zap.Logger

	closeLog      func()
	start         time.Time
	restoreStdLog func()
}

// EnvFromContext returns the Env stored by ContextWithEnv.
func EnvFromContext(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey{}).(*Env); ok {
		return env
	}
	panic("env not found in context")
}

// ContextWithEnv returns ctx carrying a fresh Env.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &Env{Log: zap.NewNop(), start: time.Now()})
}

func (e *Env) Uptime() time.Duration {
	return time.Since(e.start)
}

// Prepare loads the configuration file (empty path means defaults) and
// builds the logger.
func (e *Env) Prepare(configFile string) error {
	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		return err
	}
	log, closeLog, err := cfg.Logging.Prepare()
	if err != nil {
		return err
	}
	e.Cfg, e.Log, e.closeLog = cfg, log, closeLog
	e.restoreStdLog = zap.RedirectStdLog(log)
	return nil
}

// Release syncs and closes the logger.
func (e *Env) Release() {
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
	if e.closeLog != nil {
		e.closeLog()
		e.closeLog = nil
	}
}
