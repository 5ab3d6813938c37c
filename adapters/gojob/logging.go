package gojob

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// ResolveLoggers resolves the glog logger for name (provider > logger > nop)
// and returns the same logger wrapped for go-job workers.
func ResolveLoggers(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := glog.Resolve(name, provider, logger)
	resolvedLogger = glog.Ensure(resolvedLogger)
	var jobProvider job.LoggerProvider
	if resolvedProvider != nil {
		jobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	return resolvedLogger, jobProvider, job.GoLogger(resolvedLogger)
}
