// Package logger provides slog attribute helpers shared by the mediator's
// observability middleware and host applications.
//
// All helpers follow the empty Attr pattern: passing a nil error or nil
// value yields an empty attribute that slog drops silently, so call sites
// need no nil checks.
//
//	log.Info("message completed",
//		logger.Duration(time.Since(start)),
//		logger.Error(err),
//	)
package logger
