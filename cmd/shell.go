// Package cmd provides utilities that underlie the specific commands.
package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	blog "github.com/pkiexamples/crlkit/log"
)

// Command returns the name of the running binary, which selects the
// subcommand when crlkit is invoked through a symlink.
func Command() string {
	return path.Base(os.Args[0])
}

// NewLogger creates a logger which writes to stderr according to logConf.
func NewLogger(logConf blog.Config) blog.Logger {
	return blog.New(os.Stderr, logConf)
}

// NewStatsRegistry returns a Prometheus registry carrying the Go runtime and
// process collectors. If addr is not empty the registry is also served on
// addr at /metrics for as long as the process lives.
func NewStatsRegistry(addr string, logger blog.Logger) prometheus.Registerer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if addr == "" {
		logger.Info("No debug listen address specified")
		return registry
	}

	server := http.Server{
		Addr:        addr,
		Handler:     debugHandler(registry, logger),
		ReadTimeout: time.Minute,
	}
	go func() {
		logger.Infof("Debug server listening on %s", addr)
		err := server.ListenAndServe()
		if err != nil {
			logger.Errf("unable to boot debug server on %s: %v", addr, err)
			os.Exit(1)
		}
	}()
	return registry
}

func debugHandler(gatherer prometheus.Gatherer, logger blog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: promLogger{logger},
	}))
	return mux
}

// promLogger adapts a blog.Logger to promhttp's error logging interface.
type promLogger struct {
	blog.Logger
}

func (log promLogger) Println(args ...interface{}) {
	log.AuditErr(fmt.Sprint(args...))
}

// Fail prints a message to stderr and exits with a nonzero status.
func Fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

// FailOnError calls Fail if the provided error is non-nil.
// This is useful for one-line error handling in top-level executables,
// but should generally be avoided in libraries. The message argument is optional.
func FailOnError(err error, msg string) {
	if err == nil {
		return
	}
	if msg == "" {
		Fail(err.Error())
	} else {
		Fail(fmt.Sprintf("%s: %s", msg, err))
	}
}

// AuditPanic catches and logs panics, then exits with exit code 1.
// This method should be called in a defer statement as early as possible.
func AuditPanic() {
	err := recover()
	// No panic, no problem
	if err == nil {
		return
	}
	// Get the stack trace
	stack := make([]byte, 1<<16)
	stack = stack[:runtime.Stack(stack, false)]
	fmt.Fprintf(os.Stderr, "[AUDIT] panic: %v\n%s\n", err, stack)
	os.Exit(1)
}
