package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/turntablepool/internal/app"
	"github.com/specialistvlad/turntablepool/internal/pooldef"
)

// Exit codes beyond the usual 0 and 1.
const (
	ExitUsage    = 2
	ExitMismatch = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("turntablepool", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
turntablepool - Loads turntable pool definitions and simulates their turntables.

Usage:
  turntablepool [options] [POOL_PATH...]

Arguments:
  POOL_PATH
    Pool definition file, or a directory searched recursively for files
    whose name contains the token.

Options:
`)
		flagSet.PrintDefaults()
	}

	poolsFlag := flagSet.String("pools", "", "Comma-separated pool definition files or directories.")
	pFlag := flagSet.String("p", "", "Comma-separated pool definition files or directories (shorthand).")
	tokenFlag := flagSet.String("token", pooldef.DefaultToken, "File name fragment that selects pool definition files.")
	scenarioFlag := flagSet.String("scenario", "", "Path to an HCL scenario to run against the loaded turntables.")
	exportFlag := flagSet.String("export", "", "Write the loaded pools as a YAML catalogue to this path.")
	serveFlag := flagSet.Bool("serve", false, "Keep the status server running after the run until interrupted. Needs -healthcheck-port.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health and status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	notifyURLFlag := flagSet.String("notify-url", "", "socket.io endpoint that receives turntable transitions. Empty is disabled.")
	notifyNSFlag := flagSet.String("notify-namespace", "/", "socket.io namespace for turntable transitions.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	switch {
	case *poolsFlag != "":
		paths = splitList(*poolsFlag)
	case *pFlag != "":
		paths = splitList(*pFlag)
	default:
		paths = flagSet.Args()
	}
	slog.Debug("Pool paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No pool path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if strings.TrimSpace(*tokenFlag) == "" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid token: must not be empty"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PoolPaths:       paths,
		Token:           strings.TrimSpace(*tokenFlag),
		ScenarioPath:    *scenarioFlag,
		ExportPath:      *exportFlag,
		Serve:           *serveFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		NotifyURL:       *notifyURLFlag,
		NotifyNamespace: *notifyNSFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
