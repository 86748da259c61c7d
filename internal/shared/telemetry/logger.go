// Package telemetry emits one JSON object per log line on stdout, where
// the process supervisor collects them.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

var serviceName string

// SetService stamps every subsequent log line with a service field, so
// api, worker, and migrate output can be told apart in shared sinks.
// Call once during startup before any goroutines log.
func SetService(name string) {
	serviceName = name
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write("info", msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write("error", msg, fields)
}

func write(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+4)
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level
	entry["msg"] = msg
	if serviceName != "" {
		entry["service"] = serviceName
	}
	for k, v := range fields {
		entry[k] = v
	}
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stdout, `{"ts":"%s","level":"error","msg":"logger marshal failed","err":%q}`+"\n", time.Now().UTC().Format(time.RFC3339), err.Error())
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}
