// Package phobia drives the bundle-phobia CLI and decodes its output.
//
// The tool is invoked once per package as `bundle-phobia <name> -j -r` and
// prints one JSON object per line, one per known version, most recent first.
package phobia

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/bundlecache/bundlecache/pkg/types"
	"github.com/sirupsen/logrus"
)

// DefaultCommand is the size-analysis command invoked per package.
const DefaultCommand = "bundle-phobia"

// requiredFields must all be present on a line before it is accepted as a
// record. "size" is checked but not retained.
var requiredFields = [...]string{"name", "size", "gzip", "description", "repository", "version"}

// aggregateVersion matches the "<N> packages" shape the tool emits when it
// reports an aggregate summary instead of a single package. Such lines carry
// every required field and must be rejected by the version check alone.
var aggregateVersion = regexp.MustCompile(`^[0-9]+ packages$`)

// ErrBadJSON marks a line that is not valid JSON at all, as opposed to valid
// JSON of the wrong shape. Only this failure taints a package's collection
// stamp.
var ErrBadJSON = errors.New("line is not valid JSON")

// ParseRecord decodes one line of tool output into a PackageRecord. The
// returned error names the rejection reason.
func ParseRecord(line []byte) (types.PackageRecord, error) {
	if !json.Valid(line) {
		return types.PackageRecord{}, ErrBadJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return types.PackageRecord{}, fmt.Errorf("not a JSON object: %w", err)
	}
	for _, field := range requiredFields {
		if _, ok := fields[field]; !ok {
			return types.PackageRecord{}, fmt.Errorf("missing field %q", field)
		}
	}

	var record types.PackageRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return types.PackageRecord{}, fmt.Errorf("malformed record: %w", err)
	}
	if aggregateVersion.MatchString(record.Version) {
		return types.PackageRecord{}, fmt.Errorf("version %q is an aggregate summary, not a package version", record.Version)
	}
	return record, nil
}

// DecodeRecords parses newline-delimited tool output, preserving line order.
// Lines that fail ParseRecord are dropped; parseFailed reports whether any
// dropped line was not valid JSON, which taints the whole batch.
func DecodeRecords(output []byte) (records []types.PackageRecord, parseFailed bool) {
	for _, line := range bytes.Split(output, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		record, err := ParseRecord(line)
		if err != nil {
			if errors.Is(err, ErrBadJSON) {
				parseFailed = true
			}
			logrus.Debugf("dropping tool output line: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records, parseFailed
}

// ToolError reports a tool invocation that could not be spawned or exited
// abnormally. It is fatal for the whole run.
type ToolError struct {
	Package string
	Stderr  string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("size analysis of %s failed: %v: %s", e.Package, e.Err, e.Stderr)
	}
	return fmt.Sprintf("size analysis of %s failed: %v", e.Package, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Runner fetches raw tool output for a single package. It exists so the
// collector can be tested without the real CLI installed.
type Runner interface {
	Fetch(ctx context.Context, pkg string) ([]byte, error)
}

// CLI runs the bundle-phobia command installed on the host.
type CLI struct {
	command string
}

// NewCLI creates a runner for the given command name, falling back to
// DefaultCommand.
func NewCLI(command string) *CLI {
	if command == "" {
		command = DefaultCommand
	}
	return &CLI{command: command}
}

// Fetch invokes the tool for one package and returns its stdout. A spawn
// failure or non-zero exit yields a *ToolError.
func (c *CLI) Fetch(ctx context.Context, pkg string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.command, pkg, "-j", "-r")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ToolError{
			Package: pkg,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}
