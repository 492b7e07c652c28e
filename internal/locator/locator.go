// Package locator implements the Client Locator (spec §4.1): finding the
// running League client and extracting the ephemeral credentials needed to
// talk to its local API.
package locator

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/draftwatch/agent/internal/model"
)

// readFile is a var so tests can substitute a failing implementation without
// needing real OS-level permission bits (root ignores them).
var readFile = os.ReadFile

// FailureKind classifies why Acquire failed, per spec §7's error kinds.
type FailureKind string

const (
	NotRunning      FailureKind = "NotRunning"
	ParseError      FailureKind = "ParseError"
	PermissionDenied FailureKind = "PermissionDenied"
)

// AcquireError wraps a FailureKind with context. It never includes the
// token (Locator must never log or surface credentials).
type AcquireError struct {
	Kind FailureKind
	Err  error
}

func (e *AcquireError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("locator: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("locator: %s", e.Kind)
}

func (e *AcquireError) Unwrap() error { return e.Err }

const (
	processName  = "LeagueClientUx"
	lockfileName = "lockfile"
)

var (
	portRe  = regexp.MustCompile(`--app-port=(\d+)`)
	tokenRe = regexp.MustCompile(`--remoting-auth-token=([^\s"]+)`)
)

// Locator discovers a running client and yields Credentials. It never
// persists anything to disk and never logs the auth token.
type Locator struct {
	leaguePath string // optional override for lockfile discovery
	generation atomic.Uint64
}

// New returns a Locator. leaguePathOverride may be empty to use
// platform-default search paths only.
func New(leaguePathOverride string) *Locator {
	return &Locator{leaguePath: leaguePathOverride}
}

// Acquire finds the running client and returns fresh Credentials, or a
// FailureKind describing why it could not.
func (l *Locator) Acquire() (model.Credentials, error) {
	creds, err := l.fromProcess()
	if err != nil {
		if lfCreds, lfErr := l.fromLockfile(); lfErr == nil {
			return l.finalize(lfCreds), nil
		}
		return model.Credentials{}, err
	}
	return l.finalize(creds), nil
}

func (l *Locator) finalize(creds model.Credentials) model.Credentials {
	creds.Host = "127.0.0.1"
	if creds.Protocol == "" {
		creds.Protocol = "https"
	}
	creds.Generation = l.generation.Add(1)
	return creds
}

// fromProcess extracts --app-port and --remoting-auth-token from the
// running client's command line.
func (l *Locator) fromProcess() (model.Credentials, error) {
	cmdLine, err := commandLineOf(processName)
	if err != nil {
		if os.IsPermission(err) {
			return model.Credentials{}, &AcquireError{Kind: PermissionDenied, Err: err}
		}
		return model.Credentials{}, &AcquireError{Kind: NotRunning, Err: err}
	}

	portMatch := portRe.FindStringSubmatch(cmdLine)
	tokenMatch := tokenRe.FindStringSubmatch(cmdLine)
	if portMatch == nil || tokenMatch == nil {
		return model.Credentials{}, &AcquireError{Kind: ParseError, Err: errors.New("command line missing port or token")}
	}

	port, err := strconv.Atoi(portMatch[1])
	if err != nil {
		return model.Credentials{}, &AcquireError{Kind: ParseError, Err: err}
	}

	return model.Credentials{Port: port, AuthToken: tokenMatch[1]}, nil
}

// fromLockfile reads the lockfile next to the installed client:
// name:pid:port:token:protocol
func (l *Locator) fromLockfile() (model.Credentials, error) {
	var permErr error
	for _, path := range lockfileCandidates(l.leaguePath) {
		creds, err := parseLockfile(path)
		if err == nil {
			return creds, nil
		}
		if os.IsPermission(err) && permErr == nil {
			permErr = err
		}
	}
	if permErr != nil {
		return model.Credentials{}, &AcquireError{Kind: PermissionDenied, Err: permErr}
	}
	return model.Credentials{}, &AcquireError{Kind: NotRunning, Err: errors.New("no valid lockfile found")}
}

func parseLockfile(path string) (model.Credentials, error) {
	data, err := readFile(path)
	if err != nil {
		return model.Credentials{}, err
	}
	parts := strings.Split(strings.TrimSpace(string(data)), ":")
	if len(parts) != 5 {
		return model.Credentials{}, fmt.Errorf("malformed lockfile %s", path)
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil {
		return model.Credentials{}, fmt.Errorf("malformed lockfile port in %s: %w", path, err)
	}
	return model.Credentials{Port: port, AuthToken: parts[3], Protocol: parts[4]}, nil
}

func lockfileCandidates(override string) []string {
	var paths []string
	if override != "" {
		paths = append(paths, filepath.Join(override, lockfileName))
	}
	switch runtime.GOOS {
	case "windows":
		for _, drive := range []string{"C", "D", "E", "F", "G"} {
			paths = append(paths, filepath.Join(drive+":", "Riot Games", "League of Legends", lockfileName))
		}
	case "darwin":
		paths = append(paths, "/Applications/League of Legends.app/Contents/LoL/"+lockfileName)
	default: // linux, including WSL2 dev boxes that mount the Windows install
		for _, drive := range []string{"c", "d", "e", "f", "g"} {
			paths = append(paths, filepath.Join("/mnt", drive, "Riot Games", "League of Legends", lockfileName))
		}
	}
	return paths
}

// commandLineOf shells out to the platform's process inspector and returns
// the command line of the named process, or an error if it isn't running.
func commandLineOf(name string) (string, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("powershell", "-NoProfile", "-Command",
			fmt.Sprintf(`Get-CimInstance Win32_Process -Filter "name='%s.exe'" | Select-Object -ExpandProperty CommandLine`, name))
	case "darwin":
		cmd = exec.Command("ps", "-A", "-o", "command=")
	default:
		cmd = exec.Command("ps", "-eo", "args")
	}
	out, err := cmd.Output()
	if err != nil {
		if os.IsPermission(err) {
			return "", err
		}
		return "", fmt.Errorf("%s not running: %w", name, err)
	}
	output := string(out)
	if runtime.GOOS != "windows" {
		for _, line := range strings.Split(output, "\n") {
			if strings.Contains(line, name) {
				return line, nil
			}
		}
		return "", fmt.Errorf("%s not found in process list", name)
	}
	if strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("%s not found in process list", name)
	}
	return output, nil
}
