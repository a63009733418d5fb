// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package childprocess

import (
	"regexp"
	"strings"
)

// CrashReason categorizes why a child process terminated unexpectedly.
type CrashReason int

const (
	CrashReasonNone CrashReason = iota
	CrashReasonPanic
	CrashReasonFatal
	CrashReasonOOM
	CrashReasonSignal
	CrashReasonTimeout
	CrashReasonError
	CrashReasonUnknown
)

func (r CrashReason) String() string {
	switch r {
	case CrashReasonNone:
		return "none"
	case CrashReasonPanic:
		return "panic"
	case CrashReasonFatal:
		return "fatal"
	case CrashReasonOOM:
		return "oom"
	case CrashReasonSignal:
		return "signal"
	case CrashReasonTimeout:
		return "timeout"
	case CrashReasonError:
		return "error"
	default:
		return "unknown"
	}
}

// crashAnalyzer classifies a child's recent stderr lines and exit code
// into a CrashInfo. Folded in from a standalone crash-history subsystem:
// report() only needs a single live classification, not a persisted
// archive, so the regex-driven detectors are kept but the archival layer
// around them is not.
type crashAnalyzer struct {
	panicRe   *regexp.Regexp
	fatalRe   *regexp.Regexp
	oomRe     *regexp.Regexp
	sigTermRe *regexp.Regexp
	sigKillRe *regexp.Regexp
	sigIntRe  *regexp.Regexp
	timeoutRe *regexp.Regexp
	goStackRe *regexp.Regexp
	goLocRe   *regexp.Regexp
}

func newCrashAnalyzer() *crashAnalyzer {
	return &crashAnalyzer{
		panicRe:   regexp.MustCompile(`(?i)^panic:`),
		fatalRe:   regexp.MustCompile(`(?i)^fatal error:`),
		oomRe:     regexp.MustCompile(`(?i)(out of memory|cannot allocate memory)`),
		sigTermRe: regexp.MustCompile(`(?i)(signal[:\s]+terminated|SIGTERM)`),
		sigKillRe: regexp.MustCompile(`(?i)(signal[:\s]+killed|SIGKILL)`),
		sigIntRe:  regexp.MustCompile(`(?i)(signal[:\s]+interrupt|SIGINT)`),
		timeoutRe: regexp.MustCompile(`(?i)(context deadline exceeded|timeout)`),
		goStackRe: regexp.MustCompile(`goroutine \d+ \[running\]:`),
		goLocRe:   regexp.MustCompile(`^\s*(/[^\s]+\.go):(\d+)`),
	}
}

// analyze examines a child's recent stderr lines and exit code to
// determine why it terminated.
func (a *crashAnalyzer) analyze(lines []string, exitCode int) *CrashInfo {
	result := &CrashInfo{ExitCode: exitCode}

	if exitCode == 0 && !a.hasCrashIndicators(lines) {
		result.Reason = CrashReasonNone
		return result
	}

	if len(lines) == 0 {
		return a.analyzeExitCode(result)
	}

	if a.detectPanic(lines, result) {
		return result
	}
	if a.detectOOM(lines, result) {
		return result
	}
	if a.detectFatal(lines, result) {
		return result
	}
	if a.detectSignal(lines, result) {
		return result
	}
	if a.detectTimeout(lines, result) {
		return result
	}

	a.analyzeExitCode(result)
	if result.Details == "" && len(lines) > 0 {
		var lastLines []string
		for i := len(lines) - 1; i >= 0 && len(lastLines) < 3; i-- {
			line := strings.TrimSpace(lines[i])
			if line != "" {
				lastLines = append([]string{line}, lastLines...)
			}
		}
		if len(lastLines) > 0 {
			result.Details = strings.Join(lastLines, " | ")
		}
	}
	return result
}

func (a *crashAnalyzer) hasCrashIndicators(lines []string) bool {
	for _, line := range lines {
		if a.panicRe.MatchString(line) || a.fatalRe.MatchString(line) ||
			a.oomRe.MatchString(line) || a.sigTermRe.MatchString(line) ||
			a.sigKillRe.MatchString(line) || a.sigIntRe.MatchString(line) {
			return true
		}
	}
	return false
}

func (a *crashAnalyzer) detectPanic(lines []string, result *CrashInfo) bool {
	for i, line := range lines {
		if a.panicRe.MatchString(line) {
			result.Reason = CrashReasonPanic
			result.Details = strings.TrimPrefix(line, "panic: ")

			inStackTrace := false
			var stackLines []string
			for j := i + 1; j < len(lines); j++ {
				if a.goStackRe.MatchString(lines[j]) {
					inStackTrace = true
				}
				if inStackTrace {
					stackLines = append(stackLines, lines[j])
					if result.Location == "" {
						if match := a.goLocRe.FindStringSubmatch(lines[j]); match != nil {
							parts := strings.Split(match[1], "/")
							result.Location = parts[len(parts)-1] + ":" + match[2]
						}
					}
				}
			}
			result.StackTrace = stackLines
			return true
		}
	}
	return false
}

func (a *crashAnalyzer) detectFatal(lines []string, result *CrashInfo) bool {
	for _, line := range lines {
		if a.fatalRe.MatchString(line) {
			result.Reason = CrashReasonFatal
			result.Details = strings.TrimPrefix(line, "fatal error: ")
			return true
		}
	}
	return false
}

func (a *crashAnalyzer) detectOOM(lines []string, result *CrashInfo) bool {
	for _, line := range lines {
		if a.oomRe.MatchString(line) {
			result.Reason = CrashReasonOOM
			result.Details = "out of memory"
			return true
		}
	}
	return false
}

func (a *crashAnalyzer) detectSignal(lines []string, result *CrashInfo) bool {
	for _, line := range lines {
		if a.sigTermRe.MatchString(line) {
			result.Reason = CrashReasonSignal
			result.Details = "SIGTERM"
			return true
		}
		if a.sigKillRe.MatchString(line) {
			result.Reason = CrashReasonSignal
			result.Details = "SIGKILL"
			return true
		}
		if a.sigIntRe.MatchString(line) {
			result.Reason = CrashReasonSignal
			result.Details = "SIGINT"
			return true
		}
	}
	return false
}

func (a *crashAnalyzer) detectTimeout(lines []string, result *CrashInfo) bool {
	for _, line := range lines {
		if a.timeoutRe.MatchString(line) {
			result.Reason = CrashReasonTimeout
			result.Details = line
			return true
		}
	}
	return false
}

func (a *crashAnalyzer) analyzeExitCode(result *CrashInfo) *CrashInfo {
	switch {
	case result.ExitCode == 0:
		result.Reason = CrashReasonNone
	case result.ExitCode >= 128:
		result.Reason = CrashReasonSignal
		result.Details = signalName(result.ExitCode - 128)
	case result.ExitCode > 0:
		result.Reason = CrashReasonError
	default:
		result.Reason = CrashReasonUnknown
	}
	return result
}

func signalName(num int) string {
	switch num {
	case 1:
		return "SIGHUP"
	case 2:
		return "SIGINT"
	case 3:
		return "SIGQUIT"
	case 9:
		return "SIGKILL"
	case 11:
		return "SIGSEGV"
	case 15:
		return "SIGTERM"
	default:
		return "signal"
	}
}
