package main

import (
	"bytes"
	"os/exec"
	"runtime"
	"strings"
)

// CmdResult is the outcome of one external tool invocation. Output holds
// trimmed stdout on success and the tool's trimmed stderr diagnostic on
// failure.
type CmdResult struct {
	OK     bool
	Output string
}

// Runner invokes the version-control binary or the hosting-platform CLI.
type Runner interface {
	Git(dir string, args ...string) CmdResult
	GH(dir string, args ...string) CmdResult
}

type execRunner struct{}

func (execRunner) Git(dir string, args ...string) CmdResult {
	return runTool("git", dir, args)
}

func (execRunner) GH(dir string, args ...string) CmdResult {
	return runTool("gh", dir, args)
}

func runTool(name string, dir string, args []string) CmdResult {
	path, err := exec.LookPath(name)
	if err != nil {
		return CmdResult{Output: name + " not installed"}
	}
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return CmdResult{Output: msg}
	}
	return CmdResult{OK: true, Output: strings.TrimSpace(stdout.String())}
}

func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
