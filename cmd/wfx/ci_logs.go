package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const logsUnavailableMessage = "Could not retrieve failure logs. Check the GitHub Actions UI directly."

// LogResolver retrieves human-readable failure logs for a PR. Log
// retrieval is best-effort against an external system with several
// historical API shapes, so every stage degrades gracefully and the
// resolver returns text rather than errors.
type LogResolver struct {
	ctx    RepoContext
	runner Runner
}

func NewLogResolver(ctx RepoContext) *LogResolver {
	return &LogResolver{ctx: ctx, runner: ctx.runner}
}

type ghRunJob struct {
	Name       string `json:"name"`
	Conclusion string `json:"conclusion"`
	DatabaseID int64  `json:"databaseId"`
}

type ghRun struct {
	Name       string `json:"name"`
	Conclusion string `json:"conclusion"`
	DatabaseID int64  `json:"databaseId"`
}

// FailureLogs resolves logs for the failing checks of a PR, optionally
// narrowed to one check name. Each stage runs only when the previous one
// produced nothing.
func (r *LogResolver) FailureLogs(number int, checkName string, repo string) string {
	args := []string{"pr", "checks", strconv.Itoa(number), "--json", "name,state,link"}
	if repo != "" {
		args = append(args, "--repo", repo)
	}
	res := r.runner.GH(r.ctx.Dir, args...)
	if !res.OK {
		return "Failed to get checks: " + res.Output
	}
	var entries []ghCheckEntry
	if err := json.Unmarshal([]byte(res.Output), &entries); err != nil {
		return "Failed to parse checks data"
	}

	failed := make([]ghCheckEntry, 0, len(entries))
	for _, e := range entries {
		switch strings.ToUpper(strings.TrimSpace(e.State)) {
		case "FAILURE", "ERROR":
			failed = append(failed, e)
		}
	}
	if len(failed) == 0 {
		return "No failed checks found"
	}
	if checkName != "" {
		named := failed[:0]
		for _, e := range failed {
			if e.Name == checkName {
				named = append(named, e)
			}
		}
		if len(named) == 0 {
			return fmt.Sprintf("Check '%s' not found or not failing", checkName)
		}
		failed = named
	}

	var logs []string
	for _, check := range failed {
		logs = append(logs, r.jobLogsFromLink(check, repo)...)
	}
	if len(logs) == 0 {
		logs = r.recentRunLogs(number, repo)
	}
	if len(logs) == 0 {
		return logsUnavailableMessage
	}
	return strings.Join(logs, "\n")
}

// jobLogsFromLink extracts the workflow run id from a check's detail link
// and pulls the failed-step logs of that run's failed jobs. Links that do
// not reference a run yield nothing, which hands control to the next stage.
func (r *LogResolver) jobLogsFromLink(check ghCheckEntry, repo string) []string {
	runID, ok := runIDFromLink(check.Link)
	if !ok {
		return nil
	}
	args := []string{"run", "view", runID, "--json", "jobs"}
	if repo != "" {
		args = append(args, "--repo", repo)
	}
	res := r.runner.GH(r.ctx.Dir, args...)
	if !res.OK {
		return nil
	}
	var data struct {
		Jobs []ghRunJob `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(res.Output), &data); err != nil {
		return nil
	}

	var logs []string
	for _, job := range data.Jobs {
		if job.Conclusion != "failure" || job.DatabaseID == 0 {
			continue
		}
		logArgs := []string{"run", "view", "--job", strconv.FormatInt(job.DatabaseID, 10), "--log-failed"}
		if repo != "" {
			logArgs = append(logArgs, "--repo", repo)
		}
		logRes := r.runner.GH(r.ctx.Dir, logArgs...)
		if logRes.OK && logRes.Output != "" {
			jobName := job.Name
			if jobName == "" {
				jobName = "unknown job"
			}
			logs = append(logs, fmt.Sprintf("=== %s - %s ===", check.Name, jobName), logRes.Output, "")
		}
	}
	return logs
}

// recentRunLogs is the last resort: list runs on the pr/<number> branch
// convention and pull whatever failed-run logs are retrievable, newest
// three at most.
func (r *LogResolver) recentRunLogs(number int, repo string) []string {
	args := []string{"run", "list", "--branch", fmt.Sprintf("pr/%d", number), "--json", "databaseId,conclusion,name"}
	if repo != "" {
		args = append(args, "--repo", repo)
	}
	res := r.runner.GH(r.ctx.Dir, args...)
	if !res.OK {
		return nil
	}
	var runs []ghRun
	if err := json.Unmarshal([]byte(res.Output), &runs); err != nil {
		return nil
	}

	var logs []string
	taken := 0
	for _, run := range runs {
		if run.Conclusion != "failure" || run.DatabaseID == 0 {
			continue
		}
		if taken == 3 {
			break
		}
		taken++
		viewArgs := []string{"run", "view", strconv.FormatInt(run.DatabaseID, 10), "--log-failed"}
		if repo != "" {
			viewArgs = append(viewArgs, "--repo", repo)
		}
		viewRes := r.runner.GH(r.ctx.Dir, viewArgs...)
		if viewRes.OK && viewRes.Output != "" {
			name := run.Name
			if name == "" {
				name = "unknown"
			}
			logs = append(logs, fmt.Sprintf("=== %s ===", name), viewRes.Output, "")
		}
	}
	return logs
}

func runIDFromLink(link string) (string, bool) {
	const marker = "/actions/runs/"
	idx := strings.Index(link, marker)
	if idx < 0 {
		return "", false
	}
	rest := link[idx+len(marker):]
	if cut := strings.IndexByte(rest, '/'); cut >= 0 {
		rest = rest[:cut]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}
