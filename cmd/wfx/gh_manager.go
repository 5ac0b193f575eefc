package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

func errPRFetch(number int, output string) error {
	return fmt.Errorf("failed to get PR #%d: %s", number, output)
}

func errPRParse(number int) error {
	return fmt.Errorf("failed to parse PR #%d data", number)
}

// CIStatus is the single actionable state a PR's check collection reduces to.
type CIStatus string

const (
	CIPassing CIStatus = "passing"
	CIFailing CIStatus = "failing"
	CIPending CIStatus = "pending"
	CIUnknown CIStatus = "unknown"
)

// CICheck is an immutable snapshot of one check run. Conclusion is empty
// while the check is still running.
type CICheck struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	URL        string `json:"url,omitempty"`
}

type PullRequest struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Branch     string    `json:"branch"`
	BaseBranch string    `json:"base_branch"`
	State      string    `json:"state"`
	Repo       string    `json:"repo"`
	Checks     []CICheck `json:"checks"`
	CIStatus   CIStatus  `json:"ci_status"`
}

// CheckFetch distinguishes a confirmed-empty check list from one that is
// empty because the fetch failed or did not parse.
type CheckFetch struct {
	Checks   []CICheck
	Degraded bool
}

type GHManager struct {
	runner Runner
}

func NewGHManager(runner Runner) *GHManager {
	if runner == nil {
		runner = execRunner{}
	}
	return &GHManager{runner: runner}
}

type ghCheckEntry struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Link  string `json:"link"`
}

type ghPREntry struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	HeadRefName string `json:"headRefName"`
	BaseRefName string `json:"baseRefName"`
	State       string `json:"state"`
}

type ghSearchEntry struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
}

// PRChecks fetches the raw check entries for a PR. A failed or unparseable
// fetch degrades to an empty list so CI trouble never blocks the caller.
func (m *GHManager) PRChecks(ctx RepoContext, number int, repo string) CheckFetch {
	args := []string{"pr", "checks", strconv.Itoa(number), "--json", "name,state,link"}
	if repo != "" {
		args = append(args, "--repo", repo)
	}
	res := m.runner.GH(ctx.Dir, args...)
	if !res.OK {
		return CheckFetch{Degraded: true}
	}
	var entries []ghCheckEntry
	if err := json.Unmarshal([]byte(res.Output), &entries); err != nil {
		return CheckFetch{Degraded: true}
	}
	checks := make([]CICheck, 0, len(entries))
	for _, e := range entries {
		checks = append(checks, checkFromRawState(e.Name, e.State, e.Link))
	}
	return CheckFetch{Checks: checks}
}

func checkFromRawState(name string, state string, link string) CICheck {
	state = strings.ToUpper(strings.TrimSpace(state))
	check := CICheck{Name: name, URL: link, Status: "unknown"}
	if check.Name == "" {
		check.Name = "unknown"
	}
	if state != "" {
		check.Status = strings.ToLower(state)
	}
	switch state {
	case "SUCCESS":
		check.Conclusion = "success"
	case "FAILURE", "ERROR":
		check.Conclusion = "failure"
	case "PENDING", "":
		// still running
	default:
		check.Conclusion = strings.ToLower(state)
	}
	return check
}

// DeriveCIStatus reduces a check collection to one actionable state. The
// precedence order is load-bearing: a single failure wins over any number
// of passing or pending checks, and indeterminate states never report as
// passing.
func DeriveCIStatus(checks []CICheck) CIStatus {
	if len(checks) == 0 {
		return CIUnknown
	}
	for _, c := range checks {
		if c.Conclusion == "failure" {
			return CIFailing
		}
	}
	for _, c := range checks {
		if c.Status == "pending" || c.Status == "in_progress" {
			return CIPending
		}
	}
	for _, c := range checks {
		switch c.Conclusion {
		case "", "success", "skipped", "neutral":
		default:
			return CIUnknown
		}
	}
	return CIPassing
}

// MyPRs lists open PRs authored by the current user. With a repo it uses
// the richer repo-scoped listing; without one it searches across all
// accessible repositories, where branch and URL have to be synthesized.
func (m *GHManager) MyPRs(ctx RepoContext, repo string) []PullRequest {
	if repo != "" {
		return m.repoPRs(ctx, repo)
	}
	return m.searchPRs(ctx)
}

func (m *GHManager) repoPRs(ctx RepoContext, repo string) []PullRequest {
	res := m.runner.GH(ctx.Dir, "pr", "list",
		"--repo", repo,
		"--author", "@me",
		"--state", "open",
		"--json", "number,title,url,headRefName,baseRefName,state")
	if !res.OK {
		logPRListFailure(res.Output)
		return []PullRequest{}
	}
	var entries []ghPREntry
	if err := json.Unmarshal([]byte(res.Output), &entries); err != nil {
		log.Error("failed to parse PR data")
		return []PullRequest{}
	}
	prs := make([]PullRequest, 0, len(entries))
	for _, e := range entries {
		prs = append(prs, normalizePREntry(e, repo))
	}
	return prs
}

func (m *GHManager) searchPRs(ctx RepoContext) []PullRequest {
	res := m.runner.GH(ctx.Dir, "search", "prs",
		"--author", "@me",
		"--state", "open",
		"--json", "number,title,repository")
	if !res.OK {
		logPRListFailure(res.Output)
		return []PullRequest{}
	}
	var entries []ghSearchEntry
	if err := json.Unmarshal([]byte(res.Output), &entries); err != nil {
		log.Error("failed to parse PR data")
		return []PullRequest{}
	}
	prs := make([]PullRequest, 0, len(entries))
	for _, e := range entries {
		repoName := e.Repository.NameWithOwner
		if repoName == "" {
			repoName = "unknown/unknown"
		}
		prs = append(prs, PullRequest{
			Number:     e.Number,
			Title:      e.Title,
			URL:        "https://github.com/" + repoName + "/pull/" + strconv.Itoa(e.Number),
			Branch:     "unknown",
			BaseBranch: "main",
			State:      "open",
			Repo:       repoName,
			Checks:     []CICheck{},
			CIStatus:   CIUnknown,
		})
	}
	return prs
}

func normalizePREntry(e ghPREntry, repo string) PullRequest {
	branch := e.HeadRefName
	if branch == "" {
		branch = "unknown"
	}
	base := e.BaseRefName
	if base == "" {
		base = "main"
	}
	state := e.State
	if state == "" {
		state = "open"
	}
	return PullRequest{
		Number:     e.Number,
		Title:      e.Title,
		URL:        e.URL,
		Branch:     branch,
		BaseBranch: base,
		State:      strings.ToLower(state),
		Repo:       repo,
		Checks:     []CICheck{},
		CIStatus:   CIUnknown,
	}
}

func logPRListFailure(output string) {
	lower := strings.ToLower(output)
	if strings.Contains(lower, "gh auth") || strings.Contains(lower, "authentication") {
		log.Error("github CLI not authenticated, run: gh auth login")
		return
	}
	log.Error("failed to list PRs", "output", output)
}

// PRWithChecks fetches one PR and attaches its freshly derived CI status.
// The check collection is fully replaced on every call.
func (m *GHManager) PRWithChecks(ctx RepoContext, number int, repo string) (PullRequest, error) {
	args := []string{"pr", "view", strconv.Itoa(number),
		"--json", "number,title,url,headRefName,baseRefName,state"}
	if repo != "" {
		args = append(args, "--repo", repo)
	}
	res := m.runner.GH(ctx.Dir, args...)
	if !res.OK {
		return PullRequest{}, errPRFetch(number, res.Output)
	}
	var entry ghPREntry
	if err := json.Unmarshal([]byte(res.Output), &entry); err != nil {
		return PullRequest{}, errPRParse(number)
	}
	pr := normalizePREntry(entry, repo)
	fetch := m.PRChecks(ctx, number, repo)
	pr.Checks = fetch.Checks
	pr.CIStatus = DeriveCIStatus(pr.Checks)
	return pr, nil
}

// AllPRsStatus lists the user's open PRs and resolves CI status for each.
func (m *GHManager) AllPRsStatus(ctx RepoContext, repo string) []PullRequest {
	prs := m.MyPRs(ctx, repo)
	for i := range prs {
		checkRepo := prs[i].Repo
		if checkRepo == "" {
			checkRepo = repo
		}
		fetch := m.PRChecks(ctx, prs[i].Number, checkRepo)
		prs[i].Checks = fetch.Checks
		prs[i].CIStatus = DeriveCIStatus(prs[i].Checks)
	}
	return prs
}

func FailedChecks(pr PullRequest) []CICheck {
	failed := make([]CICheck, 0, len(pr.Checks))
	for _, c := range pr.Checks {
		if c.Conclusion == "failure" {
			failed = append(failed, c)
		}
	}
	return failed
}

// PRBranch resolves the head branch name for a PR number.
func (m *GHManager) PRBranch(ctx RepoContext, number int, repo string) (string, error) {
	args := []string{"pr", "view", strconv.Itoa(number), "--json", "headRefName"}
	if repo != "" {
		args = append(args, "--repo", repo)
	}
	res := m.runner.GH(ctx.Dir, args...)
	if !res.OK {
		return "", errPRFetch(number, res.Output)
	}
	var data struct {
		HeadRefName string `json:"headRefName"`
	}
	if err := json.Unmarshal([]byte(res.Output), &data); err != nil {
		return "", errPRParse(number)
	}
	return data.HeadRefName, nil
}
