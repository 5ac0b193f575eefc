package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type contextFn func() RepoContext

func newRootCommand() *cobra.Command {
	var dir string
	root := &cobra.Command{
		Use:           "wfx",
		Short:         "Worktree and PR workflow automation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&dir, "dir", "C", "", "Run as if started in this directory")

	ctx := func() RepoContext { return NewRepoContext(dir, nil) }

	root.AddCommand(
		newRepoRootCommand(ctx),
		newRepoNameCommand(ctx),
		newGitHubRepoCommand(ctx),
		newMainBranchCommand(ctx),
		newCurrentBranchCommand(ctx),
		newCreateWorktreeCommand(ctx),
		newCheckoutWorktreeCommand(ctx),
		newRemoveWorktreeCommand(ctx),
		newListWorktreesCommand(ctx),
		newCommitCommand(ctx),
		newPushCommand(ctx),
		newCreatePRCommand(ctx),
		newChangedFilesCommand(ctx),
		newHasChangesCommand(ctx),
		newMyPRsCommand(ctx),
		newPRChecksCommand(ctx),
		newPRStatusCommand(ctx),
		newAllPRsStatusCommand(ctx),
		newFailedChecksCommand(ctx),
		newCILogsCommand(ctx),
		newPRBranchCommand(ctx),
		newPRDashboardCommand(ctx),
		newTicketCommand(),
		newProjectCommand(),
	)
	return root
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newRepoRootCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "repo-root",
		Short: "Print repository root path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			root, err := ctx().Root()
			if err != nil {
				return err
			}
			fmt.Println(root)
			return nil
		},
	}
}

func newRepoNameCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "repo-name",
		Short: "Print repository name",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println(ctx().Name())
			return nil
		},
	}
}

func newGitHubRepoCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "github-repo",
		Short: "Print GitHub repo (owner/name) from the origin remote",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			repo, err := ctx().GitHubRepo()
			if err != nil {
				return err
			}
			fmt.Println(repo)
			return nil
		},
	}
}

func newMainBranchCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "main-branch",
		Short: "Print mainline branch name (main or master)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println(ctx().MainBranch())
			return nil
		},
	}
}

func newCurrentBranchCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "current-branch",
		Short: "Print current branch name",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println(ctx().CurrentBranch())
			return nil
		},
	}
}

func newCreateWorktreeCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "create-worktree <branch>",
		Short: "Create a worktree for a new branch off the mainline",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			entry, err := NewWorktreeManager(ctx()).Create(args[0])
			if err != nil {
				return err
			}
			return printJSON(entry)
		},
	}
}

func newCheckoutWorktreeCommand(ctx contextFn) *cobra.Command {
	var repoPath string
	cmd := &cobra.Command{
		Use:   "checkout-worktree <branch>",
		Short: "Create a worktree for an existing remote branch (CI-fix flow)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := ctx()
			if target := strings.TrimSpace(repoPath); target != "" {
				dir, err := resolveRepoDir(target)
				if err != nil {
					return err
				}
				c = NewRepoContext(dir, c.runner)
			}
			entry, err := NewWorktreeManager(c).Checkout(args[0])
			if err != nil {
				return err
			}
			return printJSON(entry)
		},
	}
	cmd.Flags().StringVar(&repoPath, "repo", "", "Repository path or owner/name (defaults to current directory)")
	return cmd
}

// resolveRepoDir accepts either a filesystem path or an owner/name
// identifier looked up under the configured repository search paths.
func resolveRepoDir(target string) (string, error) {
	if pathExists(target) {
		return target, nil
	}
	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	if dir, ok := FindRepoDir(target, RepoSearchPathsFromEnv(cfg)); ok {
		return dir, nil
	}
	return "", fmt.Errorf("repository %q not found locally", target)
}

func newRemoveWorktreeCommand(ctx contextFn) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove-worktree <path>",
		Short: "Remove a worktree, discarding any uncommitted changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirmRemoval(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			return NewWorktreeManager(ctx()).Remove(args[0])
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newListWorktreesCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "list-worktrees",
		Short: "List all worktrees",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			entries, err := NewWorktreeManager(ctx()).List()
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}
}

func newCommitCommand(ctx contextFn) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Stage and commit all changes",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if strings.TrimSpace(message) == "" {
				return errors.New("commit message required")
			}
			return NewRepoOps(ctx()).Commit(message)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message")
	return cmd
}

func newPushCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "push <branch>",
		Short: "Push a branch to origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return NewRepoOps(ctx()).Push(args[0])
		},
	}
}

func newCreatePRCommand(ctx contextFn) *cobra.Command {
	var title string
	var body string
	cmd := &cobra.Command{
		Use:   "create-pr",
		Short: "Create a pull request for the current branch",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if strings.TrimSpace(title) == "" {
				return errors.New("--title required")
			}
			url, err := NewRepoOps(ctx()).CreatePR(title, body)
			if err != nil {
				return err
			}
			return printJSON(map[string]string{"url": url})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "PR title")
	cmd.Flags().StringVar(&body, "body", "", "PR body")
	return cmd
}

func newChangedFilesCommand(ctx contextFn) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "changed-files",
		Short: "List files changed relative to the base branch",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			files := NewRepoOps(ctx()).ChangedFiles(base)
			if files == nil {
				files = []string{}
			}
			return printJSON(files)
		},
	}
	cmd.Flags().StringVar(&base, "base", "main", "Base branch")
	return cmd
}

func newHasChangesCommand(ctx contextFn) *cobra.Command {
	return &cobra.Command{
		Use:   "has-changes",
		Short: "Check for uncommitted changes (exit 1 when dirty)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dirty := NewRepoOps(ctx()).HasChanges()
			if err := printJSON(map[string]bool{"has_changes": dirty}); err != nil {
				return err
			}
			if dirty {
				os.Exit(1)
			}
			return nil
		},
	}
}

func parsePRNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid PR number %q", arg)
	}
	return n, nil
}

func newMyPRsCommand(ctx contextFn) *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "my-prs",
		Short: "List my open PRs",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := ctx()
			return printJSON(NewGHManager(c.runner).MyPRs(c, repo))
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository (owner/name)")
	return cmd
}

func newPRChecksCommand(ctx contextFn) *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "pr-checks <number>",
		Short: "List CI checks for a PR",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[0])
			if err != nil {
				return err
			}
			c := ctx()
			fetch := NewGHManager(c.runner).PRChecks(c, number, repo)
			checks := fetch.Checks
			if checks == nil {
				checks = []CICheck{}
			}
			return printJSON(checks)
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository (owner/name)")
	return cmd
}

func newPRStatusCommand(ctx contextFn) *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "pr-status <number>",
		Short: "Show a PR with its derived CI status",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[0])
			if err != nil {
				return err
			}
			c := ctx()
			pr, err := NewGHManager(c.runner).PRWithChecks(c, number, repo)
			if err != nil {
				return err
			}
			return printJSON(pr)
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository (owner/name)")
	return cmd
}

func newAllPRsStatusCommand(ctx contextFn) *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "all-prs-status",
		Short: "List my open PRs with their CI status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := ctx()
			return printJSON(NewGHManager(c.runner).AllPRsStatus(c, repo))
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository (owner/name)")
	return cmd
}

func newFailedChecksCommand(ctx contextFn) *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "failed-checks <number>",
		Short: "List only the failing checks for a PR",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[0])
			if err != nil {
				return err
			}
			c := ctx()
			pr, err := NewGHManager(c.runner).PRWithChecks(c, number, repo)
			if err != nil {
				return err
			}
			return printJSON(FailedChecks(pr))
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository (owner/name)")
	return cmd
}

func newCILogsCommand(ctx contextFn) *cobra.Command {
	var repo string
	var check string
	cmd := &cobra.Command{
		Use:   "ci-logs <number>",
		Short: "Fetch CI failure logs for a PR",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[0])
			if err != nil {
				return err
			}
			fmt.Println(NewLogResolver(ctx()).FailureLogs(number, check, repo))
			return nil
		},
	}
	cmd.Flags().StringVar(&check, "check", "", "Specific check name")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository (owner/name)")
	return cmd
}

func newPRBranchCommand(ctx contextFn) *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "pr-branch <number>",
		Short: "Print the head branch name for a PR",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[0])
			if err != nil {
				return err
			}
			c := ctx()
			branch, err := NewGHManager(c.runner).PRBranch(c, number, repo)
			if err != nil {
				return err
			}
			if branch == "" {
				return fmt.Errorf("no branch for PR #%d", number)
			}
			fmt.Println(branch)
			return nil
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository (owner/name)")
	return cmd
}

func newPRDashboardCommand(ctx contextFn) *cobra.Command {
	var repo string
	cmd := &cobra.Command{
		Use:   "prs",
		Short: "Interactive PR dashboard",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runPRDashboard(ctx(), repo)
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository (owner/name)")
	return cmd
}

func linearClient() (*LinearClient, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewLinearClient(cfg)
}

func newTicketCommand() *cobra.Command {
	ticket := &cobra.Command{
		Use:   "ticket",
		Short: "Ticket tracker operations",
	}

	ticket.AddCommand(&cobra.Command{
		Use:   "get <ticket-id>",
		Short: "Get ticket details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client, err := linearClient()
			if err != nil {
				return err
			}
			t, err := client.GetTicket(args[0])
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	})

	var team, title, description, project, state string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a ticket",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if strings.TrimSpace(title) == "" {
				return errors.New("--title required")
			}
			client, err := linearClient()
			if err != nil {
				return err
			}
			t, err := client.CreateTicket(title, description, team, project, state)
			if err != nil {
				return err
			}
			return printJSON(t)
		},
	}
	create.Flags().StringVar(&team, "team", "", "Team key from the config")
	create.Flags().StringVar(&title, "title", "", "Ticket title")
	create.Flags().StringVar(&description, "description", "", "Ticket description")
	create.Flags().StringVar(&project, "project", "", "Project ID to attach the ticket to")
	create.Flags().StringVar(&state, "state", "", "Initial state name (Todo, In Progress, ...)")
	ticket.AddCommand(create)

	var status string
	update := &cobra.Command{
		Use:   "update-status <ticket-id>",
		Short: "Update ticket status",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if strings.TrimSpace(status) == "" {
				return errors.New("--status required")
			}
			client, err := linearClient()
			if err != nil {
				return err
			}
			if err := client.UpdateStatus(args[0], status); err != nil {
				return err
			}
			return printJSON(map[string]any{"success": true, "ticket_id": args[0], "status": status})
		},
	}
	update.Flags().StringVar(&status, "status", "", "New status name")
	ticket.AddCommand(update)

	var body string
	comment := &cobra.Command{
		Use:   "comment <ticket-id>",
		Short: "Add a comment to a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if strings.TrimSpace(body) == "" {
				return errors.New("--body required")
			}
			client, err := linearClient()
			if err != nil {
				return err
			}
			if err := client.AddComment(args[0], body); err != nil {
				return err
			}
			return printJSON(map[string]any{"success": true, "ticket_id": args[0]})
		},
	}
	comment.Flags().StringVar(&body, "body", "", "Comment body (markdown)")
	ticket.AddCommand(comment)

	return ticket
}

func newProjectCommand() *cobra.Command {
	project := &cobra.Command{
		Use:   "project",
		Short: "Ticket tracker project operations",
	}

	project.AddCommand(&cobra.Command{
		Use:   "get <project-id>",
		Short: "Get project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client, err := linearClient()
			if err != nil {
				return err
			}
			p, err := client.GetProject(args[0])
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	})

	project.AddCommand(&cobra.Command{
		Use:   "tickets <project-id>",
		Short: "List tickets in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client, err := linearClient()
			if err != nil {
				return err
			}
			tickets, err := client.ProjectTickets(args[0])
			if err != nil {
				return err
			}
			return printJSON(tickets)
		},
	})

	var team, name, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name required")
			}
			client, err := linearClient()
			if err != nil {
				return err
			}
			p, err := client.CreateProject(name, description, team)
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	}
	create.Flags().StringVar(&team, "team", "", "Team key from the config")
	create.Flags().StringVar(&name, "name", "", "Project name")
	create.Flags().StringVar(&description, "description", "", "Project description")
	project.AddCommand(create)

	return project
}
