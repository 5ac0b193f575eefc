package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const linearAPIURL = "https://api.linear.app/graphql"

type LinearTicket struct {
	ID          string `json:"id"`
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

type LinearProject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

const issueFragment = `
fragment IssueFields on Issue {
    id
    identifier
    title
    description
    url
    state {
        id
        name
    }
}
`

const getIssueQuery = `
query GetIssue($id: String!) {
    issue(id: $id) {
        ...IssueFields
    }
}
` + issueFragment

const getProjectQuery = `
query GetProject($id: String!) {
    project(id: $id) {
        id
        name
        description
        url
    }
}
`

const listProjectIssuesQuery = `
query ListProjectIssues($projectId: String!) {
    project(id: $projectId) {
        issues(first: 100) {
            nodes {
                ...IssueFields
            }
        }
    }
}
` + issueFragment

const searchProjectsQuery = `
query SearchProjects($query: String!) {
    projects(filter: { name: { containsIgnoreCase: $query } }, first: 10) {
        nodes {
            id
            name
            description
            url
        }
    }
}
`

const workflowStatesQuery = `
query GetWorkflowStates($teamId: String!) {
    team(id: $teamId) {
        states {
            nodes {
                id
                name
                type
            }
        }
    }
}
`

const createIssueMutation = `
mutation CreateIssue($input: IssueCreateInput!) {
    issueCreate(input: $input) {
        success
        issue {
            ...IssueFields
        }
    }
}
` + issueFragment

const updateIssueMutation = `
mutation UpdateIssue($id: String!, $input: IssueUpdateInput!) {
    issueUpdate(id: $id, input: $input) {
        success
        issue {
            ...IssueFields
        }
    }
}
` + issueFragment

const createCommentMutation = `
mutation CreateComment($input: CommentCreateInput!) {
    commentCreate(input: $input) {
        success
        comment {
            id
            body
        }
    }
}
`

const createProjectMutation = `
mutation CreateProject($input: ProjectCreateInput!) {
    projectCreate(input: $input) {
        success
        project {
            id
            name
            description
            url
        }
    }
}
`

// LinearClient talks to the Linear GraphQL API. Team ids come from config,
// never from a compiled-in table.
type LinearClient struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	teams       map[string]string
	defaultTeam string
}

func NewLinearClient(cfg Config) (*LinearClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("LINEAR_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("LINEAR_API_KEY environment variable is required; get a key from Linear Settings > API > Personal API keys")
	}
	return &LinearClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		endpoint:    linearAPIURL,
		apiKey:      apiKey,
		teams:       cfg.LinearTeams,
		defaultTeam: cfg.DefaultTeam,
	}, nil
}

func (c *LinearClient) teamID(team string) (string, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		team = c.defaultTeam
	}
	if id, ok := c.teams[team]; ok && id != "" {
		return id, nil
	}
	return "", fmt.Errorf("unknown linear team %q: add it to linear_teams in the config", team)
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *LinearClient) execute(query string, variables map[string]any, out any) error {
	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("linear API request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("linear API response unreadable: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("linear API request failed: status %d", resp.StatusCode)
	}
	if len(decoded.Errors) > 0 {
		msgs := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("linear graphql errors: %s", strings.Join(msgs, ", "))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(decoded.Data, out)
}

type linearIssueNode struct {
	ID          string `json:"id"`
	Identifier  string `json:"identifier"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	State       struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"state"`
}

func ticketFromNode(node linearIssueNode) LinearTicket {
	status := node.State.Name
	if status == "" {
		status = "Unknown"
	}
	return LinearTicket{
		ID:          node.ID,
		Identifier:  node.Identifier,
		Title:       node.Title,
		URL:         node.URL,
		Status:      status,
		Description: node.Description,
	}
}

func (c *LinearClient) GetTicket(ticketID string) (LinearTicket, error) {
	var data struct {
		Issue *linearIssueNode `json:"issue"`
	}
	if err := c.execute(getIssueQuery, map[string]any{"id": ticketID}, &data); err != nil {
		return LinearTicket{}, err
	}
	if data.Issue == nil {
		return LinearTicket{}, fmt.Errorf("could not find ticket: %s", ticketID)
	}
	return ticketFromNode(*data.Issue), nil
}

// CreateTicket creates an issue, optionally in a project and with an
// initial state resolved by name against the team's workflow states.
func (c *LinearClient) CreateTicket(title string, description string, team string, projectID string, state string) (LinearTicket, error) {
	teamID, err := c.teamID(team)
	if err != nil {
		return LinearTicket{}, err
	}
	input := map[string]any{
		"title":       title,
		"description": description,
		"teamId":      teamID,
	}
	if projectID != "" {
		input["projectId"] = projectID
	}
	if state != "" {
		if stateID, ok := c.stateID(teamID, state); ok {
			input["stateId"] = stateID
		}
	}

	var data struct {
		IssueCreate struct {
			Success bool            `json:"success"`
			Issue   linearIssueNode `json:"issue"`
		} `json:"issueCreate"`
	}
	if err := c.execute(createIssueMutation, map[string]any{"input": input}, &data); err != nil {
		return LinearTicket{}, err
	}
	if !data.IssueCreate.Success {
		return LinearTicket{}, fmt.Errorf("failed to create ticket %q", title)
	}
	return ticketFromNode(data.IssueCreate.Issue), nil
}

func (c *LinearClient) stateID(teamID string, stateName string) (string, bool) {
	var data struct {
		Team struct {
			States struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"states"`
		} `json:"team"`
	}
	if err := c.execute(workflowStatesQuery, map[string]any{"teamId": teamID}, &data); err != nil {
		return "", false
	}
	for _, s := range data.Team.States.Nodes {
		if strings.EqualFold(s.Name, stateName) {
			return s.ID, true
		}
	}
	return "", false
}

// UpdateStatus moves a ticket to the named workflow state, trying each
// configured team until one knows the state name.
func (c *LinearClient) UpdateStatus(ticketID string, status string) error {
	ticket, err := c.GetTicket(ticketID)
	if err != nil {
		return err
	}
	var stateID string
	for _, teamID := range c.teams {
		if id, ok := c.stateID(teamID, status); ok {
			stateID = id
			break
		}
	}
	if stateID == "" {
		return fmt.Errorf("could not find state %q", status)
	}

	var data struct {
		IssueUpdate struct {
			Success bool `json:"success"`
		} `json:"issueUpdate"`
	}
	vars := map[string]any{"id": ticket.ID, "input": map[string]any{"stateId": stateID}}
	if err := c.execute(updateIssueMutation, vars, &data); err != nil {
		return err
	}
	if !data.IssueUpdate.Success {
		return fmt.Errorf("could not confirm status update for %s", ticketID)
	}
	log.Info("updated ticket", "ticket", ticketID, "status", status)
	return nil
}

func (c *LinearClient) AddComment(ticketID string, body string) error {
	ticket, err := c.GetTicket(ticketID)
	if err != nil {
		return err
	}
	var data struct {
		CommentCreate struct {
			Success bool `json:"success"`
		} `json:"commentCreate"`
	}
	vars := map[string]any{"input": map[string]any{"issueId": ticket.ID, "body": body}}
	if err := c.execute(createCommentMutation, vars, &data); err != nil {
		return err
	}
	if !data.CommentCreate.Success {
		return fmt.Errorf("could not confirm comment added to %s", ticketID)
	}
	return nil
}

func (c *LinearClient) GetProject(projectID string) (LinearProject, error) {
	var data struct {
		Project *LinearProject `json:"project"`
	}
	if err := c.execute(getProjectQuery, map[string]any{"id": projectID}, &data); err != nil {
		return LinearProject{}, err
	}
	if data.Project == nil {
		return LinearProject{}, fmt.Errorf("could not find project: %s", projectID)
	}
	return *data.Project, nil
}

// ProjectTickets lists a project's issues, falling back to a name search
// when the argument is not a project id.
func (c *LinearClient) ProjectTickets(projectID string) ([]LinearTicket, error) {
	tickets, ok, err := c.projectIssues(projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		var search struct {
			Projects struct {
				Nodes []LinearProject `json:"nodes"`
			} `json:"projects"`
		}
		if err := c.execute(searchProjectsQuery, map[string]any{"query": projectID}, &search); err != nil {
			return nil, err
		}
		if len(search.Projects.Nodes) == 0 {
			return []LinearTicket{}, nil
		}
		found := search.Projects.Nodes[0]
		log.Info("found project by name", "name", found.Name, "id", found.ID)
		tickets, _, err = c.projectIssues(found.ID)
		if err != nil {
			return nil, err
		}
	}
	return tickets, nil
}

func (c *LinearClient) projectIssues(projectID string) ([]LinearTicket, bool, error) {
	var data struct {
		Project *struct {
			Issues struct {
				Nodes []linearIssueNode `json:"nodes"`
			} `json:"issues"`
		} `json:"project"`
	}
	if err := c.execute(listProjectIssuesQuery, map[string]any{"projectId": projectID}, &data); err != nil {
		return nil, false, err
	}
	if data.Project == nil {
		return nil, false, nil
	}
	tickets := make([]LinearTicket, 0, len(data.Project.Issues.Nodes))
	for _, node := range data.Project.Issues.Nodes {
		tickets = append(tickets, ticketFromNode(node))
	}
	return tickets, true, nil
}

func (c *LinearClient) CreateProject(name string, description string, team string) (LinearProject, error) {
	teamID, err := c.teamID(team)
	if err != nil {
		return LinearProject{}, err
	}
	input := map[string]any{
		"name":        name,
		"description": description,
		"teamIds":     []string{teamID},
	}
	var data struct {
		ProjectCreate struct {
			Success bool          `json:"success"`
			Project LinearProject `json:"project"`
		} `json:"projectCreate"`
	}
	if err := c.execute(createProjectMutation, map[string]any{"input": input}, &data); err != nil {
		return LinearProject{}, err
	}
	if !data.ProjectCreate.Success {
		return LinearProject{}, fmt.Errorf("failed to create project %q", name)
	}
	log.Info("project created", "url", data.ProjectCreate.Project.URL)
	return data.ProjectCreate.Project, nil
}
