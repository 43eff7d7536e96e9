package github

// Workflow is a GitHub Actions workflow definition.
type Workflow struct {
	ID        int64  `json:"id"`
	NodeID    string `json:"node_id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	URL       string `json:"url"`
	HTMLURL   string `json:"html_url"`
	BadgeURL  string `json:"badge_url"`
}

type workflowsResponse struct {
	TotalCount int        `json:"total_count"`
	Workflows  []Workflow `json:"workflows"`
}

// Run is one workflow run. Status and Conclusion must be read together.
type Run struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	DisplayTitle string      `json:"display_title"`
	Status       string      `json:"status"`
	Conclusion   *string     `json:"conclusion"`
	WorkflowID   int64       `json:"workflow_id"`
	HeadBranch   string      `json:"head_branch"`
	HeadSHA      string      `json:"head_sha"`
	Event        string      `json:"event"`
	RunNumber    int64       `json:"run_number"`
	RunAttempt   int         `json:"run_attempt"`
	HTMLURL      string      `json:"html_url"`
	LogsURL      string      `json:"logs_url"`
	CreatedAt    string      `json:"created_at"`
	UpdatedAt    string      `json:"updated_at"`
	RunStartedAt *string     `json:"run_started_at"`
	Actor        *User       `json:"actor"`
	HeadCommit   *Commit     `json:"head_commit"`
	Repository   *Repository `json:"repository"`
}

// RunsPage is one page of the workflow runs listing.
type RunsPage struct {
	TotalCount int   `json:"total_count"`
	Runs       []Run `json:"workflow_runs"`
}

// Commit is the head commit of a run.
type Commit struct {
	ID        string        `json:"id"`
	TreeID    string        `json:"tree_id"`
	Message   string        `json:"message"`
	Timestamp string        `json:"timestamp"`
	Author    *CommitAuthor `json:"author"`
	Committer *CommitAuthor `json:"committer"`
}

// CommitAuthor identifies a commit author or committer.
type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Repository is the subset of repository fields carried on runs.
type Repository struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	Private  bool   `json:"private"`
}

// User is a GitHub account.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Type      string `json:"type"`
}

// DispatchRequest is the body of a workflow_dispatch call.
type DispatchRequest struct {
	Ref    string         `json:"ref"`
	Inputs map[string]any `json:"inputs,omitempty"`
}
