package gitlab

// Project is the subset of GitLab project fields cimon reads.
type Project struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	NameWithNamespace string `json:"name_with_namespace"`
	PathWithNamespace string `json:"path_with_namespace"`
	DefaultBranch     string `json:"default_branch"`
	WebURL            string `json:"web_url"`
	Archived          bool   `json:"archived"`
	LastActivityAt    string `json:"last_activity_at"`
	CreatedAt         string `json:"created_at"`
}

// Pipeline is a GitLab pipeline.
type Pipeline struct {
	ID         int64   `json:"id"`
	IID        int64   `json:"iid"`
	ProjectID  int64   `json:"project_id"`
	SHA        string  `json:"sha"`
	Ref        string  `json:"ref"`
	Status     string  `json:"status"`
	Source     string  `json:"source"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	StartedAt  *string `json:"started_at"`
	FinishedAt *string `json:"finished_at"`
	Duration   *int64  `json:"duration"` // whole seconds
	WebURL     string  `json:"web_url"`
	User       *User   `json:"user"`
}

// Job is a single job of a pipeline.
type Job struct {
	ID             int64        `json:"id"`
	Status         string       `json:"status"`
	Stage          string       `json:"stage"`
	Name           string       `json:"name"`
	Ref            string       `json:"ref"`
	Tag            bool         `json:"tag"`
	AllowFailure   bool         `json:"allow_failure"`
	CreatedAt      string       `json:"created_at"`
	StartedAt      *string      `json:"started_at"`
	FinishedAt     *string      `json:"finished_at"`
	Duration       *float64     `json:"duration"` // fractional seconds
	QueuedDuration *float64     `json:"queued_duration"`
	User           *User        `json:"user"`
	Commit         *Commit      `json:"commit"`
	Pipeline       *PipelineRef `json:"pipeline"`
	WebURL         string       `json:"web_url"`
}

// PipelineRef is the pipeline summary embedded in a job.
type PipelineRef struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	SHA       string `json:"sha"`
	Ref       string `json:"ref"`
	Status    string `json:"status"`
	WebURL    string `json:"web_url"`
}

// Commit is the commit a job ran against.
type Commit struct {
	ID          string `json:"id"`
	ShortID     string `json:"short_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	CreatedAt   string `json:"created_at"`
}

// User is a GitLab account.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	State       string `json:"state"`
	AvatarURL   string `json:"avatar_url"`
	WebURL      string `json:"web_url"`
	Email       string `json:"email"`
	PublicEmail string `json:"public_email"`
}
