package jenkins

// Job is a Jenkins job as returned by the JSON API.
type Job struct {
	Class               string     `json:"_class"`
	Name                string     `json:"name"`
	FullName            string     `json:"fullName"`
	DisplayName         string     `json:"displayName"`
	Description         string     `json:"description"`
	URL                 string     `json:"url"`
	Color               string     `json:"color"`
	Buildable           *bool      `json:"buildable"`
	InQueue             bool       `json:"inQueue"`
	Builds              []BuildRef `json:"builds"`
	LastBuild           *BuildRef  `json:"lastBuild"`
	LastCompletedBuild  *BuildRef  `json:"lastCompletedBuild"`
	LastSuccessfulBuild *BuildRef  `json:"lastSuccessfulBuild"`
	LastFailedBuild     *BuildRef  `json:"lastFailedBuild"`
}

// BuildRef is the abbreviated build embedded in job listings.
type BuildRef struct {
	Number    int     `json:"number"`
	URL       string  `json:"url"`
	Building  bool    `json:"building"`
	Result    *string `json:"result"`
	Timestamp int64   `json:"timestamp"` // epoch millis
	Duration  int64   `json:"duration"`  // millis
}

// Build is a full build record.
type Build struct {
	Class             string      `json:"_class"`
	ID                string      `json:"id"`
	Number            int         `json:"number"`
	URL               string      `json:"url"`
	DisplayName       string      `json:"displayName"`
	FullDisplayName   string      `json:"fullDisplayName"`
	Building          bool        `json:"building"`
	Result            *string     `json:"result"`
	Timestamp         int64       `json:"timestamp"`
	Duration          int64       `json:"duration"`
	EstimatedDuration int64       `json:"estimatedDuration"`
	QueueID           int64       `json:"queueId"`
	Actions           []Action    `json:"actions"`
	ChangeSet         *ChangeSet  `json:"changeSet"`
	ChangeSets        []ChangeSet `json:"changeSets"`
}

// Action carries causes, parameters and SCM revisions of a build.
type Action struct {
	Class             string      `json:"_class"`
	Causes            []Cause     `json:"causes"`
	Parameters        []Parameter `json:"parameters"`
	LastBuiltRevision *Revision   `json:"lastBuiltRevision"`
	RemoteURLs        []string    `json:"remoteUrls"`
}

type Cause struct {
	ShortDescription string `json:"shortDescription"`
	UserID           string `json:"userId"`
	UserName         string `json:"userName"`
}

type Parameter struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type Revision struct {
	SHA1   string   `json:"SHA1"`
	Branch []Branch `json:"branch"`
}

type Branch struct {
	SHA1 string `json:"SHA1"`
	Name string `json:"name"`
}

// ChangeSet lists the commits that went into a build.
type ChangeSet struct {
	Kind  string          `json:"kind"`
	Items []ChangeSetItem `json:"items"`
}

type ChangeSetItem struct {
	CommitID    string   `json:"commitId"`
	Msg         string   `json:"msg"`
	Comment     string   `json:"comment"`
	AuthorEmail string   `json:"authorEmail"`
	Timestamp   int64    `json:"timestamp"`
	Author      *UserRef `json:"author"`
}

type UserRef struct {
	FullName    string `json:"fullName"`
	AbsoluteURL string `json:"absoluteUrl"`
}

// CurrentUser is the response of me/api/json.
type CurrentUser struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Description string `json:"description"`
	AbsoluteURL string `json:"absoluteUrl"`
}

// Crumb is the CSRF token required for POST requests on most servers.
type Crumb struct {
	Crumb             string `json:"crumb"`
	CrumbRequestField string `json:"crumbRequestField"`
}

// QueueItem is a build waiting for an executor.
type QueueItem struct {
	ID           int64     `json:"id"`
	URL          string    `json:"url"`
	InQueueSince int64     `json:"inQueueSince"`
	Why          string    `json:"why"`
	Stuck        bool      `json:"stuck"`
	Blocked      bool      `json:"blocked"`
	Cancelled    bool      `json:"cancelled"`
	Task         *JobRef   `json:"task"`
	Executable   *BuildRef `json:"executable"`
}

type JobRef struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Color string `json:"color"`
}

type jobsResponse struct {
	Jobs []Job `json:"jobs"`
}

type queueResponse struct {
	Items []QueueItem `json:"items"`
}
