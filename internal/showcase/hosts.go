package showcase

import (
	"fmt"
	"net/url"
	"strings"
)

// Hosts describes where project repositories live on the source host.
type Hosts struct {
	// APIBase is the REST base for repository metadata, e.g. https://api.github.com/repos/org.
	APIBase string
	// RawBase serves literal file bytes, e.g. https://raw.githubusercontent.com/org.
	RawBase string
	// RepoBase is the human-facing repository base, e.g. https://github.com/org.
	RepoBase string
	// RepoNamePattern turns a project id into a repository name, e.g. team-%d.
	RepoNamePattern string
}

// DefaultHosts matches the hackathon organization the tool was built for.
func DefaultHosts() Hosts {
	return Hosts{
		APIBase:         "https://api.github.com/repos/platanus-hack",
		RawBase:         "https://raw.githubusercontent.com/platanus-hack",
		RepoBase:        "https://github.com/platanus-hack",
		RepoNamePattern: "team-%d",
	}
}

// RepoName returns the repository name for a project.
func (h Hosts) RepoName(projectID int) string {
	pattern := h.RepoNamePattern
	if pattern == "" {
		pattern = "%d"
	}
	return fmt.Sprintf(pattern, projectID)
}

// RepoURL is the human-facing repository URL.
func (h Hosts) RepoURL(projectID int) string {
	return join(h.RepoBase, h.RepoName(projectID))
}

// RawContentBase is the branch-pinned base for literal file bytes.
func (h Hosts) RawContentBase(projectID int, branch string) string {
	return join(h.RawBase, h.RepoName(projectID), branch)
}

// WebViewBase is the branch-pinned base for the host's file viewer.
func (h Hosts) WebViewBase(projectID int, branch string) string {
	return join(h.RepoBase, h.RepoName(projectID), "blob", branch)
}

// RawFileURL addresses one file on one branch.
func (h Hosts) RawFileURL(projectID int, branch, path string) string {
	return h.RawContentBase(projectID, branch) + "/" + strings.TrimLeft(path, "/")
}

// BranchesURL lists the branches of a project repository.
func (h Hosts) BranchesURL(projectID int) string {
	return join(h.APIBase, h.RepoName(projectID), "branches")
}

// RawLogoURL converts a blob-viewer URL on the repo host into its raw
// equivalent. Anything else is returned unchanged.
func (h Hosts) RawLogoURL(logo string) string {
	repoHost, rawHost := hostOf(h.RepoBase), hostOf(h.RawBase)
	if repoHost == "" || rawHost == "" {
		return logo
	}
	if !strings.Contains(logo, repoHost) || !strings.Contains(logo, "/blob/") {
		return logo
	}
	logo = strings.Replace(logo, repoHost, rawHost, 1)
	return strings.Replace(logo, "/blob/", "/", 1)
}

func hostOf(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return u.Host
}

func join(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + p
	}
	return out
}
