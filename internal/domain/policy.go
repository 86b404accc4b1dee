package domain

type PolicyInput struct {
	Principal PolicyPrincipal `json:"principal"`
	Action    string          `json:"permission"`
}

type PolicyPrincipal struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

type PolicyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyResult struct {
	Allow bool         `json:"allow"`
	Deny  []PolicyDeny `json:"deny,omitempty"`
}
