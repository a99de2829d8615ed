package model

// Features are the runtime toggles that shape message handling.
type Features struct {
	AutoReply         bool `json:"auto_reply"`
	WelcomeMessage    bool `json:"welcome_message"`
	IgnoreGroups      bool `json:"ignore_groups"`
	IgnoreStatus      bool `json:"ignore_status"`
	IgnoreNewsletters bool `json:"ignore_newsletters"`
}
