package narrative

// NewWithChat builds a Client around chat in place of a go-agents agent.
var NewWithChat = newClient
