package core

// HealthState is captured once at startup and never refreshed.
type HealthState struct {
	ArangoOK   bool
	ArangoErr  string
	LLMOK      bool
	BackendURL string
}

// Report is the /health payload.
type Report struct {
	Status     string `json:"status"`
	ArangoDB   string `json:"arangodb"`
	LLM        string `json:"llm"`
	BackendURL string `json:"backend_url,omitempty"`
}

const (
	statusOK    = "OK"
	statusError = "ERROR"
)

// Health reports the startup state of the database and the model. ok is
// true only when both are healthy; backend_url is reported only then.
func (a *App) Health() (Report, bool) {
	h := a.health
	if h.ArangoOK && h.LLMOK {
		return Report{
			Status:     statusOK,
			ArangoDB:   statusOK,
			LLM:        statusOK,
			BackendURL: h.BackendURL,
		}, true
	}

	r := Report{Status: statusError, ArangoDB: statusOK, LLM: statusOK}
	if !h.ArangoOK {
		r.ArangoDB = "ERROR: " + h.ArangoErr
	}
	if !h.LLMOK {
		r.LLM = "ERROR: LLM not initialized"
	}
	return r, false
}
